package simulator

import (
	"fmt"
	"math/rand"
)

// FleetConfig holds parameters for bulk fleet generation.
type FleetConfig struct {
	Size   int    `json:"size"`
	Prefix string `json:"prefix"`
	Depart int64  `json:"depart"`
	// Seed picks the entry links. Zero spreads vehicles evenly over the
	// links in declaration order.
	Seed int64 `json:"seed"`
}

// GenerateFleet creates Size vehicles named <prefix>0001..<prefix>NNNN, all
// departing at the start of a link.
func GenerateFleet(cfg FleetConfig, r *Road) []Departure {
	if cfg.Size <= 0 || r == nil {
		return nil
	}
	links := r.Links()
	var rng *rand.Rand
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}
	vs := make([]Departure, cfg.Size)
	for i := range vs {
		idx := i * len(links) / cfg.Size
		if rng != nil {
			idx = rng.Intn(len(links))
		}
		vs[i] = Departure{
			ID:     fmt.Sprintf("%s%04d", cfg.Prefix, i+1),
			Depart: cfg.Depart,
			Link:   links[idx],
		}
	}
	return vs
}
