package model

import "fmt"

// Location is a position on the road network expressed as a link identifier
// and an offset in metres from the start of that link.
type Location struct {
	Link   string  `json:"link" yaml:"link"`
	Offset float64 `json:"offset" yaml:"offset"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s@%.1f", l.Link, l.Offset)
}

// StopKind describes why a vehicle visits a stop.
type StopKind int

const (
	StopDepot StopKind = iota
	StopPickup
	StopDropoff
	StopCurrent
	StopWait
)

func (k StopKind) String() string {
	switch k {
	case StopDepot:
		return "depot"
	case StopPickup:
		return "pickup"
	case StopDropoff:
		return "dropoff"
	case StopCurrent:
		return "current"
	case StopWait:
		return "wait"
	default:
		return fmt.Sprintf("StopKind(%d)", int(k))
	}
}

// Stop is a single waypoint of a vehicle itinerary.
type Stop struct {
	// RequestID is empty for stops that do not belong to a request.
	RequestID string
	Location  Location
	Kind      StopKind
	// EarliestService is the first tick at which the stop may be served.
	// Nil means the stop can be served on arrival.
	EarliestService *int64
}

// NewDepotStop returns the terminal stop of a plan. The vehicle may not be
// back before shiftEnd, which keeps the evaluator clock aligned with the
// shift boundary.
func NewDepotStop(loc Location, shiftEnd int64) Stop {
	return Stop{Location: loc, Kind: StopDepot, EarliestService: Int64(shiftEnd)}
}

// CurrentStop wraps a vehicle position so it can lead a candidate plan.
func CurrentStop(loc Location) Stop {
	return Stop{Location: loc, Kind: StopCurrent}
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

func (s Stop) String() string {
	if s.RequestID == "" {
		return fmt.Sprintf("%s %s", s.Kind, s.Location)
	}
	return fmt.Sprintf("%s %s %s", s.Kind, s.RequestID, s.Location)
}
