package model

import (
	"errors"
	"fmt"
)

// ErrInvalidInsert is returned when a stop would be placed after the depot.
var ErrInvalidInsert = errors.New("insert position outside plan")

// Plan is the ordered list of stops a vehicle still has to visit. It always
// ends with exactly one depot stop.
type Plan struct {
	stops []Stop
}

// NewPlan returns a plan holding only the depot stop.
func NewPlan(depot Stop) Plan {
	depot.Kind = StopDepot
	return Plan{stops: []Stop{depot}}
}

// Len returns the number of stops including the depot.
func (p Plan) Len() int { return len(p.stops) }

// Stops returns a copy of the stops in visiting order.
func (p Plan) Stops() []Stop {
	out := make([]Stop, len(p.stops))
	copy(out, p.stops)
	return out
}

// Head returns the next stop to visit.
func (p Plan) Head() (Stop, bool) {
	if len(p.stops) == 0 {
		return Stop{}, false
	}
	return p.stops[0], true
}

// Depot returns the terminal depot stop.
func (p Plan) Depot() Stop {
	return p.stops[len(p.stops)-1]
}

// OnlyDepot reports whether the itinerary has nothing left but the depot.
func (p Plan) OnlyDepot() bool {
	return len(p.stops) == 1
}

// Clone returns an independent copy of the plan.
func (p Plan) Clone() Plan {
	return Plan{stops: p.Stops()}
}

// Insert places s at index i. Only indices up to the depot position are
// valid, so the depot always stays last.
func (p *Plan) Insert(i int, s Stop) error {
	if i < 0 || i > len(p.stops)-1 {
		return fmt.Errorf("%w: index %d, depot at %d", ErrInvalidInsert, i, len(p.stops)-1)
	}
	if s.Kind == StopDepot {
		return fmt.Errorf("%w: second depot stop", ErrInvalidInsert)
	}
	p.stops = append(p.stops, Stop{})
	copy(p.stops[i+1:], p.stops[i:])
	p.stops[i] = s
	return nil
}

// InsertPair inserts a pickup at pickupIdx and then a dropoff at dropoffIdx.
// dropoffIdx is interpreted against the plan after the pickup was inserted,
// so it must be strictly greater than pickupIdx.
func (p *Plan) InsertPair(pickupIdx, dropoffIdx int, pickup, dropoff Stop) error {
	if dropoffIdx <= pickupIdx {
		return fmt.Errorf("%w: dropoff %d not after pickup %d", ErrInvalidInsert, dropoffIdx, pickupIdx)
	}
	next := p.Clone()
	if err := next.Insert(pickupIdx, pickup); err != nil {
		return err
	}
	if err := next.Insert(dropoffIdx, dropoff); err != nil {
		return err
	}
	p.stops = next.stops
	return nil
}

// PopHead removes the next stop. The depot is never removed.
func (p *Plan) PopHead() (Stop, bool) {
	if len(p.stops) <= 1 {
		return Stop{}, false
	}
	s := p.stops[0]
	p.stops = p.stops[1:]
	return s, true
}

// Validate checks the structural invariants of the plan: a single trailing
// depot and every dropoff after its pickup.
func (p Plan) Validate() error {
	if len(p.stops) == 0 {
		return errors.New("plan has no depot")
	}
	dropped := make(map[string]bool)
	for i, s := range p.stops {
		switch s.Kind {
		case StopDepot:
			if i != len(p.stops)-1 {
				return fmt.Errorf("depot at %d is not last", i)
			}
		case StopPickup:
			if dropped[s.RequestID] {
				return fmt.Errorf("dropoff of %s before its pickup", s.RequestID)
			}
		case StopDropoff:
			dropped[s.RequestID] = true
		}
	}
	if p.stops[len(p.stops)-1].Kind != StopDepot {
		return errors.New("plan does not end at depot")
	}
	return nil
}
