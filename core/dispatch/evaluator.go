package dispatch

import (
	"math"

	"github.com/kilianp07/drt/core/model"
	"github.com/kilianp07/drt/core/network"
)

// Trip is the vehicle state a plan is evaluated from.
type Trip struct {
	Start      model.Location
	Now        int64
	Passengers int
	Capacity   int
	ShiftEnd   int64
}

// Insertion is the best position found for a pickup and dropoff pair.
// DropoffIndex refers to the plan after the pickup has been inserted.
type Insertion struct {
	PickupIndex  int
	DropoffIndex int
	Penalty      float64
}

// Evaluator scores candidate plans. It has no side effects on the plans or
// the requests it reads.
type Evaluator struct {
	router    network.Router
	requests  *RequestPool
	minDirect float64
	scratch   []model.Stop
}

// NewEvaluator creates an evaluator reading travel times from router and
// request baselines from pool.
func NewEvaluator(router network.Router, pool *RequestPool, minDirect float64) *Evaluator {
	if minDirect <= 0 {
		minDirect = 1
	}
	return &Evaluator{router: router, requests: pool, minDirect: minDirect}
}

// PlanPenalty simulates driving through stops starting from trip and
// returns the summed lateness of every dropoff. ok is false when the plan
// overruns the shift or the capacity. An error is only returned for a
// dropoff of a request unknown to the pool.
func (e *Evaluator) PlanPenalty(stops []model.Stop, trip Trip) (penalty float64, ok bool, err error) {
	clock := trip.Now
	passengers := trip.Passengers
	prev := trip.Start
	for _, s := range stops {
		tt := e.router.TravelTime(prev, s.Location)
		if math.IsInf(tt, 0) || math.IsNaN(tt) {
			return 0, false, nil
		}
		clock += int64(tt)
		if s.EarliestService != nil && clock < *s.EarliestService {
			clock = *s.EarliestService
		}
		if clock > trip.ShiftEnd {
			return 0, false, nil
		}
		switch s.Kind {
		case model.StopPickup:
			passengers++
		case model.StopDropoff:
			passengers--
			r, err := e.requests.Get(s.RequestID)
			if err != nil {
				return 0, false, err
			}
			penalty += r.Lateness(clock, e.minDirect)
		}
		if passengers > trip.Capacity {
			return 0, false, nil
		}
		prev = s.Location
	}
	return penalty, true, nil
}

// Feasible reports whether stops can be driven from trip.
func (e *Evaluator) Feasible(stops []model.Stop, trip Trip) bool {
	_, ok, err := e.PlanPenalty(stops, trip)
	return ok && err == nil
}

// BestInsertion tries every pickup position p and dropoff position d with
// 0 <= p < d <= plan.Len() and returns the cheapest feasible one. Ties keep
// the first pair found, in increasing pickup then dropoff order.
func (e *Evaluator) BestInsertion(plan model.Plan, trip Trip, pickup, dropoff model.Stop) (Insertion, bool, error) {
	base := plan.Stops()
	n := len(base)
	best := Insertion{Penalty: math.Inf(1)}
	found := false
	for p := 0; p < n; p++ {
		for d := p + 1; d <= n; d++ {
			cand := e.candidate(base, p, d, pickup, dropoff)
			pen, ok, err := e.PlanPenalty(cand, trip)
			if err != nil {
				return Insertion{}, false, err
			}
			if ok && pen < best.Penalty {
				best = Insertion{PickupIndex: p, DropoffIndex: d, Penalty: pen}
				found = true
			}
		}
	}
	return best, found, nil
}

// candidate builds base with pickup at p and dropoff at d into the reused
// scratch buffer. d indexes the plan after the pickup insertion.
func (e *Evaluator) candidate(base []model.Stop, p, d int, pickup, dropoff model.Stop) []model.Stop {
	out := e.scratch[:0]
	for i := 0; i <= len(base); i++ {
		// i walks positions of the post-pickup plan
		switch {
		case i == p:
			out = append(out, pickup)
		case i < p:
			out = append(out, base[i])
		default:
			out = append(out, base[i-1])
		}
		if len(out) == d {
			out = append(out, dropoff)
		}
	}
	e.scratch = out
	return out
}
