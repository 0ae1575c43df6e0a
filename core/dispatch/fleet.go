package dispatch

import (
	"fmt"
	"time"

	"github.com/kilianp07/drt/core/events"
	"github.com/kilianp07/drt/core/model"
)

// Assignment is the outcome of offering one request to the fleet.
type Assignment struct {
	Tick      int64
	RequestID string
	// VehicleID is empty when the request was rejected.
	VehicleID string
	Insertion Insertion
	Marginal  float64
	// Candidates is the number of vehicles with a feasible insertion.
	Candidates int
	Accepted   bool
	Latency    time.Duration
}

// Fleet owns every vehicle and assigns requests to them greedily.
type Fleet struct {
	env      *env
	eval     *Evaluator
	vehicles []*Vehicle
	byID     map[string]*Vehicle
}

func newFleet(e *env) *Fleet {
	return &Fleet{
		env:  e,
		eval: NewEvaluator(e.net, e.pool, e.cfg.MinDirectTime),
		byID: make(map[string]*Vehicle),
	}
}

// Add creates the vehicle id at its current position.
func (f *Fleet) Add(id string, now int64) (*Vehicle, error) {
	if _, ok := f.byID[id]; ok {
		return nil, fmt.Errorf("vehicle %s: %w", id, ErrDuplicate)
	}
	v := newVehicle(id, now, f.env)
	f.vehicles = append(f.vehicles, v)
	f.byID[id] = v
	f.env.log.Infof("vehicle %s entered at %s", id, v.last)
	return v, nil
}

// Get returns the vehicle with the given id.
func (f *Fleet) Get(id string) (*Vehicle, error) {
	v, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("vehicle %s: %w", id, ErrUnknownVehicle)
	}
	return v, nil
}

// Vehicles returns the vehicles in the order they entered.
func (f *Fleet) Vehicles() []*Vehicle {
	out := make([]*Vehicle, len(f.vehicles))
	copy(out, f.vehicles)
	return out
}

// Len returns the number of vehicles ever added.
func (f *Fleet) Len() int { return len(f.vehicles) }

// Assign offers r to every dispatchable vehicle and commits it to the one
// with the lowest marginal penalty. Vehicles are scanned in entry order and
// only a strictly lower marginal replaces the current best. When no vehicle
// has a feasible insertion the request is rejected.
func (f *Fleet) Assign(now int64, r *model.Request) (Assignment, error) {
	start := time.Now()
	res := Assignment{Tick: now, RequestID: r.ID}
	var best *Vehicle
	for _, v := range f.vehicles {
		if !v.state.Dispatchable() {
			continue
		}
		trip := v.trip(now)
		base, ok, err := f.eval.PlanPenalty(v.plan.Stops(), trip)
		if err != nil {
			return res, err
		}
		if !ok {
			f.env.log.Debugf("vehicle %s: current plan infeasible, skipped", v.id)
			continue
		}
		ins, ok, err := f.eval.BestInsertion(v.plan, trip, r.Origin, r.Destination)
		if err != nil {
			return res, err
		}
		if !ok {
			continue
		}
		marginal := ins.Penalty - base
		res.Candidates++
		f.env.log.Debugw("insertion candidate", map[string]any{
			"request":  r.ID,
			"vehicle":  v.id,
			"pickup":   ins.PickupIndex,
			"dropoff":  ins.DropoffIndex,
			"penalty":  ins.Penalty,
			"marginal": marginal,
		})
		if best == nil || marginal < res.Marginal {
			best = v
			res.Insertion = ins
			res.Marginal = marginal
		}
	}
	res.Latency = time.Since(start)
	insertionLatency.Observe(res.Latency.Seconds())

	if best == nil {
		if err := r.Reject(); err != nil {
			return res, err
		}
		requestsRejected.Inc()
		f.env.log.Infof("request %s rejected at %d", r.ID, now)
		f.env.publish(events.RequestRejected{At: now, RequestID: r.ID, Candidates: res.Candidates})
		return res, nil
	}
	if err := best.commit(now, res.Insertion, r); err != nil {
		return res, err
	}
	res.VehicleID = best.id
	res.Accepted = true
	requestsAssigned.Inc()
	marginalPenalty.Observe(res.Marginal)
	f.env.log.Infof("request %s assigned to %s at (%d,%d), marginal %.3f",
		r.ID, best.id, res.Insertion.PickupIndex, res.Insertion.DropoffIndex, res.Marginal)
	f.env.publish(events.RequestAssigned{
		At:           now,
		RequestID:    r.ID,
		VehicleID:    best.id,
		PickupIndex:  res.Insertion.PickupIndex,
		DropoffIndex: res.Insertion.DropoffIndex,
		Penalty:      res.Insertion.Penalty,
		Marginal:     res.Marginal,
	})
	return res, nil
}

// updateGauges refreshes the per-state vehicle gauge.
func (f *Fleet) updateGauges() {
	counts := make(map[model.OperatingState]int)
	for _, v := range f.vehicles {
		counts[v.state]++
	}
	for _, s := range []model.OperatingState{model.VehicleNotStarted, model.VehicleRunning, model.VehicleGoingHome, model.VehicleStopped} {
		vehiclesByState.WithLabelValues(s.String()).Set(float64(counts[s]))
	}
}
