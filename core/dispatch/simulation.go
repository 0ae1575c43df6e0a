package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/drt/core/dispatch/logging"
	"github.com/kilianp07/drt/core/events"
	"github.com/kilianp07/drt/core/logger"
	"github.com/kilianp07/drt/core/metrics"
	"github.com/kilianp07/drt/core/model"
	"github.com/kilianp07/drt/core/network"
	"github.com/kilianp07/drt/internal/eventbus"
)

// Simulation owns the fleet and the request pool of one run and drives them
// from a step-wise traffic simulator.
type Simulation struct {
	env   *env
	sim   network.Simulator
	fleet *Fleet
	now   int64

	runID            string
	store            logging.LogStore
	sink             metrics.MetricsSink
	snapshotInterval int64
}

// NewSimulation creates a simulation over sim. cfg defaults are applied
// before validation.
func NewSimulation(sim network.Simulator, cfg Config, log logger.Logger) (*Simulation, error) {
	if sim == nil {
		return nil, fmt.Errorf("dispatch: nil simulator")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch config: %w", err)
	}
	e := &env{net: sim, cfg: cfg, pool: NewRequestPool(), log: logger.OrNop(log)}
	return &Simulation{
		env:   e,
		sim:   sim,
		fleet: newFleet(e),
		store: logging.NopStore{},
		sink:  metrics.NopSink{},
	}, nil
}

// SetBus configures the bus dispatch events are published on.
func (s *Simulation) SetBus(bus eventbus.Publisher[events.Event]) { s.env.bus = bus }

// SetLogStore configures the store used to persist dispatch decisions.
func (s *Simulation) SetLogStore(store logging.LogStore, runID string) {
	if store == nil {
		store = logging.NopStore{}
	}
	s.store = store
	s.runID = runID
}

// SetMetricsSink configures the sink receiving assignments and, every
// interval ticks, fleet snapshots. A zero interval disables snapshots.
func (s *Simulation) SetMetricsSink(sink metrics.MetricsSink, interval int64) {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	s.sink = sink
	s.snapshotInterval = interval
}

func (s *Simulation) Now() int64         { return s.now }
func (s *Simulation) Fleet() *Fleet      { return s.fleet }
func (s *Simulation) Pool() *RequestPool { return s.env.pool }
func (s *Simulation) Config() Config     { return s.env.cfg }

// AddRequest computes the direct baseline of r and registers it.
func (s *Simulation) AddRequest(r *model.Request) error {
	o, d := r.Origin.Location, r.Destination.Location
	r.SetBaseline(s.sim.Distance(o, d), s.sim.TravelTime(o, d))
	return s.env.pool.Add(r)
}

// Tick runs one dispatcher step: the simulator advances, new vehicles are
// created, every running vehicle is advanced, vehicles that left are
// stopped and finally the requests due at this tick are offered to the
// fleet.
func (s *Simulation) Tick() (network.Observation, error) {
	obs := s.sim.Step()
	s.now = obs.Time
	for _, id := range obs.Departed {
		if _, err := s.fleet.Add(id, s.now); err != nil {
			return obs, err
		}
	}
	for _, v := range s.fleet.vehicles {
		if err := v.Advance(s.now); err != nil {
			return obs, fmt.Errorf("tick %d: %w", s.now, err)
		}
	}
	for _, id := range obs.Arrived {
		v, err := s.fleet.Get(id)
		if err != nil {
			return obs, err
		}
		if err := v.Stop(s.now); err != nil {
			return obs, err
		}
	}
	for _, r := range s.env.pool.Due(s.now) {
		if err := s.offer(r); err != nil {
			return obs, fmt.Errorf("tick %d: %w", s.now, err)
		}
	}
	s.fleet.updateGauges()
	if s.snapshotInterval > 0 && s.now%s.snapshotInterval == 0 {
		s.recordSnapshots()
	}
	return obs, nil
}

func (s *Simulation) offer(r *model.Request) error {
	res, err := s.fleet.Assign(s.now, r)
	if err != nil {
		return err
	}
	rec := logging.LogRecord{
		Timestamp:  time.Now(),
		RunID:      s.runID,
		Tick:       s.now,
		RequestID:  r.ID,
		CallTime:   r.CallTime,
		Outcome:    logging.OutcomeRejected,
		Candidates: res.Candidates,
	}
	if res.Accepted {
		rec.Outcome = logging.OutcomeAssigned
		rec.VehicleID = res.VehicleID
		rec.PickupIndex = res.Insertion.PickupIndex
		rec.DropoffIndex = res.Insertion.DropoffIndex
		rec.Penalty = res.Insertion.Penalty
		rec.Marginal = res.Marginal
	}
	if err := s.store.Append(context.Background(), rec); err != nil {
		s.env.log.Errorf("decision log append: %v", err)
	}
	if err := s.sink.RecordAssignment(metrics.AssignmentEvent{
		Tick:       s.now,
		RequestID:  r.ID,
		VehicleID:  res.VehicleID,
		Accepted:   res.Accepted,
		Penalty:    res.Insertion.Penalty,
		Marginal:   res.Marginal,
		Candidates: res.Candidates,
		Latency:    res.Latency,
		Time:       time.Now(),
	}); err != nil {
		s.env.log.Errorf("metrics sink error: %v", err)
	}
	return nil
}

func (s *Simulation) recordSnapshots() {
	rec, ok := s.sink.(metrics.VehicleSnapshotRecorder)
	if !ok {
		return
	}
	if err := rec.RecordVehicleSnapshots(metrics.VehicleSnapshotEvent{
		Tick:      s.now,
		Snapshots: s.Snapshots(),
		Time:      time.Now(),
	}); err != nil {
		s.env.log.Errorf("snapshot metrics error: %v", err)
	}
}

// Snapshots returns the state of every vehicle at the current tick.
func (s *Simulation) Snapshots() []model.VehicleSnapshot {
	out := make([]model.VehicleSnapshot, 0, len(s.fleet.vehicles))
	for _, v := range s.fleet.vehicles {
		out = append(out, v.Snapshot(s.now))
	}
	return out
}

// Done reports whether the simulator has nothing left to run.
func (s *Simulation) Done() bool {
	return !s.sim.Active()
}

// Close releases the decision log.
func (s *Simulation) Close() error {
	return s.store.Close()
}
