package scenarios

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/drt/core/dispatch"
	"github.com/kilianp07/drt/core/events"
	"github.com/kilianp07/drt/core/model"
	"github.com/kilianp07/drt/infra/logger"
	"github.com/kilianp07/drt/infra/metrics"
	"github.com/kilianp07/drt/infra/mqtt"
	"github.com/kilianp07/drt/internal/eventbus"
	"github.com/kilianp07/drt/simulator"
)

// Outcome is what a scenario run produced.
type Outcome struct {
	Ticks    int64
	States   map[model.RequestState]int
	Vehicles []model.VehicleSnapshot
	// Commands counts the vehicle commands mirrored on the publisher.
	Commands int
	Events   int
	Offers   map[string]float64
}

// Run drives the scenario through the real simulator until every vehicle
// left the road or the tick limit is hit.
func Run(sc *Scenario) (*Outcome, error) {
	grid := sc.Grid
	if grid.LinkLength == 0 {
		grid.LinkLength = 100
	}
	if grid.Speed == 0 {
		grid.Speed = 10
	}
	road, err := simulator.NewGrid(grid)
	if err != nil {
		return nil, err
	}
	traffic, err := simulator.New(road, sc.Vehicles, logger.NopLogger{})
	if err != nil {
		return nil, err
	}
	pub := mqtt.NewMockPublisher()
	for _, id := range sc.FailCommands {
		pub.FailIDs[id] = true
	}
	mirror := mqtt.NewCommandMirror(traffic, pub, logger.NopLogger{})

	cfg := dispatch.Config{Capacity: sc.Dispatch.Capacity, ShiftEnd: sc.Dispatch.ShiftEnd}
	sim, err := dispatch.NewSimulation(mirror, cfg, logger.NopLogger{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = sim.Close() }()

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		return nil, err
	}
	sim.SetMetricsSink(sink, 10)

	bus := eventbus.NewTypedWithBuffer[events.Event](1024)
	sim.SetBus(bus)
	sub := bus.Subscribe()

	for _, r := range sc.Requests {
		if err := sim.AddRequest(r.ToModel()); err != nil {
			return nil, err
		}
	}

	maxTicks := sc.MaxTicks
	if maxTicks == 0 {
		maxTicks = 2 * sim.Config().ShiftEnd
	}
	out := &Outcome{}
	for !sim.Done() {
		if sim.Now() >= maxTicks {
			return nil, fmt.Errorf("scenario %s: still running at tick %d", sc.Name, maxTicks)
		}
		if _, err := sim.Tick(); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
	}
	bus.Close()
	for range sub {
		out.Events++
	}

	out.Ticks = sim.Now()
	out.States = sim.Pool().Count()
	out.Vehicles = sim.Snapshots()
	out.Commands = len(pub.Sent())
	out.Offers, err = offers(reg)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// offers reads drt_offers_total per outcome from reg.
func offers(reg *prometheus.Registry) (map[string]float64, error) {
	mfs, err := reg.Gather()
	if err != nil {
		return nil, err
	}
	out := map[string]float64{}
	for _, mf := range mfs {
		if mf.GetName() != "drt_offers_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" {
					out[l.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}
	return out, nil
}

// Check compares the outcome with the expectations of sc.
func Check(sc *Scenario, out *Outcome) error {
	want := map[model.RequestState]int{
		model.RequestArrived:      sc.Expected.Arrived,
		model.RequestUnsuccessful: sc.Expected.Unsuccessful,
		model.RequestUnallocated:  sc.Expected.Unallocated,
	}
	for st, n := range want {
		if got := out.States[st]; got != n {
			return fmt.Errorf("scenario %s: expected %d %s requests, got %d", sc.Name, n, st, got)
		}
	}
	if got := int(out.Offers["assigned"]); got != len(sc.Requests)-sc.Expected.Unsuccessful-sc.Expected.Unallocated {
		return fmt.Errorf("scenario %s: %d assignments recorded", sc.Name, got)
	}
	if sc.Expected.Shared {
		var shared float64
		for _, v := range out.Vehicles {
			shared += v.Stats.SharedDistance
		}
		if shared <= 0 {
			return fmt.Errorf("scenario %s: expected a shared ride", sc.Name)
		}
	}
	for _, v := range out.Vehicles {
		if v.State != model.VehicleStopped {
			return fmt.Errorf("scenario %s: vehicle %s ended %s", sc.Name, v.ID, v.StateName)
		}
	}
	return nil
}

// RunScenario runs sc and fails t when the expectations are not met.
func RunScenario(t *testing.T, sc *Scenario) {
	out, err := Run(sc)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := Check(sc, out); err != nil {
		t.Error(err)
	}
}
