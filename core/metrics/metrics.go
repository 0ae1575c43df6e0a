package metrics

import (
	"time"

	"github.com/kilianp07/drt/core/model"
)

// AssignmentEvent is the outcome of offering one request to the fleet.
type AssignmentEvent struct {
	Tick       int64
	RequestID  string
	VehicleID  string
	Accepted   bool
	Penalty    float64
	Marginal   float64
	Candidates int
	Latency    time.Duration
	Time       time.Time
}

// MetricsSink records dispatch decisions for observability purposes.
type MetricsSink interface {
	RecordAssignment(ev AssignmentEvent) error
}

// VehicleSnapshotEvent carries the state of every vehicle at one tick.
type VehicleSnapshotEvent struct {
	Tick      int64
	Snapshots []model.VehicleSnapshot
	Time      time.Time
}

// VehicleSnapshotRecorder records periodic fleet snapshots.
type VehicleSnapshotRecorder interface {
	RecordVehicleSnapshots(ev VehicleSnapshotEvent) error
}

// TripEvent is a pickup or a dropoff served by a vehicle.
type TripEvent struct {
	Tick      int64
	RequestID string
	VehicleID string
	// Kind is "pickup" or "dropoff".
	Kind string
	// Duration is the wait time for a pickup and the onboard time for a
	// dropoff, in ticks.
	Duration int64
	Distance float64
	Time     time.Time
}

// TripRecorder records served stops.
type TripRecorder interface {
	RecordTrip(ev TripEvent) error
}

// RunSummary is recorded once when a run completes.
type RunSummary struct {
	RunID      string
	Ticks      int64
	Requests   map[string]int
	Vehicles   int
	Passengers int
	Distance   float64
	Time       time.Time
}

// RunSummaryRecorder records the end of a run.
type RunSummaryRecorder interface {
	RecordRunSummary(s RunSummary) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordAssignment(AssignmentEvent) error            { return nil }
func (NopSink) RecordVehicleSnapshots(VehicleSnapshotEvent) error { return nil }
func (NopSink) RecordTrip(TripEvent) error                        { return nil }
func (NopSink) RecordRunSummary(RunSummary) error                 { return nil }
