package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAssignment forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordAssignment(ev AssignmentEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordAssignment(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordVehicleSnapshots forwards snapshots to sinks that record them.
func (m *MultiSink) RecordVehicleSnapshots(ev VehicleSnapshotEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(VehicleSnapshotRecorder); ok {
			if err := rec.RecordVehicleSnapshots(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordTrip forwards served stops.
func (m *MultiSink) RecordTrip(ev TripEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(TripRecorder); ok {
			if err := rec.RecordTrip(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordRunSummary forwards the run summary.
func (m *MultiSink) RecordRunSummary(sum RunSummary) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RunSummaryRecorder); ok {
			if err := rec.RecordRunSummary(sum); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		Close(s)
	}
}

// Close releases sink when it implements Close() or Close() error.
func Close(sink MetricsSink) {
	switch c := sink.(type) {
	case interface{ Close() }:
		c.Close()
	case interface{ Close() error }:
		_ = c.Close()
	}
}
