package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drt/core/events"
	coremetrics "github.com/kilianp07/drt/core/metrics"
	"github.com/kilianp07/drt/internal/eventbus"
)

type tripSink struct {
	coremetrics.NopSink
	mu    sync.Mutex
	trips []coremetrics.TripEvent
}

func (s *tripSink) RecordTrip(ev coremetrics.TripEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips = append(s.trips, ev)
	return nil
}

func (s *tripSink) recorded() []coremetrics.TripEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]coremetrics.TripEvent(nil), s.trips...)
}

func TestEventCollectorRecordsServedStops(t *testing.T) {
	bus := eventbus.NewTyped[events.Event]()
	sink := &tripSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := StartEventCollector(ctx, bus, sink)

	bus.Publish(events.RequestAssigned{At: 1, RequestID: "p1", VehicleID: "v1"})
	bus.Publish(events.PassengerPickedUp{At: 10, RequestID: "p1", VehicleID: "v1", WaitTime: 9})
	bus.Publish(events.PassengerDroppedOff{At: 40, RequestID: "p1", VehicleID: "v1", TravelTime: 30, Distance: 300})
	bus.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
	trips := sink.recorded()
	require.Len(t, trips, 2)
	assert.Equal(t, "pickup", trips[0].Kind)
	assert.Equal(t, int64(9), trips[0].Duration)
	assert.Equal(t, "dropoff", trips[1].Kind)
	assert.Equal(t, int64(30), trips[1].Duration)
	assert.Equal(t, 300.0, trips[1].Distance)
}

func TestEventCollectorWithoutTripRecorder(t *testing.T) {
	bus := eventbus.NewTyped[events.Event]()
	done := StartEventCollector(context.Background(), bus, assignOnlySink{})
	_, open := <-done
	assert.False(t, open)
}

type assignOnlySink struct{}

func (assignOnlySink) RecordAssignment(coremetrics.AssignmentEvent) error { return nil }
