package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/drt/core/events"
	coremetrics "github.com/kilianp07/drt/core/metrics"
	"github.com/kilianp07/drt/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records served stops
// on sinks implementing TripRecorder. It stops when the context is canceled
// or the bus is closed; the returned channel is closed once it has stopped.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[events.Event], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	rec, ok := sink.(coremetrics.TripRecorder)
	if bus == nil || !ok {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if t, ok := tripEvent(ev); ok {
					_ = rec.RecordTrip(t)
				}
			}
		}
	}()
	return done
}

func tripEvent(ev events.Event) (coremetrics.TripEvent, bool) {
	switch e := ev.(type) {
	case events.PassengerPickedUp:
		return coremetrics.TripEvent{
			Tick:      e.At,
			RequestID: e.RequestID,
			VehicleID: e.VehicleID,
			Kind:      "pickup",
			Duration:  e.WaitTime,
			Time:      time.Now(),
		}, true
	case events.PassengerDroppedOff:
		return coremetrics.TripEvent{
			Tick:      e.At,
			RequestID: e.RequestID,
			VehicleID: e.VehicleID,
			Kind:      "dropoff",
			Duration:  e.TravelTime,
			Distance:  e.Distance,
			Time:      time.Now(),
		}, true
	}
	return coremetrics.TripEvent{}, false
}
