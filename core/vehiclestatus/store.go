// Package vehiclestatus keeps the latest view of vehicles and requests for
// readers outside the dispatch loop.
package vehiclestatus

import (
	"context"
	"sort"
	"sync"

	"github.com/kilianp07/drt/core/events"
	"github.com/kilianp07/drt/core/model"
	"github.com/kilianp07/drt/internal/eventbus"
)

// VehicleStatus is the last snapshot of a vehicle plus its latest event.
type VehicleStatus struct {
	model.VehicleSnapshot
	LastEvent     string `json:"last_event,omitempty"`
	LastEventTick int64  `json:"last_event_tick,omitempty"`
}

// RequestStatus tracks a request through its lifecycle.
type RequestStatus struct {
	RequestID   string `json:"request_id"`
	CallTime    int64  `json:"call_time"`
	State       string `json:"state"`
	VehicleID   string `json:"vehicle_id,omitempty"`
	UpdatedTick int64  `json:"updated_tick"`
	WaitTime    *int64 `json:"wait_time,omitempty"`
	TravelTime  *int64 `json:"travel_time,omitempty"`
}

// Filter selects vehicles by operating state and booking status names.
type Filter struct {
	State   string
	Booking string
}

type Store interface {
	SetVehicles([]model.VehicleSnapshot)
	Track(requestID string, callTime int64)
	Apply(events.Event)
	List(Filter) []VehicleStatus
	Get(vehicleID string) (VehicleStatus, bool)
	Requests(state string) []RequestStatus
}

type MemoryStore struct {
	mu       sync.RWMutex
	vehicles map[string]VehicleStatus
	requests map[string]RequestStatus
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vehicles: map[string]VehicleStatus{}, requests: map[string]RequestStatus{}}
}

// SetVehicles replaces the snapshot of every listed vehicle and keeps its
// last event.
func (s *MemoryStore) SetVehicles(snaps []model.VehicleSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range snaps {
		st := s.vehicles[snap.ID]
		st.VehicleSnapshot = snap
		s.vehicles[snap.ID] = st
	}
}

// Track registers a request that has not been offered yet.
func (s *MemoryStore) Track(requestID string, callTime int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[requestID]; ok {
		return
	}
	s.requests[requestID] = RequestStatus{
		RequestID: requestID,
		CallTime:  callTime,
		State:     model.RequestUnallocated.String(),
	}
}

// Apply updates the view with a dispatch event.
func (s *MemoryStore) Apply(ev events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch e := ev.(type) {
	case events.RequestAssigned:
		s.request(e.RequestID, e.At, model.RequestAllocated, func(r *RequestStatus) { r.VehicleID = e.VehicleID })
		s.vehicleEvent(e.VehicleID, "assigned "+e.RequestID, e.At)
	case events.RequestRejected:
		s.request(e.RequestID, e.At, model.RequestUnsuccessful, nil)
	case events.PassengerPickedUp:
		s.request(e.RequestID, e.At, model.RequestOnboard, func(r *RequestStatus) {
			w := e.WaitTime
			r.WaitTime = &w
		})
		s.vehicleEvent(e.VehicleID, "picked up "+e.RequestID, e.At)
	case events.PassengerDroppedOff:
		s.request(e.RequestID, e.At, model.RequestArrived, func(r *RequestStatus) {
			tt := e.TravelTime
			r.TravelTime = &tt
		})
		s.vehicleEvent(e.VehicleID, "dropped off "+e.RequestID, e.At)
	case events.VehicleStateChanged:
		st := s.vehicles[e.VehicleID]
		if e.At < st.Tick {
			// the snapshot is newer
			return
		}
		st.ID = e.VehicleID
		st.State, st.StateName = e.State, e.State.String()
		st.Booking, st.BookingName = e.Booking, e.Booking.String()
		s.vehicles[e.VehicleID] = st
	}
}

func (s *MemoryStore) request(id string, tick int64, state model.RequestState, update func(*RequestStatus)) {
	r := s.requests[id]
	r.RequestID = id
	r.State = state.String()
	r.UpdatedTick = tick
	if update != nil {
		update(&r)
	}
	s.requests[id] = r
}

func (s *MemoryStore) vehicleEvent(id, what string, tick int64) {
	st := s.vehicles[id]
	st.ID = id
	st.LastEvent = what
	st.LastEventTick = tick
	s.vehicles[id] = st
}

func (s *MemoryStore) List(f Filter) []VehicleStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]VehicleStatus, 0, len(s.vehicles))
	for _, st := range s.vehicles {
		if f.State != "" && st.StateName != f.State {
			continue
		}
		if f.Booking != "" && st.BookingName != f.Booking {
			continue
		}
		res = append(res, st)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (s *MemoryStore) Get(id string) (VehicleStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.vehicles[id]
	return st, ok
}

// Requests lists requests in the given state, or all when state is empty,
// ordered by call time then id.
func (s *MemoryStore) Requests(state string) []RequestStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]RequestStatus, 0, len(s.requests))
	for _, r := range s.requests {
		if state != "" && r.State != state {
			continue
		}
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CallTime != res[j].CallTime {
			return res[i].CallTime < res[j].CallTime
		}
		return res[i].RequestID < res[j].RequestID
	})
	return res
}

// Consume applies every event published on bus to store until ctx is
// canceled or the bus is closed. The returned channel is closed on exit.
func Consume(ctx context.Context, bus *eventbus.TypedBus[events.Event], store Store) <-chan struct{} {
	done := make(chan struct{})
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
				store.Apply(ev)
			}
		}
	}()
	return done
}
