package model

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a lifecycle change is not allowed
// from the current state.
var ErrInvalidTransition = errors.New("invalid state transition")

// RequestState is the lifecycle state of a trip request.
type RequestState int

const (
	RequestUnallocated RequestState = iota
	RequestAllocated
	RequestOnboard
	RequestArrived
	RequestUnsuccessful
)

func (s RequestState) String() string {
	switch s {
	case RequestUnallocated:
		return "unallocated"
	case RequestAllocated:
		return "allocated"
	case RequestOnboard:
		return "onboard"
	case RequestArrived:
		return "arrived"
	case RequestUnsuccessful:
		return "unsuccessful"
	default:
		return fmt.Sprintf("RequestState(%d)", int(s))
	}
}

// CanTransition reports whether a request may move from s to next.
func (s RequestState) CanTransition(next RequestState) bool {
	switch s {
	case RequestUnallocated:
		return next == RequestAllocated || next == RequestUnsuccessful
	case RequestAllocated:
		return next == RequestOnboard
	case RequestOnboard:
		return next == RequestArrived
	case RequestArrived, RequestUnsuccessful:
		return false
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s RequestState) Terminal() bool {
	return s == RequestArrived || s == RequestUnsuccessful
}

// Request is a point-to-point trip request.
type Request struct {
	ID string
	// CallTime is the tick at which the dispatcher learns about the request.
	CallTime int64
	// RequestTime is the raw submission tick; it is also the earliest pickup.
	RequestTime int64
	Origin      Stop
	Destination Stop
	State       RequestState

	PickupTime  *int64
	DropoffTime *int64

	// ActualDistance accumulates the distance travelled while onboard.
	ActualDistance float64
	// DirectDistance and DirectTime are the baseline values of travelling
	// straight from origin to destination, computed once at creation.
	DirectDistance float64
	DirectTime     float64
}

// NewRequest builds an unallocated request. The pickup stop carries the
// request time as its earliest service instant.
func NewRequest(id string, callTime, requestTime int64, origin, destination Location) *Request {
	return &Request{
		ID:          id,
		CallTime:    callTime,
		RequestTime: requestTime,
		Origin:      Stop{RequestID: id, Location: origin, Kind: StopPickup, EarliestService: Int64(requestTime)},
		Destination: Stop{RequestID: id, Location: destination, Kind: StopDropoff},
		State:       RequestUnallocated,
	}
}

// SetBaseline records the direct distance and travel time.
func (r *Request) SetBaseline(distance, travelTime float64) {
	r.DirectDistance = distance
	r.DirectTime = travelTime
}

func (r *Request) transition(next RequestState) error {
	if !r.State.CanTransition(next) {
		return fmt.Errorf("request %s: %w: %s -> %s", r.ID, ErrInvalidTransition, r.State, next)
	}
	r.State = next
	return nil
}

// Allocate marks the request as committed to a vehicle.
func (r *Request) Allocate() error {
	return r.transition(RequestAllocated)
}

// Reject marks the request as unsuccessful. It is terminal.
func (r *Request) Reject() error {
	return r.transition(RequestUnsuccessful)
}

// Board records the pickup at tick t.
func (r *Request) Board(t int64) error {
	if err := r.transition(RequestOnboard); err != nil {
		return err
	}
	r.PickupTime = Int64(t)
	return nil
}

// Alight records the dropoff at tick t.
func (r *Request) Alight(t int64) error {
	if r.PickupTime == nil {
		return fmt.Errorf("request %s: %w: dropoff without pickup", r.ID, ErrInvalidTransition)
	}
	if t < *r.PickupTime {
		return fmt.Errorf("request %s: dropoff %d before pickup %d", r.ID, t, *r.PickupTime)
	}
	if err := r.transition(RequestArrived); err != nil {
		return err
	}
	r.DropoffTime = Int64(t)
	return nil
}

// AddDistance accrues distance travelled onboard.
func (r *Request) AddDistance(d float64) {
	r.ActualDistance += d
}

// WaitTime is the time between call and pickup.
func (r *Request) WaitTime() (int64, bool) {
	if r.PickupTime == nil {
		return 0, false
	}
	return *r.PickupTime - r.CallTime, true
}

// TravelTime is the time spent onboard.
func (r *Request) TravelTime() (int64, bool) {
	if r.PickupTime == nil || r.DropoffTime == nil {
		return 0, false
	}
	return *r.DropoffTime - *r.PickupTime, true
}

// Lateness returns the penalty of dropping the request off at tick dropoff:
// the elapsed time since the call relative to the direct travel time. The
// direct time is floored at minDirect so zero-length trips stay finite.
func (r *Request) Lateness(dropoff int64, minDirect float64) float64 {
	direct := r.DirectTime
	if direct < minDirect {
		direct = minDirect
	}
	return float64(dropoff-r.CallTime) / direct
}
