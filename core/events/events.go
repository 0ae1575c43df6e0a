package events

import "github.com/kilianp07/drt/core/model"

// Event is implemented by every dispatch event.
type Event interface {
	// EventTick returns the simulation tick at which the event happened.
	EventTick() int64
}

// RequestAssigned is published when a request is inserted into a plan.
type RequestAssigned struct {
	At           int64
	RequestID    string
	VehicleID    string
	PickupIndex  int
	DropoffIndex int
	Penalty      float64
	Marginal     float64
}

// RequestRejected is published when no vehicle has a feasible insertion.
type RequestRejected struct {
	At         int64
	RequestID  string
	Candidates int
}

// PassengerPickedUp is published when a vehicle serves a pickup stop.
type PassengerPickedUp struct {
	At        int64
	RequestID string
	VehicleID string
	WaitTime  int64
}

// PassengerDroppedOff is published when a vehicle serves a dropoff stop.
type PassengerDroppedOff struct {
	At         int64
	RequestID  string
	VehicleID  string
	TravelTime int64
	Distance   float64
}

// VehicleStateChanged is published on operating state or booking changes.
type VehicleStateChanged struct {
	At        int64
	VehicleID string
	State     model.OperatingState
	Booking   model.BookingStatus
}

func (e RequestAssigned) EventTick() int64     { return e.At }
func (e RequestRejected) EventTick() int64     { return e.At }
func (e PassengerPickedUp) EventTick() int64   { return e.At }
func (e PassengerDroppedOff) EventTick() int64 { return e.At }
func (e VehicleStateChanged) EventTick() int64 { return e.At }
