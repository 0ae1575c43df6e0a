package model

import "fmt"

// OperatingState tracks the shift progress of a vehicle.
type OperatingState int

const (
	VehicleNotStarted OperatingState = iota
	VehicleRunning
	VehicleGoingHome
	VehicleStopped
)

func (s OperatingState) String() string {
	switch s {
	case VehicleNotStarted:
		return "not_started"
	case VehicleRunning:
		return "running"
	case VehicleGoingHome:
		return "going_home"
	case VehicleStopped:
		return "stopped"
	default:
		return fmt.Sprintf("OperatingState(%d)", int(s))
	}
}

// CanTransition reports whether the operating state may move to next.
// Transitions only move forward; Stopped is reachable from anywhere.
func (s OperatingState) CanTransition(next OperatingState) bool {
	if next == VehicleStopped {
		return s != VehicleStopped
	}
	switch s {
	case VehicleNotStarted:
		return next == VehicleRunning
	case VehicleRunning:
		return next == VehicleGoingHome
	}
	return false
}

// Dispatchable reports whether a vehicle in this state can accept new
// requests.
func (s OperatingState) Dispatchable() bool {
	return s == VehicleNotStarted || s == VehicleRunning
}

// BookingStatus tracks what the vehicle is doing within its shift.
type BookingStatus int

const (
	BookingVacant BookingStatus = iota
	BookingBooked
	BookingEngaged
	BookingParked
)

func (b BookingStatus) String() string {
	switch b {
	case BookingVacant:
		return "vacant"
	case BookingBooked:
		return "booked"
	case BookingEngaged:
		return "engaged"
	case BookingParked:
		return "parked"
	default:
		return fmt.Sprintf("BookingStatus(%d)", int(b))
	}
}
