// Package network defines the contract between the dispatcher and the
// traffic simulation that moves the vehicles.
//
// All calls are synchronous and expected to succeed. Implementations that are
// not safe for concurrent use must be driven from a single goroutine, which is
// how the dispatcher uses them.
package network

import (
	"time"

	"github.com/kilianp07/drt/core/model"
)

// Router answers travel queries between two locations.
type Router interface {
	// TravelTime returns the travel time in seconds. Unreachable pairs return
	// +Inf.
	TravelTime(from, to model.Location) float64
	// Distance returns the road distance in metres.
	Distance(from, to model.Location) float64
}

// Network is the full collaborator used by the dispatcher.
type Network interface {
	Router
	// Position returns the current position of the vehicle.
	Position(vehicleID string) model.Location
	// Reroute sets a new travel target link for the vehicle.
	Reroute(vehicleID, link string)
	// ScheduleStop instructs the vehicle to hold at loc for d. A zero
	// duration releases a previous hold at the same location.
	ScheduleStop(vehicleID string, loc model.Location, d time.Duration)
}

// Observation is what a simulator reports after one step.
type Observation struct {
	// Time is the tick the simulation reached.
	Time int64
	// Departed lists vehicles that entered the network during the step.
	Departed []string
	// Arrived lists vehicles that left the network during the step.
	Arrived []string
}

// Simulator is a Network that is driven step by step by the dispatcher.
type Simulator interface {
	Network
	// Step advances the simulation by one tick.
	Step() Observation
	// Active reports whether vehicles are still running or still expected.
	Active() bool
}
