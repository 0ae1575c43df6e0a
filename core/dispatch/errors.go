package dispatch

import "errors"

var (
	// ErrUnknownRequest is returned when a request identity is not in the pool.
	ErrUnknownRequest = errors.New("unknown request")
	// ErrUnknownVehicle is returned when a vehicle identity is not in the fleet.
	ErrUnknownVehicle = errors.New("unknown vehicle")
	// ErrDuplicate is returned when an identity is registered twice.
	ErrDuplicate = errors.New("duplicate identity")
)
