package dispatch

import (
	"fmt"
	"time"

	"github.com/kilianp07/drt/core/model"
)

// Config defines the dispatch and vehicle operating parameters.
type Config struct {
	// Capacity is the number of seats of every vehicle.
	Capacity int `json:"capacity"`
	// ShiftEnd is the tick by which vehicles must be back at the depot.
	ShiftEnd int64 `json:"shift_end"`
	// StopTolerance is how far short of a stop, in metres, a vehicle may be
	// and still serve it.
	StopTolerance float64 `json:"stop_tolerance"`
	// ParkOffset moves the parking spot ahead of the idle position so a
	// parked vehicle does not block a stop used by others.
	ParkOffset float64 `json:"park_offset"`
	// DwellTimeMS is the hold issued at each pickup or dropoff.
	DwellTimeMS int `json:"dwell_time_ms"`
	// LargeDistance discards distance increments at or above this value.
	LargeDistance float64 `json:"large_distance"`
	// MinDirectTime floors the direct travel time used by the lateness
	// penalty.
	MinDirectTime float64 `json:"min_direct_time"`
	// DepotLink and DepotOffset override the depot location. When DepotLink
	// is empty each vehicle returns to where it entered the simulation.
	DepotLink   string  `json:"depot_link"`
	DepotOffset float64 `json:"depot_offset"`
}

// SetDefaults applies the operating defaults of the service.
func (c *Config) SetDefaults() {
	if c.Capacity == 0 {
		c.Capacity = 10
	}
	if c.ShiftEnd == 0 {
		c.ShiftEnd = 3660
	}
	if c.StopTolerance == 0 {
		c.StopTolerance = 20
	}
	if c.ParkOffset == 0 {
		c.ParkOffset = 60
	}
	if c.DwellTimeMS == 0 {
		c.DwellTimeMS = 2000
	}
	if c.LargeDistance == 0 {
		c.LargeDistance = 1_000_000
	}
	if c.MinDirectTime == 0 {
		c.MinDirectTime = 1
	}
}

// Validate checks the configuration for values the engine cannot work with.
func (c Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1, got %d", c.Capacity)
	}
	if c.ShiftEnd <= 0 {
		return fmt.Errorf("shift_end must be positive")
	}
	if c.StopTolerance < 0 || c.ParkOffset < 0 {
		return fmt.Errorf("stop_tolerance and park_offset must not be negative")
	}
	if c.MinDirectTime <= 0 {
		return fmt.Errorf("min_direct_time must be positive")
	}
	return nil
}

// DwellTime returns the dwell duration issued at served stops.
func (c Config) DwellTime() time.Duration {
	return time.Duration(c.DwellTimeMS) * time.Millisecond
}

// depot returns the depot location for a vehicle that entered at entry.
func (c Config) depot(entry model.Location) model.Location {
	if c.DepotLink == "" {
		return entry
	}
	return model.Location{Link: c.DepotLink, Offset: c.DepotOffset}
}
