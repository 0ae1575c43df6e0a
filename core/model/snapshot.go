package model

// VehicleStats holds the cumulative counters of a vehicle.
type VehicleStats struct {
	TotalDistance    float64 `json:"total_distance"`
	SharedDistance   float64 `json:"shared_distance"`
	DeadheadDistance float64 `json:"deadhead_distance"`

	// OccupiedTime is the summed onboard time of every passenger served.
	OccupiedTime     int64 `json:"occupied_time"`
	PassengersServed int   `json:"passengers_served"`
}

// NextStop is the head of a vehicle plan as exposed to readers.
type NextStop struct {
	Kind      string   `json:"kind"`
	RequestID string   `json:"request_id,omitempty"`
	Location  Location `json:"location"`
}

// VehicleSnapshot is a read-only view of a vehicle used by reports, metrics
// and the status API.
type VehicleSnapshot struct {
	ID          string         `json:"vehicle_id"`
	Tick        int64          `json:"tick"`
	State       OperatingState `json:"-"`
	Booking     BookingStatus  `json:"-"`
	StateName   string         `json:"state"`
	BookingName string         `json:"booking"`
	Capacity    int            `json:"capacity"`
	Passengers  int            `json:"passengers"`
	PlanLength  int            `json:"plan_length"`
	Position    Location       `json:"position"`
	NextStop    *NextStop      `json:"next_stop,omitempty"`
	ShiftEnd    int64          `json:"shift_end"`

	// ActiveUntil is the shift end, or the tick at which the vehicle left
	// the simulation when that happened earlier.
	ActiveUntil int64        `json:"active_until"`
	Stats       VehicleStats `json:"stats"`
}
