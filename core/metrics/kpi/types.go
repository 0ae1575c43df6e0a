package kpi

import "time"

// Record holds the indicators of one vehicle over one run.
type Record struct {
	RunID         string    `json:"run_id"`
	VehicleID     string    `json:"vehicle_id"`
	Date          time.Time `json:"date"`
	Passengers    int       `json:"passengers"`
	Distance      float64   `json:"distance_m"`
	AvgOccupancy  float64   `json:"avg_occupancy"`
	TripsPerKm    float64   `json:"trips_per_km"`
	SharedRatio   float64   `json:"shared_ratio"`
	DeadheadRatio float64   `json:"deadhead_ratio"`
}

// Totals sums passengers and distance over records and recomputes the
// trips per km of the aggregate.
func Totals(recs []Record) (passengers int, distance, tripsPerKm float64) {
	for _, r := range recs {
		passengers += r.Passengers
		distance += r.Distance
	}
	if distance > 0 {
		tripsPerKm = float64(passengers) / distance * 1000
	}
	return passengers, distance, tripsPerKm
}
