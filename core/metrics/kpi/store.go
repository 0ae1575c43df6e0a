// Package kpi keeps the per vehicle indicators of past runs.
package kpi

import "time"

// Store persists KPI records. Adding a record for a run and vehicle that
// already exist replaces it.
type Store interface {
	Add(Record) error
	Query(vehicleID string, start, end time.Time) ([]Record, error)
}

// Day aligns t to the start of its day in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Range returns the day aligned query window; a zero end means today.
func Range(start, end time.Time) (time.Time, time.Time) {
	if end.IsZero() {
		end = time.Now()
	}
	return Day(start), Day(end).Add(24*time.Hour - time.Nanosecond)
}
