package logging

import (
	"context"
	"time"
)

// Outcome of offering a request to the fleet.
type Outcome string

const (
	OutcomeAssigned Outcome = "assigned"
	OutcomeRejected Outcome = "rejected"
)

// LogRecord captures one dispatch decision.
type LogRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	RunID        string    `json:"run_id,omitempty"`
	Tick         int64     `json:"tick"`
	RequestID    string    `json:"request_id"`
	CallTime     int64     `json:"call_time"`
	Outcome      Outcome   `json:"outcome"`
	VehicleID    string    `json:"vehicle_id,omitempty"`
	PickupIndex  int       `json:"pickup_index"`
	DropoffIndex int       `json:"dropoff_index"`
	Penalty      float64   `json:"penalty"`
	Marginal     float64   `json:"marginal"`
	Candidates   int       `json:"candidates"`
}

// LogQuery defines filters for retrieving records. Zero values do not
// filter; ToTick is inclusive and ignored when zero.
type LogQuery struct {
	FromTick  int64
	ToTick    int64
	RequestID string
	VehicleID string
	Outcome   Outcome
}

// Match reports whether r satisfies the query.
func (q LogQuery) Match(r LogRecord) bool {
	if r.Tick < q.FromTick {
		return false
	}
	if q.ToTick != 0 && r.Tick > q.ToTick {
		return false
	}
	if q.RequestID != "" && r.RequestID != q.RequestID {
		return false
	}
	if q.VehicleID != "" && r.VehicleID != q.VehicleID {
		return false
	}
	if q.Outcome != "" && r.Outcome != q.Outcome {
		return false
	}
	return true
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}

// NopStore discards every record.
type NopStore struct{}

func (NopStore) Append(context.Context, LogRecord) error              { return nil }
func (NopStore) Query(context.Context, LogQuery) ([]LogRecord, error) { return nil, nil }
func (NopStore) Close() error                                         { return nil }
