package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// dialect captures what differs between the SQL backends.
type dialect struct {
	schema []string
	// bind returns the placeholder of the n-th argument, starting at 1.
	bind func(n int) string
}

var sqliteDialect = dialect{
	schema: []string{
		`CREATE TABLE IF NOT EXISTS dispatch_decisions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        tick INTEGER,
        request_id TEXT,
        vehicle_id TEXT,
        outcome TEXT,
        record TEXT
    );`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_tick ON dispatch_decisions(tick);`,
	},
	bind: func(int) string { return "?" },
}

var postgresDialect = dialect{
	schema: []string{
		`CREATE TABLE IF NOT EXISTS dispatch_decisions (
        id BIGSERIAL PRIMARY KEY,
        tick BIGINT,
        request_id TEXT,
        vehicle_id TEXT,
        outcome TEXT,
        record JSONB
    );`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_tick ON dispatch_decisions(tick);`,
	},
	bind: func(n int) string { return "$" + strconv.Itoa(n) },
}

// sqlStore keeps tick, request, vehicle and outcome as columns so queries
// filter in SQL; the full record is stored as JSON.
type sqlStore struct {
	db *sql.DB
	d  dialect
}

func newSQLStore(db *sql.DB, d dialect) (*sqlStore, error) {
	var err error
	for _, stmt := range d.schema {
		if _, err = db.Exec(stmt); err != nil {
			break
		}
	}
	if err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &sqlStore{db: db, d: d}, nil
}

// Append writes the record to the database.
func (s *sqlStore) Append(ctx context.Context, rec LogRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ph := make([]string, 5)
	for i := range ph {
		ph[i] = s.d.bind(i + 1)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO dispatch_decisions (tick, request_id, vehicle_id, outcome, record) VALUES (`+strings.Join(ph, ", ")+`)`,
		rec.Tick, rec.RequestID, rec.VehicleID, string(rec.Outcome), string(b))
	return err
}

// Query returns records matching q ordered by tick.
func (s *sqlStore) Query(ctx context.Context, q LogQuery) ([]LogRecord, error) {
	var args []any
	where := func(cond string, v any) string {
		args = append(args, v)
		return " AND " + cond + " " + s.d.bind(len(args))
	}
	args = append(args, q.FromTick)
	query := `SELECT record FROM dispatch_decisions WHERE tick >= ` + s.d.bind(1)
	if q.ToTick != 0 {
		query += where("tick <=", q.ToTick)
	}
	if q.RequestID != "" {
		query += where("request_id =", q.RequestID)
	}
	if q.VehicleID != "" {
		query += where("vehicle_id =", q.VehicleID)
	}
	if q.Outcome != "" {
		query += where("outcome =", string(q.Outcome))
	}
	query += ` ORDER BY tick, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []LogRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r LogRecord
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *sqlStore) Close() error { return s.db.Close() }
