package kpi

import (
	"database/sql"
	"time"

	core "github.com/kilianp07/drt/core/metrics/kpi"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists KPI records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ core.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS vehicle_kpi (
        run_id TEXT,
        vehicle_id TEXT,
        ts INTEGER,
        passengers INTEGER,
        distance REAL,
        avg_occupancy REAL,
        trips_per_km REAL,
        shared_ratio REAL,
        deadhead_ratio REAL,
        PRIMARY KEY(run_id, vehicle_id)
    );`
	index := `CREATE INDEX IF NOT EXISTS idx_vehicle_kpi_vehicle ON vehicle_kpi(vehicle_id, ts);`
	for _, stmt := range []string{schema, index} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Add inserts or replaces the record of a run and vehicle.
func (s *SQLiteStore) Add(r core.Record) error {
	_, err := s.db.Exec(`INSERT INTO vehicle_kpi (run_id, vehicle_id, ts, passengers, distance,
            avg_occupancy, trips_per_km, shared_ratio, deadhead_ratio)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(run_id, vehicle_id) DO UPDATE SET
            ts = excluded.ts,
            passengers = excluded.passengers,
            distance = excluded.distance,
            avg_occupancy = excluded.avg_occupancy,
            trips_per_km = excluded.trips_per_km,
            shared_ratio = excluded.shared_ratio,
            deadhead_ratio = excluded.deadhead_ratio`,
		r.RunID, r.VehicleID, r.Date.UnixNano(), r.Passengers, r.Distance,
		r.AvgOccupancy, r.TripsPerKm, r.SharedRatio, r.DeadheadRatio)
	return err
}

// Query returns the records of vehicleID dated within the days of start
// and end, oldest first.
func (s *SQLiteStore) Query(vehicleID string, start, end time.Time) ([]core.Record, error) {
	start, end = core.Range(start, end)
	rows, err := s.db.Query(`SELECT run_id, vehicle_id, ts, passengers, distance,
            avg_occupancy, trips_per_km, shared_ratio, deadhead_ratio
        FROM vehicle_kpi WHERE vehicle_id = ? AND ts >= ? AND ts <= ? ORDER BY ts, run_id`,
		vehicleID, start.UnixNano(), end.UnixNano())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []core.Record
	for rows.Next() {
		var r core.Record
		var ts int64
		if err := rows.Scan(&r.RunID, &r.VehicleID, &ts, &r.Passengers, &r.Distance,
			&r.AvgOccupancy, &r.TripsPerKm, &r.SharedRatio, &r.DeadheadRatio); err != nil {
			return nil, err
		}
		r.Date = time.Unix(0, ts).UTC()
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
