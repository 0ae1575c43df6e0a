// Package kpihistory feeds the KPI history from finished runs and from
// vehicle reports written by earlier runs.
package kpihistory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/drt/core/metrics/kpi"
	"github.com/kilianp07/drt/core/model"
	"github.com/kilianp07/drt/pkg/export"
)

// ErrNotVehicleReport is returned when a file does not carry the vehicle
// report columns.
var ErrNotVehicleReport = errors.New("not a vehicle report")

// FromSnapshots builds one record per vehicle of a finished run.
func FromSnapshots(runID string, at time.Time, snaps []model.VehicleSnapshot) []kpi.Record {
	out := make([]kpi.Record, 0, len(snaps))
	for _, v := range snaps {
		k := export.KPIs(v)
		out = append(out, kpi.Record{
			RunID:         runID,
			VehicleID:     v.ID,
			Date:          at,
			Passengers:    v.Stats.PassengersServed,
			Distance:      v.Stats.TotalDistance,
			AvgOccupancy:  k.AvgOccupancy,
			TripsPerKm:    k.TripsPerKm,
			SharedRatio:   k.SharedRatio,
			DeadheadRatio: k.DeadheadRatio,
		})
	}
	return out
}

// Record stores the indicators of every vehicle of a finished run.
func Record(store kpi.Store, runID string, at time.Time, snaps []model.VehicleSnapshot) error {
	for _, rec := range FromSnapshots(runID, at, snaps) {
		if err := store.Add(rec); err != nil {
			return fmt.Errorf("kpi %s/%s: %w", runID, rec.VehicleID, err)
		}
	}
	return nil
}

// RunID extracts the run id from a vehicle report file name.
func RunID(path string) (string, bool) {
	return strings.CutSuffix(filepath.Base(path), export.VehicleFile(""))
}

var columns = []string{
	"vehicleId", "totalPassengers", "totalDistance", "avgOccupancy",
	"tripsPerDistanceUnit", "sharedProportion", "deadheadProportion",
}

// Backfill reads a vehicle report and adds its rows to store, dated at.
// It returns the number of records added.
func Backfill(store kpi.Store, runID string, at time.Time, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotVehicleReport, err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[h] = i
	}
	for _, c := range columns {
		if _, ok := idx[c]; !ok {
			return 0, fmt.Errorf("%w: missing column %s", ErrNotVehicleReport, c)
		}
	}
	n := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		rec, err := parseRow(row, idx)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		rec.RunID, rec.Date = runID, at
		if err := store.Add(rec); err != nil {
			return n, err
		}
		n++
	}
}

func parseRow(row []string, idx map[string]int) (kpi.Record, error) {
	rec := kpi.Record{VehicleID: row[idx["vehicleId"]]}
	p, err := strconv.Atoi(row[idx["totalPassengers"]])
	if err != nil {
		return rec, err
	}
	rec.Passengers = p
	floats := []struct {
		col string
		dst *float64
	}{
		{"totalDistance", &rec.Distance},
		{"avgOccupancy", &rec.AvgOccupancy},
		{"tripsPerDistanceUnit", &rec.TripsPerKm},
		{"sharedProportion", &rec.SharedRatio},
		{"deadheadProportion", &rec.DeadheadRatio},
	}
	for _, f := range floats {
		v, err := strconv.ParseFloat(row[idx[f.col]], 64)
		if err != nil {
			return rec, fmt.Errorf("%s: %w", f.col, err)
		}
		*f.dst = v
	}
	return rec, nil
}
