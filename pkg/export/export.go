// Package export writes the end-of-run reports.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kilianp07/drt/core/model"
)

var (
	requestHeader = []string{
		"id", "callTime", "requestTime", "directDistance", "actualDistance",
		"directTime", "waitTime", "pickupTime", "travelTime", "dropoffTime",
		"excessTravelTime", "excessTime", "excessDistance", "state",
	}
	vehicleHeader = []string{
		"vehicleId", "totalPassengers", "totalDistance", "avgOccupancy",
		"tripsPerDistanceUnit", "sharedProportion", "deadheadProportion",
		"sharedDistance", "deadheadDistance",
	}
	summaryHeader = []string{"numVehicles", "passengersCarried", "totalDistance", "tripsPerDistanceUnit"}
)

// RequestFile, VehicleFile and SummaryFile name the reports of a run.
func RequestFile(runID string) string { return runID + "-person.out.csv" }
func VehicleFile(runID string) string { return runID + "-vehicle.out.csv" }
func SummaryFile(runID string) string { return runID + "-vehicle-summary.out.csv" }

// Summary aggregates the fleet report.
type Summary struct {
	Vehicles   int     `json:"num_vehicles"`
	Passengers int     `json:"passengers_carried"`
	Distance   float64 `json:"total_distance"`
	// TripsPerKm is passengers per 1000 distance units.
	TripsPerKm float64 `json:"trips_per_km"`
}

// Summarize computes the fleet summary from vehicle snapshots.
func Summarize(vehicles []model.VehicleSnapshot) Summary {
	s := Summary{Vehicles: len(vehicles)}
	for _, v := range vehicles {
		s.Passengers += v.Stats.PassengersServed
		s.Distance += v.Stats.TotalDistance
	}
	s.TripsPerKm = ratio(float64(s.Passengers), s.Distance) * 1000
	return s
}

// WriteRequests writes one row per request. Derived columns of requests
// that did not arrive are left empty.
func WriteRequests(w io.Writer, reqs []*model.Request) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(requestHeader); err != nil {
		return err
	}
	for _, r := range reqs {
		if err := cw.Write(requestRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func requestRow(r *model.Request) []string {
	row := []string{
		r.ID,
		fmtInt(r.CallTime),
		fmtInt(r.RequestTime),
		fmtFloat(r.DirectDistance),
		fmtFloat(r.ActualDistance),
		fmtFloat(r.DirectTime),
		"", "", "", "", "", "", "",
		r.State.String(),
	}
	if wait, ok := r.WaitTime(); ok {
		row[6] = fmtInt(wait)
		row[7] = fmtInt(*r.PickupTime)
	}
	if travel, ok := r.TravelTime(); ok {
		wait, _ := r.WaitTime()
		row[8] = fmtInt(travel)
		row[9] = fmtInt(*r.DropoffTime)
		if r.State == model.RequestArrived {
			row[10] = fmtFloat(float64(travel) - r.DirectTime)
			row[11] = fmtFloat(float64(wait+travel) - r.DirectTime)
			row[12] = fmtFloat(r.ActualDistance - r.DirectDistance)
		}
	}
	return row
}

// VehicleKPI holds the derived per-vehicle indicators of the vehicle report.
type VehicleKPI struct {
	AvgOccupancy  float64 `json:"avg_occupancy"`
	TripsPerKm    float64 `json:"trips_per_km"`
	SharedRatio   float64 `json:"shared_ratio"`
	DeadheadRatio float64 `json:"deadhead_ratio"`
}

// KPIs derives the indicators of v. Vehicles that did not move report zero
// ratios.
func KPIs(v model.VehicleSnapshot) VehicleKPI {
	st := v.Stats
	return VehicleKPI{
		AvgOccupancy:  ratio(float64(st.OccupiedTime), float64(v.ActiveUntil)),
		TripsPerKm:    ratio(float64(st.PassengersServed), st.TotalDistance) * 1000,
		SharedRatio:   ratio(st.SharedDistance, st.TotalDistance),
		DeadheadRatio: ratio(st.DeadheadDistance, st.TotalDistance),
	}
}

// WriteVehicles writes one row per vehicle.
func WriteVehicles(w io.Writer, vehicles []model.VehicleSnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(vehicleHeader); err != nil {
		return err
	}
	for _, v := range vehicles {
		st, k := v.Stats, KPIs(v)
		rec := []string{
			v.ID,
			strconv.Itoa(st.PassengersServed),
			fmtFloat(st.TotalDistance),
			fmtFloat(k.AvgOccupancy),
			fmtFloat(k.TripsPerKm),
			fmtFloat(k.SharedRatio),
			fmtFloat(k.DeadheadRatio),
			fmtFloat(st.SharedDistance),
			fmtFloat(st.DeadheadDistance),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummary writes the fleet totals of s as a one-row CSV.
func WriteSummary(w io.Writer, s Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return err
	}
	if err := cw.Write([]string{
		strconv.Itoa(s.Vehicles),
		strconv.Itoa(s.Passengers),
		fmtFloat(s.Distance),
		fmtFloat(s.TripsPerKm),
	}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteReports writes the request, vehicle and summary files of runID into
// dir and returns their paths.
func WriteReports(dir, runID string, reqs []*model.Request, vehicles []model.VehicleSnapshot) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{RequestFile(runID), func(w io.Writer) error { return WriteRequests(w, reqs) }},
		{VehicleFile(runID), func(w io.Writer) error { return WriteVehicles(w, vehicles) }},
		{SummaryFile(runID), func(w io.Writer) error { return WriteSummary(w, Summarize(vehicles)) }},
	}
	var paths []string
	for _, f := range files {
		p := filepath.Join(dir, f.name)
		if err := writeFile(p, f.write); err != nil {
			return paths, fmt.Errorf("write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func fmtInt(v int64) string     { return strconv.FormatInt(v, 10) }
func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
