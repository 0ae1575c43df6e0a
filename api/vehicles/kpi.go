package vehicles

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kilianp07/drt/core/metrics/kpi"
)

// NewKPIHandler exposes the per run KPI history via GET /api/vehicles/{id}/kpis.
// start and end are RFC3339 dates; end defaults to today.
func NewKPIHandler(store kpi.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, "/api/vehicles/")
		parts := strings.Split(path, "/")
		if len(parts) < 2 || parts[1] != "kpis" {
			http.NotFound(w, r)
			return
		}
		id := parts[0]
		start, _ := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
		end, _ := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
		recs, err := store.Query(id, start, end)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		type out struct {
			Runs       []kpi.Record `json:"runs"`
			Passengers int          `json:"passengers"`
			Distance   float64      `json:"distance_m"`
			TripsPerKm float64      `json:"trips_per_km"`
		}
		res := out{Runs: recs}
		if res.Runs == nil {
			res.Runs = []kpi.Record{}
		}
		res.Passengers, res.Distance, res.TripsPerKm = kpi.Totals(recs)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	})
}
