package vehicles

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kilianp07/drt/core/metrics/kpi"
	vehiclestatus "github.com/kilianp07/drt/core/vehiclestatus"
	"github.com/kilianp07/drt/pkg/export"
)

// NewStatusHandler returns an HTTP handler exposing vehicle status data via
// GET /api/vehicles, optionally filtered by state and booking.
func NewStatusHandler(store vehiclestatus.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		f := vehiclestatus.Filter{
			State:   r.URL.Query().Get("state"),
			Booking: r.URL.Query().Get("booking"),
		}
		writeJSON(w, store.List(f))
	})
}

type vehicleDetail struct {
	vehiclestatus.VehicleStatus
	KPIs export.VehicleKPI `json:"kpis"`
}

// NewDetailHandler serves GET /api/vehicles/{id} with the vehicle status and
// its derived indicators. GET /api/vehicles/{id}/kpis is passed to the KPI
// history handler when history is set.
func NewDetailHandler(store vehiclestatus.Store, history kpi.Store) http.Handler {
	var kpis http.Handler
	if history != nil {
		kpis = NewKPIHandler(history)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/vehicles/"), "/")
		if kpis != nil && strings.HasSuffix(id, "/kpis") {
			kpis.ServeHTTP(w, r)
			return
		}
		if id == "" || strings.Contains(id, "/") {
			http.NotFound(w, r)
			return
		}
		st, ok := store.Get(id)
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, vehicleDetail{VehicleStatus: st, KPIs: export.KPIs(st.VehicleSnapshot)})
	})
}

// NewRequestHandler serves GET /api/requests?state=.
func NewRequestHandler(store vehiclestatus.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, store.Requests(r.URL.Query().Get("state")))
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
