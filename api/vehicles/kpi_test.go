package vehicles

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drt/core/metrics/kpi"
)

func TestKPIHandler(t *testing.T) {
	store := kpi.NewMemoryStore()
	day := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Add(kpi.Record{RunID: "r1", VehicleID: "v1", Date: day, Passengers: 2, Distance: 1000}))
	require.NoError(t, store.Add(kpi.Record{RunID: "r2", VehicleID: "v1", Date: day.Add(time.Hour), Passengers: 2, Distance: 3000}))

	h := NewDetailHandler(seeded(), store)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/vehicles/v1/kpis?start=2024-01-01T00:00:00Z&end=2024-01-03T00:00:00Z", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var out struct {
		Runs       []kpi.Record `json:"runs"`
		Passengers int          `json:"passengers"`
		TripsPerKm float64      `json:"trips_per_km"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out.Runs, 2)
	assert.Equal(t, "r1", out.Runs[0].RunID)
	assert.Equal(t, 4, out.Passengers)
	assert.InDelta(t, 1, out.TripsPerKm, 1e-9)
}

func TestKPIHandler_Empty(t *testing.T) {
	h := NewKPIHandler(kpi.NewMemoryStore())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/vehicles/v9/kpis", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"runs":[]`)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/vehicles/v9/other", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDetailHandler_KPIsWithoutHistory(t *testing.T) {
	h := NewDetailHandler(seeded(), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/vehicles/v1/kpis", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
