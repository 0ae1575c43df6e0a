package kpihistory

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drt/core/metrics/kpi"
	"github.com/kilianp07/drt/core/model"
	"github.com/kilianp07/drt/pkg/export"
)

var day = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func snapshots() []model.VehicleSnapshot {
	return []model.VehicleSnapshot{
		{ID: "v1", ActiveUntil: 100, Stats: model.VehicleStats{TotalDistance: 2000, SharedDistance: 500, OccupiedTime: 50, PassengersServed: 3}},
		{ID: "v2", ActiveUntil: 100},
	}
}

func TestRecord(t *testing.T) {
	store := kpi.NewMemoryStore()
	require.NoError(t, Record(store, "r1", day, snapshots()))
	recs, err := store.Query("v1", day, day)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 3, recs[0].Passengers)
	assert.InDelta(t, 1.5, recs[0].TripsPerKm, 1e-9)
	assert.InDelta(t, 0.25, recs[0].SharedRatio, 1e-9)
	assert.InDelta(t, 0.5, recs[0].AvgOccupancy, 1e-9)
}

func TestBackfillRoundTripsVehicleReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteVehicles(&buf, snapshots()))

	store := kpi.NewMemoryStore()
	n, err := Backfill(store, "past", day, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want := FromSnapshots("past", day, snapshots())
	got, err := store.Query("v1", day, day)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want[0], got[0])
}

func TestBackfillRejectsOtherFiles(t *testing.T) {
	store := kpi.NewMemoryStore()
	_, err := Backfill(store, "x", day, strings.NewReader("id,callTime\np1,3\n"))
	assert.ErrorIs(t, err, ErrNotVehicleReport)

	_, err = Backfill(store, "x", day, strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNotVehicleReport)

	bad := "vehicleId,totalPassengers,totalDistance,avgOccupancy,tripsPerDistanceUnit,sharedProportion,deadheadProportion\nv1,two,0,0,0,0,0\n"
	n, err := Backfill(store, "x", day, strings.NewReader(bad))
	assert.Error(t, err)
	assert.Zero(t, n)
}

func TestRunID(t *testing.T) {
	id, ok := RunID("/tmp/out/r42-vehicle.out.csv")
	assert.True(t, ok)
	assert.Equal(t, "r42", id)
	_, ok = RunID("r42-person.out.csv")
	assert.False(t, ok)
}
