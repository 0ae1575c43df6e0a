package kpi

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/kilianp07/drt/core/metrics/kpi"
)

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kpi.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Add(core.Record{RunID: "r1", VehicleID: "v1", Date: now, Passengers: 2, Distance: 1500, SharedRatio: 0.2}))
	require.NoError(t, s.Add(core.Record{RunID: "r1", VehicleID: "v1", Date: now, Passengers: 4, Distance: 2000, SharedRatio: 0.5}))
	require.NoError(t, s.Add(core.Record{RunID: "r2", VehicleID: "v1", Date: now.Add(time.Minute), Passengers: 1}))
	require.NoError(t, s.Add(core.Record{RunID: "r1", VehicleID: "v2", Date: now}))
	require.NoError(t, s.Add(core.Record{RunID: "old", VehicleID: "v1", Date: now.Add(-72 * time.Hour)}))

	recs, err := s.Query("v1", now, now)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "r1", recs[0].RunID)
	assert.Equal(t, 4, recs[0].Passengers)
	assert.InDelta(t, 0.5, recs[0].SharedRatio, 1e-9)
	assert.Equal(t, now.UnixNano(), recs[0].Date.UnixNano())
	assert.Equal(t, "r2", recs[1].RunID)

	recs, err = s.Query("v1", now.Add(-96*time.Hour), time.Time{})
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}
