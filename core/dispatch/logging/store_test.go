package logging

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drt/core/factory"
)

func TestLogRecord_JSON(t *testing.T) {
	data, err := json.Marshal(LogRecord{Tick: 4, RequestID: "p1", Outcome: OutcomeAssigned, VehicleID: "v1"})
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, k := range []string{"timestamp", "tick", "request_id", "outcome", "vehicle_id", "marginal", "candidates"} {
		assert.Contains(t, m, k)
	}
}

func TestLogQuery_Match(t *testing.T) {
	r := LogRecord{Tick: 10, RequestID: "p1", VehicleID: "v1", Outcome: OutcomeAssigned}
	assert.True(t, LogQuery{}.Match(r))
	assert.True(t, LogQuery{FromTick: 10, ToTick: 10}.Match(r))
	assert.False(t, LogQuery{FromTick: 11}.Match(r))
	assert.False(t, LogQuery{ToTick: 9}.Match(r))
	assert.False(t, LogQuery{RequestID: "p2"}.Match(r))
	assert.False(t, LogQuery{Outcome: OutcomeRejected}.Match(r))
}

func TestJSONLStore_Query(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "d.jsonl"))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, LogRecord{Tick: 1, RequestID: "p1", Outcome: OutcomeRejected}))
	require.NoError(t, store.Append(ctx, LogRecord{Tick: 2, RequestID: "p2", Outcome: OutcomeAssigned, VehicleID: "v1"}))
	out, err := store.Query(ctx, LogQuery{RequestID: "p2"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "v1", out[0].VehicleID)
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(factory.ModuleConfig{})
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, s)

	s, err = NewStore(factory.ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": filepath.Join(t.TempDir(), "x.jsonl")}})
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)

	_, err = NewStore(factory.ModuleConfig{Type: "sqlite"})
	assert.Error(t, err)

	_, err = NewStore(factory.ModuleConfig{Type: "missing"})
	assert.Error(t, err)
}
