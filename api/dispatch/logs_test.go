package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drt/core/dispatch/logging"
)

type memStore struct{ recs []logging.LogRecord }

func (m *memStore) Append(ctx context.Context, r logging.LogRecord) error {
	m.recs = append(m.recs, r)
	return nil
}

func (m *memStore) Query(ctx context.Context, q logging.LogQuery) ([]logging.LogRecord, error) {
	var res []logging.LogRecord
	for _, r := range m.recs {
		if q.Match(r) {
			res = append(res, r)
		}
	}
	return res, nil
}

func (m *memStore) Close() error { return nil }

func newStore(t *testing.T) *memStore {
	store := &memStore{}
	for _, r := range []logging.LogRecord{
		{Tick: 1, RequestID: "p1", Outcome: logging.OutcomeAssigned, VehicleID: "v1"},
		{Tick: 5, RequestID: "p2", Outcome: logging.OutcomeRejected},
		{Tick: 9, RequestID: "p3", Outcome: logging.OutcomeAssigned, VehicleID: "v2"},
	} {
		require.NoError(t, store.Append(context.Background(), r))
	}
	return store
}

func get(h http.Handler, url, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", url, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestLogHandler_AuthAndFilters(t *testing.T) {
	h := NewLogHandler(newStore(t), "tok")

	rr := get(h, "/api/dispatch/decisions?vehicle_id=v1", "tok")
	require.Equal(t, http.StatusOK, rr.Code)
	var out []logging.LogRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "p1", out[0].RequestID)

	rr = get(h, "/api/dispatch/decisions", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = get(h, "/api/dispatch/decisions", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogHandler_TickRangeAndOutcome(t *testing.T) {
	h := NewLogHandler(newStore(t), "")

	rr := get(h, "/api/dispatch/decisions?from_tick=2&to_tick=9&outcome=assigned", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var out []logging.LogRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "p3", out[0].RequestID)

	rr = get(h, "/api/dispatch/decisions?request_id=none", "")
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestLogHandler_BadParams(t *testing.T) {
	h := NewLogHandler(newStore(t), "")
	assert.Equal(t, http.StatusBadRequest, get(h, "/api/dispatch/decisions?from_tick=x", "").Code)
	assert.Equal(t, http.StatusBadRequest, get(h, "/api/dispatch/decisions?to_tick=1.5", "").Code)
	assert.Equal(t, http.StatusBadRequest, get(h, "/api/dispatch/decisions?outcome=maybe", "").Code)
}
