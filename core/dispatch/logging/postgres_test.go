package logging

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drt/core/factory"
)

func TestPostgresDialectPlaceholders(t *testing.T) {
	assert.Equal(t, "$1", postgresDialect.bind(1))
	assert.Equal(t, "$12", postgresDialect.bind(12))
	assert.Equal(t, "?", sqliteDialect.bind(3))
}

func TestNewStore_PostgresRequiresURL(t *testing.T) {
	_, err := NewStore(factory.ModuleConfig{Type: "postgres"})
	assert.Error(t, err)
}

func TestPostgresStore_PersistQuery(t *testing.T) {
	url := os.Getenv("DRT_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("DRT_TEST_POSTGRES_URL not set")
	}
	store, err := NewPostgresStore(url)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx := context.Background()
	_, err = store.db.ExecContext(ctx, `DELETE FROM dispatch_decisions WHERE request_id LIKE 'pgtest-%'`)
	require.NoError(t, err)

	require.NoError(t, store.Append(ctx, LogRecord{Tick: 5, RequestID: "pgtest-1", Outcome: OutcomeAssigned, VehicleID: "v1"}))
	require.NoError(t, store.Append(ctx, LogRecord{Tick: 6, RequestID: "pgtest-2", Outcome: OutcomeRejected}))

	out, err := store.Query(ctx, LogQuery{RequestID: "pgtest-1", Outcome: OutcomeAssigned})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "v1", out[0].VehicleID)
}
