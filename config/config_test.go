package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := write(t, "config.yaml", `dispatch:
  capacity: 4
  shift_end: 1800
network:
  grid:
    rows: 3
    cols: 4
  vehicles:
    - id: bus1
      depart: 1
      link: r0c0-r0c1
metrics:
  sinks:
    - type: "nop"
  prometheus_addr: ":9100"
logging:
  backend: sqlite
  path: decisions.db
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
run:
  requests: requests.csv
  run_id: r1
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Dispatch.Capacity)
	assert.Equal(t, int64(1800), cfg.Dispatch.ShiftEnd)
	assert.Equal(t, 2000, cfg.Dispatch.DwellTimeMS)
	assert.Equal(t, 3, cfg.Network.Grid.Rows)
	assert.Equal(t, 500.0, cfg.Network.Grid.LinkLength)
	require.Len(t, cfg.Network.Vehicles, 1)
	assert.Equal(t, "r0c0-r0c1", cfg.Network.Vehicles[0].Link)
	require.Len(t, cfg.Metrics.Sinks, 1)
	assert.Equal(t, "nop", cfg.Metrics.Sinks[0].Type)
	assert.Equal(t, "sqlite", cfg.Logging.Backend)
	assert.Equal(t, "drt", cfg.MQTT.TopicPrefix)
	assert.Equal(t, "r1", cfg.Run.RunID)
	assert.Equal(t, ".", cfg.Run.OutputDir)
	assert.Equal(t, int64(3600), cfg.Run.MaxTicks)
}

func TestLoad_JSONAndEnvOverride(t *testing.T) {
	path := write(t, "config.json", `{"run": {"requests": "r.csv"}}`)
	t.Setenv("K_DISPATCH__CAPACITY", "3")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Dispatch.Capacity)
	assert.Equal(t, "jsonl", cfg.Logging.Backend)
	assert.NotEmpty(t, cfg.Run.RunID)
	assert.Equal(t, int64(7320), cfg.Run.MaxTicks)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(write(t, "config.toml", ""))
	assert.Error(t, err)

	_, err = Load(write(t, "missing_requests.yaml", "dispatch:\n  capacity: 2\n"))
	assert.Error(t, err)

	_, err = Load(write(t, "bad_backend.yaml", "run:\n  requests: r.csv\nlogging:\n  backend: kafka\n"))
	assert.Error(t, err)

	_, err = Load(write(t, "bad_mqtt.yaml", "run:\n  requests: r.csv\nmqtt:\n  enabled: true\n"))
	assert.Error(t, err)

	_, err = Load(write(t, "bad_capacity.yaml", "run:\n  requests: r.csv\ndispatch:\n  capacity: -1\n"))
	assert.Error(t, err)
}

func TestLoggingConfig_Module(t *testing.T) {
	c := LoggingConfig{Backend: "rotating", Path: "d.jsonl", MaxSizeMB: 5}
	require.NoError(t, c.Validate())
	m := c.Module()
	assert.Equal(t, "rotating", m.Type)
	assert.Equal(t, "d.jsonl", m.Conf["path"])
	assert.Equal(t, 5, m.Conf["max_size_mb"])

	pg := LoggingConfig{Backend: "postgres"}
	pg.SetDefaults()
	assert.Empty(t, pg.Path)
	assert.Error(t, pg.Validate())
	pg.DatabaseURL = "postgres://localhost/drt"
	assert.Equal(t, "postgres://localhost/drt", pg.Module().Conf["database_url"])
}
