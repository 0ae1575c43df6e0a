package metrics

import "github.com/kilianp07/drt/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr enables the /metrics endpoint when set.
	PrometheusAddr string `json:"prometheus_addr"`
	// SnapshotInterval is the number of ticks between fleet snapshots sent
	// to sinks that record them.
	SnapshotInterval int64 `json:"snapshot_interval"`
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.SnapshotInterval == 0 {
		c.SnapshotInterval = 60
	}
}
