// Package metrics defines the sink interfaces used to observe a dispatch
// run. Sinks record assignment outcomes and may optionally record fleet
// snapshots, served trips and run summaries. The factory helpers build sinks
// from configuration and return a MultiSink when several are configured.
package metrics
