// Package infra holds the adapters behind the core interfaces: the zerolog
// logger, metrics sinks, the MQTT command mirror and the KPI history
// database. Nothing in core imports these packages.
package infra
