package config

import (
	"fmt"

	"github.com/kilianp07/drt/core/factory"
)

// LoggingConfig defines settings for decision log storage and rotation.
type LoggingConfig struct {
	// Backend selects the log store type.
	Backend string `json:"backend" validate:"oneof=nop jsonl rotating sqlite postgres"`
	// Path is the file location of the log store.
	Path string `json:"path"`
	// DatabaseURL is the connection string of the postgres backend.
	DatabaseURL string `json:"database_url"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb" validate:"gte=0"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups" validate:"gte=0"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days" validate:"gte=0"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" && c.Backend != "postgres" {
		c.Path = "decisions.jsonl"
	}
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	switch c.Backend {
	case "nop":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("logging: database_url is required for postgres")
		}
	default:
		if c.Path == "" {
			return fmt.Errorf("logging: path is required")
		}
	}
	return nil
}

// Module returns the store module configuration understood by
// logging.NewStore.
func (c LoggingConfig) Module() factory.ModuleConfig {
	conf := map[string]any{}
	switch c.Backend {
	case "postgres":
		conf["database_url"] = c.DatabaseURL
	case "nop":
	default:
		conf["path"] = c.Path
		conf["max_size_mb"] = c.MaxSizeMB
		conf["max_backups"] = c.MaxBackups
		conf["max_age_days"] = c.MaxAgeDays
	}
	return factory.ModuleConfig{Type: c.Backend, Conf: conf}
}
