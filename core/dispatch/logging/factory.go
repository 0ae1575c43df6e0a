package logging

import (
	"fmt"

	"github.com/kilianp07/drt/core/factory"
)

var storeRegistry = factory.NewRegistry[LogStore]()

type fileConf struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

func decodeFile(conf map[string]any) (fileConf, error) {
	var c fileConf
	if err := factory.Decode(conf, &c); err != nil {
		return c, err
	}
	if c.Path == "" {
		return c, fmt.Errorf("decision log: path is required")
	}
	return c, nil
}

func init() {
	_ = storeRegistry.Register("nop", func(map[string]any) (LogStore, error) {
		return NopStore{}, nil
	})
	_ = storeRegistry.Register("jsonl", func(conf map[string]any) (LogStore, error) {
		c, err := decodeFile(conf)
		if err != nil {
			return nil, err
		}
		return NewJSONLStore(c.Path)
	})
	_ = storeRegistry.Register("rotating", func(conf map[string]any) (LogStore, error) {
		c, err := decodeFile(conf)
		if err != nil {
			return nil, err
		}
		if c.MaxSizeMB == 0 {
			c.MaxSizeMB = 10
		}
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	})
	_ = storeRegistry.Register("sqlite", func(conf map[string]any) (LogStore, error) {
		c, err := decodeFile(conf)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	})
	_ = storeRegistry.Register("postgres", func(conf map[string]any) (LogStore, error) {
		var c struct {
			DatabaseURL string `json:"database_url"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.DatabaseURL == "" {
			return nil, fmt.Errorf("decision log: database_url is required")
		}
		return NewPostgresStore(c.DatabaseURL)
	})
}

// NewStore creates the decision log described by cfg. An empty type
// yields a NopStore.
func NewStore(cfg factory.ModuleConfig) (LogStore, error) {
	if cfg.Type == "" {
		return NopStore{}, nil
	}
	return storeRegistry.Create(cfg)
}
