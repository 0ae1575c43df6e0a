package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/drt/core/dispatch"
	"github.com/kilianp07/drt/core/metrics"
	"github.com/kilianp07/drt/infra/mqtt"
	"github.com/kilianp07/drt/simulator"
)

type Config struct {
	Dispatch dispatch.Config  `json:"dispatch"`
	Network  simulator.Config `json:"network"`
	Metrics  metrics.Config   `json:"metrics"`
	Logging  LoggingConfig    `json:"logging"`
	MQTT     mqtt.Config      `json:"mqtt"`
	Run      RunConfig        `json:"run"`
}

// Load reads the configuration with Read and validates it.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read parses a yaml or json file, applies K_ prefixed environment overrides
// (K_DISPATCH__CAPACITY=4) and the defaults. The result is not validated.
func Read(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Dispatch.SetDefaults()
	c.Network.SetDefaults()
	c.Metrics.SetDefaults()
	c.Logging.SetDefaults()
	c.MQTT.SetDefaults()
	c.Run.SetDefaults()
	if c.Run.MaxTicks == 0 {
		c.Run.MaxTicks = 2 * c.Dispatch.ShiftEnd
	}
}

// Validate checks the struct tags of the locally defined sections, then
// every section's own rules.
func (c Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := v.Struct(c.Run); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Dispatch.Validate(); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if err := c.Network.Validate(); err != nil {
		return err
	}
	return c.MQTT.Validate()
}
