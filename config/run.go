package config

import "github.com/google/uuid"

// RunConfig describes one simulation run.
type RunConfig struct {
	// Requests is the demand file, one request per line.
	Requests string `json:"requests" validate:"required"`
	// OutputDir receives the report files.
	OutputDir string `json:"output_dir"`
	// RunID prefixes report files and tags metrics and decision records.
	RunID string `json:"run_id" validate:"excludesall=/\\"`
	// MaxTicks stops the run even if vehicles are still active.
	MaxTicks int64 `json:"max_ticks" validate:"gte=0"`
	// APIToken protects the decision log endpoint when set.
	APIToken string `json:"api_token"`
	// KPIStore is the SQLite database keeping per run vehicle indicators.
	// History is not recorded when empty.
	KPIStore string `json:"kpi_store"`
}

// SetDefaults applies default values. MaxTicks is filled by Config.SetDefaults
// since it depends on the shift end.
func (c *RunConfig) SetDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.RunID == "" {
		c.RunID = uuid.NewString()[:8]
	}
}
