package run

import (
	"github.com/google/uuid"

	"github.com/skillsenselab/docflow/validation"
)

// Mode selects the processing depth for a run.
type Mode string

const (
	// ModeThorough favors quality over cost and latency.
	ModeThorough Mode = "thorough"
	// ModeFast favors cost and latency over quality.
	ModeFast Mode = "fast"
)

// ContextConfig carries the caller-supplied parameters for a new run.
type ContextConfig struct {
	// Principal identifies who requested the run.
	Principal string `json:"principal" validate:"required"`
	// Mode selects the processing depth.
	Mode Mode `json:"mode" validate:"omitempty,oneof=thorough fast"`
	// CostCeiling bounds cumulative spend for the run. 0 disables the bound.
	CostCeiling float64 `json:"cost_ceiling" validate:"gte=0"`
	// QualityTarget is the desired minimum quality score.
	QualityTarget float64 `json:"quality_target" validate:"gte=0,lte=1"`
	// EnabledStages restricts the run to the named stages.
	// Empty means all configured stages run.
	EnabledStages []string `json:"enabled_stages"`
	// Options holds free-form stage configuration.
	Options map[string]any `json:"options"`
}

// ApplyDefaults applies default values to the run configuration.
func (c *ContextConfig) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeThorough
	}
}

// Context identifies one execution. It is created once at submission
// time and never mutated; changing parameters means creating a new run.
type Context struct {
	ID            string         `json:"id"`
	Principal     string         `json:"principal"`
	Mode          Mode           `json:"mode"`
	CostCeiling   float64        `json:"cost_ceiling"`
	QualityTarget float64        `json:"quality_target"`
	EnabledStages []string       `json:"enabled_stages,omitempty"`
	Options       map[string]any `json:"options,omitempty"`
}

// NewContext validates the configuration and creates a run context with
// a fresh unique id.
func NewContext(cfg ContextConfig) (*Context, error) {
	cfg.ApplyDefaults()
	if err := validation.Validate(cfg); err != nil {
		return nil, err
	}

	return &Context{
		ID:            uuid.NewString(),
		Principal:     cfg.Principal,
		Mode:          cfg.Mode,
		CostCeiling:   cfg.CostCeiling,
		QualityTarget: cfg.QualityTarget,
		EnabledStages: cfg.EnabledStages,
		Options:       cfg.Options,
	}, nil
}

// StageEnabled reports whether the named stage should run.
// An empty enabled set means every stage is enabled.
func (c *Context) StageEnabled(name string) bool {
	if len(c.EnabledStages) == 0 {
		return true
	}
	for _, s := range c.EnabledStages {
		if s == name {
			return true
		}
	}
	return false
}

// StringOption returns a string option by key, with a fallback.
func (c *Context) StringOption(key, fallback string) string {
	if v, ok := c.Options[key].(string); ok {
		return v
	}
	return fallback
}

// FloatOption returns a float option by key, with a fallback.
func (c *Context) FloatOption(key string, fallback float64) float64 {
	switch v := c.Options[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}
