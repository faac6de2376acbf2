// Package config loads pipeline service configuration from YAML files
// and environment variables. YAML provides the base, a .env file and
// process environment override it.
package config

import (
	"fmt"
	"time"

	"github.com/skillsenselab/docflow/logger"
	"github.com/skillsenselab/docflow/resilience"
)

// ServiceConfig contains the fields every docflow service needs.
// Larger configs embed it.
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults applies default values to the base configuration.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Logging.ServiceName == "" && c.Name != "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the base configuration fields.
func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config.environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

// OrchestratorConfig tunes run execution.
type OrchestratorConfig struct {
	// FailureRateLimit is the running failure rate above which a run
	// terminates early.
	FailureRateLimit float64 `yaml:"failure_rate_limit" mapstructure:"failure_rate_limit"`
	// ProgressTimeout bounds progress sink delivery.
	ProgressTimeout time.Duration `yaml:"progress_timeout" mapstructure:"progress_timeout"`
	// PlanDirs lists directories searched for plan YAML files.
	PlanDirs []string `yaml:"plan_dirs" mapstructure:"plan_dirs"`
}

// ApplyDefaults applies default values.
func (c *OrchestratorConfig) ApplyDefaults() {
	if c.FailureRateLimit <= 0 {
		c.FailureRateLimit = 0.3
	}
	if c.ProgressTimeout <= 0 {
		c.ProgressTimeout = time.Second
	}
	if len(c.PlanDirs) == 0 {
		c.PlanDirs = []string{"./plans"}
	}
}

// Validate validates orchestrator configuration.
func (c *OrchestratorConfig) Validate() error {
	if c.FailureRateLimit > 1 {
		return fmt.Errorf("orchestrator.failure_rate_limit must be in (0, 1] (got: %v)", c.FailureRateLimit)
	}
	return nil
}

// RetryConfig tunes the shared retry policy for external collaborators.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	BackoffFactor  float64       `yaml:"backoff_factor" mapstructure:"backoff_factor"`
	Jitter         bool          `yaml:"jitter" mapstructure:"jitter"`
}

// ApplyDefaults applies default values.
func (c *RetryConfig) ApplyDefaults() {
	defaults := resilience.DefaultRetryPolicy()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaults.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = defaults.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaults.MaxBackoff
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = defaults.BackoffFactor
	}
}

// ToPolicy builds a retry policy from the configuration. Kind
// classification always follows the default policy.
func (c *RetryConfig) ToPolicy() resilience.RetryPolicy {
	policy := resilience.DefaultRetryPolicy()
	policy.MaxAttempts = c.MaxAttempts
	policy.InitialBackoff = c.InitialBackoff
	policy.MaxBackoff = c.MaxBackoff
	policy.BackoffFactor = c.BackoffFactor
	policy.Jitter = c.Jitter
	return policy
}

// ReasoningConfig locates the external reasoning service.
type ReasoningConfig struct {
	BaseURL               string        `yaml:"base_url" mapstructure:"base_url"`
	Model                 string        `yaml:"model" mapstructure:"model"`
	APIKey                string        `yaml:"api_key" mapstructure:"api_key"`
	Timeout               time.Duration `yaml:"timeout" mapstructure:"timeout"`
	CostPerThousandTokens float64       `yaml:"cost_per_thousand_tokens" mapstructure:"cost_per_thousand_tokens"`
}

// ApplyDefaults applies default values.
func (c *ReasoningConfig) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
}

// Validate validates reasoning configuration.
func (c *ReasoningConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("reasoning.model is required")
	}
	return nil
}

// StoreConfig locates run-state and blob persistence.
type StoreConfig struct {
	// RunPath is the directory for run-state snapshots. Empty selects
	// the in-memory store.
	RunPath string `yaml:"run_path" mapstructure:"run_path"`
	// BlobPath is the directory for content-addressed blobs.
	BlobPath string `yaml:"blob_path" mapstructure:"blob_path"`
}

// ApplyDefaults applies default values.
func (c *StoreConfig) ApplyDefaults() {
	if c.BlobPath == "" {
		c.BlobPath = "./data/blobs"
	}
}

// Config is the full docflow pipeline configuration.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Orchestrator OrchestratorConfig `yaml:"orchestrator" mapstructure:"orchestrator"`
	Retry        RetryConfig        `yaml:"retry" mapstructure:"retry"`
	Reasoning    ReasoningConfig    `yaml:"reasoning" mapstructure:"reasoning"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
}

// ApplyDefaults applies default values to the whole configuration.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Orchestrator.ApplyDefaults()
	c.Retry.ApplyDefaults()
	c.Reasoning.ApplyDefaults()
	c.Store.ApplyDefaults()
}

// Validate validates the whole configuration.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Orchestrator.Validate(); err != nil {
		return err
	}
	return c.Reasoning.Validate()
}
