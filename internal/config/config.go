// Package config provides configuration management for RELAB with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. Environment variables (RELAB_* prefix)
//  2. Config file ($RELAB_HOME/config.yaml)
//  3. Built-in defaults
//
// Command flags override individual fields on the loaded Config after Load
// returns (for example, --model replaces Provider.Model).
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Config is the root configuration structure for RELAB.
type Config struct {
	// Provider contains settings for agent CLI invocation.
	Provider ProviderConfig `yaml:"provider" mapstructure:"provider"`

	// Pipeline contains settings for dispatching and stage gating.
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`

	// Output contains settings for run directory allocation.
	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

// ProviderConfig contains settings controlling how RELAB invokes the
// claude, gemini, and codex CLIs.
type ProviderConfig struct {
	// Model specifies the model alias to request from providers
	// (e.g., "sonnet", "flash", "codex"). Empty uses each provider's default.
	Model string `yaml:"model" mapstructure:"model"`

	// Timeout is the maximum duration for a single provider invocation.
	// Default: 30 minutes.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// APIKeyEnvVars maps provider names to their API key environment variable
	// names. Providers not in the map use their defaults
	// (ANTHROPIC_API_KEY, GEMINI_API_KEY, OPENAI_API_KEY).
	APIKeyEnvVars map[string]string `yaml:"api_key_env_vars" mapstructure:"api_key_env_vars"`
}

// GetAPIKeyEnvVar returns the API key environment variable for the given
// provider name, falling back to the provider defaults.
func (c *ProviderConfig) GetAPIKeyEnvVar(provider string) string {
	if c.APIKeyEnvVars != nil {
		if envVar, ok := c.APIKeyEnvVars[provider]; ok {
			return envVar
		}
	}
	switch provider {
	case "claude":
		return "ANTHROPIC_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	case "codex":
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// PipelineConfig contains settings for the dispatcher and the stage gate.
type PipelineConfig struct {
	// Concurrency is the default per-provider concurrency cap for tasks that
	// do not specify one. Default: 3.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`

	// DependencyTimeout bounds how long the stage gate waits for an upstream
	// artifact before failing the downstream job. Default: 2 hours.
	DependencyTimeout time.Duration `yaml:"dependency_timeout" mapstructure:"dependency_timeout"`

	// DependencyPollInterval is how often the stage gate re-checks for the
	// artifact while waiting. Default: 2 seconds.
	DependencyPollInterval time.Duration `yaml:"dependency_poll_interval" mapstructure:"dependency_poll_interval"`
}

// OutputConfig contains settings for run output allocation.
type OutputConfig struct {
	// Root is the directory under which run directories are allocated.
	// Default: "runs" relative to the working directory.
	Root string `yaml:"root" mapstructure:"root"`
}
