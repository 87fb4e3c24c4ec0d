package config

import "github.com/mrz1836/relab/internal/constants"

// Default returns a Config populated with built-in defaults.
// Callers layer file, environment, and flag values on top.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Timeout: constants.DefaultProviderTimeout,
		},
		Pipeline: PipelineConfig{
			Concurrency:            constants.DefaultConcurrency,
			DependencyTimeout:      constants.DefaultDependencyTimeout,
			DependencyPollInterval: constants.DependencyPollInterval,
		},
		Output: OutputConfig{
			Root: "runs",
		},
	}
}
