package config

import (
	"fmt"

	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// Validate checks a loaded configuration for malformed values.
// All violations wrap ErrConfigInvalid and are fatal before any job is dispatched.
func Validate(cfg *Config) error {
	if cfg == nil {
		return relaberrors.ErrConfigNil
	}
	if cfg.Provider.Timeout <= 0 {
		return fmt.Errorf("%w: provider.timeout must be positive, got %s",
			relaberrors.ErrConfigInvalid, cfg.Provider.Timeout)
	}
	if cfg.Pipeline.Concurrency < 1 {
		return fmt.Errorf("%w: pipeline.concurrency must be >= 1, got %d",
			relaberrors.ErrConfigInvalid, cfg.Pipeline.Concurrency)
	}
	if cfg.Pipeline.DependencyTimeout <= 0 {
		return fmt.Errorf("%w: pipeline.dependency_timeout must be positive, got %s",
			relaberrors.ErrConfigInvalid, cfg.Pipeline.DependencyTimeout)
	}
	if cfg.Pipeline.DependencyPollInterval <= 0 {
		return fmt.Errorf("%w: pipeline.dependency_poll_interval must be positive, got %s",
			relaberrors.ErrConfigInvalid, cfg.Pipeline.DependencyPollInterval)
	}
	if cfg.Output.Root == "" {
		return fmt.Errorf("%w: %w: output.root", relaberrors.ErrConfigInvalid, relaberrors.ErrEmptyValue)
	}
	return nil
}
