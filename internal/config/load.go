package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mrz1836/relab/internal/constants"
)

// RelabHome returns the relab home directory path.
// If the RELAB_HOME environment variable is set, it uses that.
// Otherwise, it defaults to ~/.relab.
func RelabHome() (string, error) {
	if home := os.Getenv("RELAB_HOME"); home != "" {
		return home, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.RelabHome), nil
}

// Load reads configuration with layered precedence: built-in defaults,
// then $RELAB_HOME/config.yaml, then RELAB_* environment variables.
// The result is validated before being returned.
func Load() (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	if home, err := RelabHome(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			// A missing config file is fine; defaults and env apply.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("RELAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults seeds viper with the built-in defaults so partial config
// files do not zero out unrelated sections.
func applyDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("provider.model", def.Provider.Model)
	v.SetDefault("provider.timeout", def.Provider.Timeout)
	v.SetDefault("pipeline.concurrency", def.Pipeline.Concurrency)
	v.SetDefault("pipeline.dependency_timeout", def.Pipeline.DependencyTimeout)
	v.SetDefault("pipeline.dependency_poll_interval", def.Pipeline.DependencyPollInterval)
	v.SetDefault("output.root", def.Output.Root)
}
