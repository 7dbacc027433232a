package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML config file over the defaults. Fields absent from
// the file keep their default values; the API key/secret always come from
// the environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	// #nosec G304 -- path is operator-supplied by design
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for obviously unusable values.
func (c *Config) Validate() error {
	if c.Paths.StateFile == "" {
		return fmt.Errorf("paths.state_file must not be empty")
	}
	if c.Paths.HookFile == "" {
		return fmt.Errorf("paths.hook_file must not be empty")
	}
	if c.Paths.LogDir == "" {
		return fmt.Errorf("paths.log_dir must not be empty")
	}
	if c.Mirror.FallbackBase == "" {
		return fmt.Errorf("mirror.fallback_base must not be empty")
	}
	if c.Timeouts.Probe <= 0 || c.Timeouts.Diagnostic <= 0 || c.Timeouts.Mutating <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}
