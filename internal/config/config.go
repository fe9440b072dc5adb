// Package config loads the scheduler CLI's own operating configuration:
// where to persist run history, the default solver time budget, and log
// verbosity. It is deliberately separate from pkg/schedconfig, which
// loads the scheduling problem itself.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the scheduler CLI's operating configuration. Every field is
// optional: an unconfigured CLI still runs, just without history
// persistence and with built-in defaults.
type Config struct {
	// HistoryDSN is the Postgres connection string for pkg/history. Empty
	// disables run recording entirely.
	HistoryDSN string `yaml:"historyDSN,omitempty"`
	// DefaultMaxTimeSeconds seeds solver.Options.MaxTimeSeconds when a
	// command's --max-time flag is not set.
	DefaultMaxTimeSeconds float64 `yaml:"defaultMaxTimeSeconds,omitempty" validate:"omitempty,gt=0"`
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"logLevel,omitempty" validate:"omitempty,oneof=debug info warn error"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		DefaultMaxTimeSeconds: 60,
		LogLevel:              "info",
	}
}

// Load reads and validates the operating configuration at path. An empty
// path returns Default() unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate runs struct-tag validation over cfg.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
