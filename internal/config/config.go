// Package config loads process configuration from FLUXURY_* environment
// variables. Command-line flags override these values.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds settings shared by the fluxury commands.
type Config struct {
	// Debug enables the Flux's in-place mutation checks.
	Debug bool `env:"FLUXURY_DEBUG" envDefault:"false"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"FLUXURY_LOG_LEVEL" envDefault:"info"`

	// Journal is the default journal database path. Empty disables
	// journaling for `run`.
	Journal string `env:"FLUXURY_JOURNAL"`

	// Format is the default output format (text or json).
	Format string `env:"FLUXURY_FORMAT" envDefault:"text"`
}

// Load reads configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.validate()
}

// LoadFrom reads configuration from the given variables instead of the
// process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.validate()
}

// SlogLevel converts LogLevel to a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("FLUXURY_LOG_LEVEL: %w", err)
	}
	return level, nil
}

func (c Config) validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Format) {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("FLUXURY_FORMAT: unsupported format %q (want text or json)", c.Format)
	}
}
