// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - All functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig, loading failures wrap ErrLoadConfig.
package config

import (
	"context"
	"fmt"
	"strings"
)

// Supported values for enumerated settings.
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"

	TraceExporterNone   = "none"
	TraceExporterStdout = "stdout"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log encoder: json or console.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`
	// EnforceCapacity rejects signups once an activity reaches max_participants.
	EnforceCapacity bool `koanf:"enforce_capacity"`
	// SeedFile optionally points at a YAML file replacing the built-in activities.
	SeedFile string `koanf:"seed_file"`
	// TraceExporter selects where spans go: none or stdout.
	TraceExporter string `koanf:"trace_exporter"`
	// ServiceName is reported as the tracing service name.
	ServiceName string `koanf:"service_name"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       LogFormatJSON,
		Addr:            ":8000",
		EnforceCapacity: true,
		TraceExporter:   TraceExporterNone,
		ServiceName:     "activities",
	}
}

// Validate checks the loaded values.
func (c *Config) Validate(_ context.Context) error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case LogFormatJSON, LogFormatConsole:
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	switch c.TraceExporter {
	case TraceExporterNone, TraceExporterStdout:
	default:
		return fmt.Errorf("%w: unknown trace_exporter %q", ErrInvalidConfig, c.TraceExporter)
	}
	return nil
}
