// Package config provides configuration types for the storefront client.
//
// Configuration is file-based (storefront.yaml) with environment overrides.
// It covers the REST API endpoint, where the session token is persisted,
// how token expiry is judged, and the optional metrics/tracing outputs.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Session storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Expiry policies.
const (
	PolicyReactive = "reactive"
	PolicyJWT      = "jwt"
	PolicyCEL      = "cel"
)

// Config is the top-level configuration for the storefront client.
type Config struct {
	// API configures the storefront REST API.
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Session configures token persistence and expiry handling.
	Session SessionConfig `yaml:"session" mapstructure:"session"`

	// Metrics configures the optional Prometheus textfile output.
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`

	// Tracing configures the optional OpenTelemetry span export.
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`

	// LogLevel sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error". Defaults to "warn".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
}

// APIConfig configures the storefront REST API.
type APIConfig struct {
	// BaseURL is the origin serving /api/* (e.g., "http://localhost:8080").
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// Timeout bounds every request (e.g., "10s"). There is no retry.
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty,positive_duration"`
}

// SessionConfig configures where the token lives and when it is considered expired.
type SessionConfig struct {
	// Backend selects the key-value storage: "file", "sqlite" or "memory".
	Backend string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=file sqlite memory"`

	// Path is the storage file for the file and sqlite backends.
	// Defaults to ~/.storefront/session.json (or session.db for sqlite).
	Path string `yaml:"path" mapstructure:"path"`

	// ExpiryPolicy is "reactive" (only a 403 ends the session), "jwt"
	// (the exp claim is honoured) or "cel" (ValidWhen decides).
	ExpiryPolicy string `yaml:"expiry_policy" mapstructure:"expiry_policy" validate:"omitempty,oneof=reactive jwt cel"`

	// Leeway is subtracted from the jwt exp claim check (e.g., "30s").
	Leeway string `yaml:"leeway" mapstructure:"leeway" validate:"omitempty,duration"`

	// ValidWhen is a CEL expression over `claims`, `token` and `now`.
	// Required when ExpiryPolicy is "cel".
	ValidWhen string `yaml:"valid_when" mapstructure:"valid_when" validate:"required_if=ExpiryPolicy cel"`

	// KeepTokenOnExpiry keeps the stored token when the server answers 403.
	// The default (false) clears it so the next render is anonymous.
	KeepTokenOnExpiry bool `yaml:"keep_token_on_expiry" mapstructure:"keep_token_on_expiry"`

	// WatchInterval is how often the browse shell re-checks the storage
	// for changes made by other processes (e.g., "2s").
	WatchInterval string `yaml:"watch_interval" mapstructure:"watch_interval" validate:"omitempty,positive_duration"`
}

// MetricsConfig configures Prometheus metric output.
type MetricsConfig struct {
	// Textfile, when set, receives the metrics in text exposition format on exit.
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	// Enabled turns on span export.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Output is "stderr" or "file://<absolute-path>". Defaults to "stderr".
	Output string `yaml:"output" mapstructure:"output" validate:"omitempty,trace_output"`
}

// SetDefaults applies default values to the configuration.
func (c *Config) SetDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8080"
	}
	if c.API.Timeout == "" {
		c.API.Timeout = "10s"
	}

	if c.Session.Backend == "" {
		c.Session.Backend = BackendFile
	}
	if c.Session.Path == "" {
		c.Session.Path = defaultSessionPath(c.Session.Backend)
	}
	if c.Session.ExpiryPolicy == "" {
		c.Session.ExpiryPolicy = PolicyReactive
	}
	if c.Session.Leeway == "" {
		c.Session.Leeway = "0s"
	}
	if c.Session.WatchInterval == "" {
		c.Session.WatchInterval = "2s"
	}

	if c.Tracing.Output == "" {
		c.Tracing.Output = "stderr"
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// defaultSessionPath returns the per-user storage location for a backend.
func defaultSessionPath(backend string) string {
	name := "session.json"
	if backend == BackendSQLite {
		name = "session.db"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".storefront", name)
}

// APITimeout returns the parsed request timeout.
// Call after Validate; an unparsable value yields 10s.
func (c *Config) APITimeout() time.Duration {
	return parseDurationOr(c.API.Timeout, 10*time.Second)
}

// SessionLeeway returns the parsed jwt leeway.
func (c *Config) SessionLeeway() time.Duration {
	return parseDurationOr(c.Session.Leeway, 0)
}

// SessionWatchInterval returns the parsed storage watch interval.
func (c *Config) SessionWatchInterval() time.Duration {
	return parseDurationOr(c.Session.WatchInterval, 2*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
