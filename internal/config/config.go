// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables on top of New().
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatasetPath is a local file path or an http(s) URL.
	DatasetPath string `koanf:"dataset_path"`

	// DatasetTimeoutMS bounds a single dataset fetch.
	DatasetTimeoutMS int `koanf:"dataset_timeout_ms"`

	// RandomDelayMS is waited before answering a random participant pick.
	RandomDelayMS int `koanf:"random_delay_ms"`

	// SummaryConcurrency bounds the cohort summary fan-out.
	SummaryConcurrency int `koanf:"summary_concurrency"`

	// FieldTablePath optionally overrides the embedded field table.
	FieldTablePath string `koanf:"field_table_path"`

	// MaxBodyBytes caps POST /api/audiograms bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		DatasetPath:        "data/audiometry-database.html",
		DatasetTimeoutMS:   30_000,
		RandomDelayMS:      0,
		SummaryConcurrency: runtime.NumCPU(),
		MaxBodyBytes:       64 << 10,
	}
}

// DatasetTimeout returns DatasetTimeoutMS as a duration.
func (c *Config) DatasetTimeout() time.Duration {
	return time.Duration(c.DatasetTimeoutMS) * time.Millisecond
}

// RandomDelay returns RandomDelayMS as a duration.
func (c *Config) RandomDelay() time.Duration {
	return time.Duration(c.RandomDelayMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DatasetPath == "":
		return fmt.Errorf("%w: dataset_path must not be empty", ErrInvalidConfig)
	case c.DatasetTimeoutMS <= 0:
		return fmt.Errorf("%w: dataset_timeout_ms must be positive, got %d", ErrInvalidConfig, c.DatasetTimeoutMS)
	case c.RandomDelayMS < 0:
		return fmt.Errorf("%w: random_delay_ms must not be negative, got %d", ErrInvalidConfig, c.RandomDelayMS)
	case c.SummaryConcurrency <= 0:
		return fmt.Errorf("%w: summary_concurrency must be positive, got %d", ErrInvalidConfig, c.SummaryConcurrency)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("%w: max_body_bytes must be positive, got %d", ErrInvalidConfig, c.MaxBodyBytes)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}
