// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ModelPath and ClassNamesPath locate the ONNX classifier and its label list.
	ModelPath      string `koanf:"model_path"`
	ClassNamesPath string `koanf:"class_names_path"`

	// UseAcceleration prefers the CUDA execution path when available.
	UseAcceleration bool `koanf:"use_acceleration"`

	// EagerInit initialises the classifier on Start instead of on first scan.
	EagerInit bool `koanf:"eager_init"`

	// ConfidenceThreshold below which a slot is reported unrecognised.
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`

	LayoutsPath    string `koanf:"layouts_path"`
	StatsPath      string `koanf:"stats_path"`
	ScreenshotPath string `koanf:"screenshot_path"`

	CaptureTTLMS       int `koanf:"capture_ttl_ms"`
	PrefetchIntervalMS int `koanf:"prefetch_interval_ms"`

	// StatsReloadS re-reads the statistics snapshot periodically; zero disables it.
	StatsReloadS int `koanf:"stats_reload_s"`

	OPThreshold   float64 `koanf:"op_threshold"`
	TrapThreshold float64 `koanf:"trap_threshold"`
	Language      string  `koanf:"language"`

	// RedisURL enables Redis-backed custom layouts. Empty keeps them in memory.
	RedisURL       string `koanf:"redis_url"`
	RedisLayoutKey string `koanf:"redis_layout_key"`

	RequestQueueSize int `koanf:"request_queue_size"`
	ScanTimeoutMS    int `koanf:"scan_timeout_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		ModelPath:           "resources/model/ability_classifier.onnx",
		ClassNamesPath:      "resources/model/class_names.json",
		UseAcceleration:     true,
		EagerInit:           false,
		ConfidenceThreshold: 0.9,
		LayoutsPath:         "config/layout_coordinates.json",
		StatsPath:           "resources/stats.json",
		CaptureTTLMS:        2000,
		PrefetchIntervalMS:  1000,
		StatsReloadS:        300,
		OPThreshold:         0.13,
		TrapThreshold:       0.05,
		Language:            "en",
		RedisLayoutKey:      "draftlens:custom_layouts",
		RequestQueueSize:    4,
		ScanTimeoutMS:       15000,
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence_threshold %v outside [0,1]", ErrInvalidConfig, c.ConfidenceThreshold)
	}
	if c.OPThreshold < 0 || c.OPThreshold > 0.5 {
		return fmt.Errorf("%w: op_threshold %v outside [0,0.5]", ErrInvalidConfig, c.OPThreshold)
	}
	if c.TrapThreshold < 0 || c.TrapThreshold > 0.5 {
		return fmt.Errorf("%w: trap_threshold %v outside [0,0.5]", ErrInvalidConfig, c.TrapThreshold)
	}
	if c.RequestQueueSize <= 0 {
		return fmt.Errorf("%w: request_queue_size must be positive", ErrInvalidConfig)
	}
	return nil
}

// CaptureTTL returns the capture cache TTL.
func (c *Config) CaptureTTL() time.Duration {
	return time.Duration(c.CaptureTTLMS) * time.Millisecond
}

// PrefetchInterval returns the capture prefetch tick.
func (c *Config) PrefetchInterval() time.Duration {
	return time.Duration(c.PrefetchIntervalMS) * time.Millisecond
}

// StatsReloadInterval returns the snapshot reload period.
func (c *Config) StatsReloadInterval() time.Duration {
	return time.Duration(c.StatsReloadS) * time.Second
}

// ScanTimeout returns the per-scan deadline; zero disables it.
func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.ScanTimeoutMS) * time.Millisecond
}
