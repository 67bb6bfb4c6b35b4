// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the size of the fingerprint extraction pool.
	// Bounded by compute, not batch size: each in-flight extraction holds
	// a decoded waveform in memory.
	WorkerCount int `koanf:"worker_count"`

	// ProfileTTLSeconds bounds how long a built reference profile stays
	// available for evaluation before session cleanup removes it.
	ProfileTTLSeconds int `koanf:"profile_ttl_seconds"`

	// SweepIntervalSeconds sets how often the profile store scans for
	// expired entries.
	SweepIntervalSeconds int `koanf:"sweep_interval_seconds"`

	// MaxProfiles caps the number of live profiles held in memory.
	MaxProfiles int `koanf:"max_profiles"`
}

// Default configuration values.
const (
	defaultAddr          = ":9090"
	defaultProfileTTL    = 3600
	defaultSweepInterval = 60
	defaultMaxProfiles   = 1000
)

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 defaultAddr,
		WorkerCount:          runtime.NumCPU(),
		ProfileTTLSeconds:    defaultProfileTTL,
		SweepIntervalSeconds: defaultSweepInterval,
		MaxProfiles:          defaultMaxProfiles,
	}
}
