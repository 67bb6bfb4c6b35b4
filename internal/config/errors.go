package config

import (
	"errors"
)

// Sentinel errors reported by Load; callers branch with errors.Is.
var (
	// ErrLoadConfig marks a failure reading or parsing a config source.
	ErrLoadConfig = errors.New("load config failed")

	// ErrInvalidConfig marks a config that parsed but failed validation.
	ErrInvalidConfig = errors.New("invalid config")
)
