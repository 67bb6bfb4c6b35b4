// Package presetgen generates synthetic fingerprint presets and can
// feed them to a running gatekeeper service.
package presetgen

import "time"

// Config holds configuration for a preset generation run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Style      string        // Sound style to synthesize
	NumTracks  int           // Number of fingerprints to generate
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for the preset
	LogFile    string        // Log file for run output
	Submit     bool          // Submit the preset to the service
	Evaluate   bool          // Evaluate a held-out track against the built profile
	Verbose    bool          // Enable verbose logging
}

// Stats holds run statistics.
type Stats struct {
	TracksGenerated int
	Accepted        int
	Rejected        int
	ProfileID       string
	HoldoutScore    float64
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
