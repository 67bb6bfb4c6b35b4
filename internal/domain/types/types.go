// Package types contains common types used across the application
package types

import (
	"github.com/okian/gatekeeper/internal/domain/feature"
	"github.com/okian/gatekeeper/internal/domain/profile"
)

// Rejection records why a submitted track was dropped.
type Rejection struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// BuildReport describes the outcome of a profile build.
type BuildReport struct {
	ProfileID string           `json:"profile_id"`
	Accepted  []feature.Vector `json:"accepted"`
	Rejected  []Rejection      `json:"rejected,omitempty"`
}

// ProfileInfo summarizes a stored profile without exposing its members.
type ProfileInfo struct {
	ProfileID  string                                  `json:"profile_id"`
	TrackCount int                                     `json:"track_count"`
	Features   map[feature.Name]profile.FeatureSummary `json:"features"`
}

// ServiceStats reports runtime counters for the stats endpoint.
// ProfilesLive is only meaningful while the service is started.
type ServiceStats struct {
	Started      bool   `json:"started"`
	WorkerCount  int    `json:"worker_count"`
	MaxProfiles  int    `json:"max_profiles"`
	ProfileTTL   string `json:"profile_ttl"`
	ProfilesLive int    `json:"profiles_live"`
}
