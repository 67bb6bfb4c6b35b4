// Package alert thresholds weighted deviations into severity levels.
//
// Rhythm features (beat strength, onset rate) are the strongest
// compatibility signal and are the only ones that can escalate to
// CRITICAL; any other feature tops out at WARNING however far it drifts.
package alert

import (
	"github.com/okian/gatekeeper/internal/domain/feature"
)

// Severity grades an alert.
type Severity string

// Alert severities.
const (
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Classification thresholds on |weighted z-score|.
const (
	criticalThreshold      = 2.0
	rhythmWarningThreshold = 1.5
)

// rhythmCritical marks the features eligible for CRITICAL severity.
var rhythmCritical = map[feature.Name]bool{
	feature.BeatStrength: true,
	feature.OnsetRate:    true,
}

// Alert reports one feature's deviation past a threshold.
type Alert struct {
	Feature   feature.Name `json:"feature"`
	Severity  Severity     `json:"severity"`
	Magnitude float64      `json:"magnitude"`
}

// Classify thresholds the weighted z-scores, given in canonical feature
// order, into an ordered alert list. Evaluation is per feature and the
// output order is fixed for reproducibility.
func Classify(weighted [feature.Count]float64) []Alert {
	var alerts []Alert
	for i, name := range feature.Names() {
		mag := weighted[i]
		if mag < 0 {
			mag = -mag
		}
		switch {
		case rhythmCritical[name] && mag > criticalThreshold:
			alerts = append(alerts, Alert{Feature: name, Severity: SeverityCritical, Magnitude: mag})
		case rhythmCritical[name] && mag > rhythmWarningThreshold:
			alerts = append(alerts, Alert{Feature: name, Severity: SeverityWarning, Magnitude: mag})
		case !rhythmCritical[name] && mag > criticalThreshold:
			alerts = append(alerts, Alert{Feature: name, Severity: SeverityWarning, Magnitude: mag})
		}
	}
	return alerts
}
