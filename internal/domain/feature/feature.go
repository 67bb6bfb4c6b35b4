// Package feature defines the eight-scalar acoustic fingerprint shared
// by every stage of the analysis pipeline.
package feature

import (
	"fmt"
	"math"
)

// Count is the number of scalar fields in a fingerprint.
const Count = 8

// Name identifies one fingerprint field.
type Name string

// Fingerprint field names, in canonical order.
const (
	Tempo            Name = "tempo"
	BeatStrength     Name = "beat_strength"
	OnsetRate        Name = "onset_rate"
	Energy           Name = "energy"
	PulseClarity     Name = "pulse_clarity"
	SpectralRolloff  Name = "spectral_rolloff"
	SpectralFlatness Name = "spectral_flatness"
	DynamicRange     Name = "dynamic_range"
)

// names fixes the canonical field order used everywhere a fingerprint is
// traversed. Reordering it changes comparison output, so don't.
var names = [Count]Name{
	Tempo,
	BeatStrength,
	OnsetRate,
	Energy,
	PulseClarity,
	SpectralRolloff,
	SpectralFlatness,
	DynamicRange,
}

// Names returns the canonical field order.
func Names() [Count]Name {
	return names
}

// weights scale per-feature deviations. Rhythm features carry the most
// weight; mastering-related features the least.
var weights = map[Name]float64{
	BeatStrength:     3.0,
	OnsetRate:        2.0,
	PulseClarity:     2.0,
	Tempo:            1.5,
	Energy:           1.5,
	SpectralRolloff:  1.0,
	SpectralFlatness: 1.0,
	DynamicRange:     0.5,
}

// Weight returns the fixed importance weight for a field.
func Weight(n Name) float64 {
	return weights[n]
}

// displayMeta carries human-readable labels and units for reports.
type displayMeta struct {
	label string
	unit  string
}

var display = map[Name]displayMeta{
	Tempo:            {label: "Tempo", unit: "BPM"},
	BeatStrength:     {label: "Beat Strength", unit: ""},
	OnsetRate:        {label: "Onset Rate", unit: "events/s"},
	Energy:           {label: "Energy", unit: ""},
	PulseClarity:     {label: "Pulse Clarity", unit: ""},
	SpectralRolloff:  {label: "Spectral Rolloff", unit: "Hz"},
	SpectralFlatness: {label: "Spectral Flatness", unit: ""},
	DynamicRange:     {label: "Dynamic Range", unit: "dB"},
}

// Label returns the display name for a field.
func Label(n Name) string {
	return display[n].label
}

// Unit returns the display unit for a field, empty for dimensionless fields.
func Unit(n Name) string {
	return display[n].unit
}

// Vector is one track's fingerprint: eight real-valued scalars plus an
// opaque source label. Treated as immutable once produced.
type Vector struct {
	Source           string  `json:"source"`
	Tempo            float64 `json:"tempo"`
	BeatStrength     float64 `json:"beat_strength"`
	OnsetRate        float64 `json:"onset_rate"`
	Energy           float64 `json:"energy"`
	PulseClarity     float64 `json:"pulse_clarity"`
	SpectralRolloff  float64 `json:"spectral_rolloff"`
	SpectralFlatness float64 `json:"spectral_flatness"`
	DynamicRange     float64 `json:"dynamic_range"`
}

// Values returns the scalar fields in canonical order.
func (v Vector) Values() [Count]float64 {
	return [Count]float64{
		v.Tempo,
		v.BeatStrength,
		v.OnsetRate,
		v.Energy,
		v.PulseClarity,
		v.SpectralRolloff,
		v.SpectralFlatness,
		v.DynamicRange,
	}
}

// Value returns a single field by name.
func (v Vector) Value(n Name) float64 {
	switch n {
	case Tempo:
		return v.Tempo
	case BeatStrength:
		return v.BeatStrength
	case OnsetRate:
		return v.OnsetRate
	case Energy:
		return v.Energy
	case PulseClarity:
		return v.PulseClarity
	case SpectralRolloff:
		return v.SpectralRolloff
	case SpectralFlatness:
		return v.SpectralFlatness
	case DynamicRange:
		return v.DynamicRange
	}
	return math.NaN()
}

// FromValues builds a Vector from scalars in canonical order.
func FromValues(source string, vals [Count]float64) Vector {
	return Vector{
		Source:           source,
		Tempo:            vals[0],
		BeatStrength:     vals[1],
		OnsetRate:        vals[2],
		Energy:           vals[3],
		PulseClarity:     vals[4],
		SpectralRolloff:  vals[5],
		SpectralFlatness: vals[6],
		DynamicRange:     vals[7],
	}
}

// Validate checks the fingerprint invariants: every value finite, and
// pulse clarity inside [0, 1].
func (v Vector) Validate() error {
	for i, val := range v.Values() {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("field %s is not finite", names[i])
		}
	}
	if v.PulseClarity < 0 || v.PulseClarity > 1 {
		return fmt.Errorf("field %s out of range [0,1]: %v", PulseClarity, v.PulseClarity)
	}
	return nil
}
