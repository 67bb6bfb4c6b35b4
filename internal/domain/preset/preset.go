// Package preset defines the persisted fingerprint-batch format. A preset
// feeds the profile builder directly, bypassing feature extraction.
package preset

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/okian/gatekeeper/internal/domain/feature"
)

// Entry is one persisted fingerprint. Numeric fields are pointers so a
// missing field can be told apart from a legitimate zero.
type Entry struct {
	Source           string   `json:"source"`
	Tempo            *float64 `json:"tempo"`
	BeatStrength     *float64 `json:"beat_strength"`
	OnsetRate        *float64 `json:"onset_rate"`
	Energy           *float64 `json:"energy"`
	PulseClarity     *float64 `json:"pulse_clarity"`
	SpectralRolloff  *float64 `json:"spectral_rolloff"`
	SpectralFlatness *float64 `json:"spectral_flatness"`
	DynamicRange     *float64 `json:"dynamic_range"`
}

// Preset is a named batch of persisted fingerprints.
type Preset struct {
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

// Rejection records one entry that failed validation.
type Rejection struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// Vector validates the entry and converts it to a fingerprint. An entry
// missing any numeric field, or holding a non-finite value, is malformed.
func (e Entry) Vector() (feature.Vector, error) {
	fields := []struct {
		name feature.Name
		val  *float64
	}{
		{feature.Tempo, e.Tempo},
		{feature.BeatStrength, e.BeatStrength},
		{feature.OnsetRate, e.OnsetRate},
		{feature.Energy, e.Energy},
		{feature.PulseClarity, e.PulseClarity},
		{feature.SpectralRolloff, e.SpectralRolloff},
		{feature.SpectralFlatness, e.SpectralFlatness},
		{feature.DynamicRange, e.DynamicRange},
	}

	var vals [feature.Count]float64
	for i, f := range fields {
		if f.val == nil {
			return feature.Vector{}, fmt.Errorf("%w: missing field %s", ErrMalformedFingerprint, f.name)
		}
		if math.IsNaN(*f.val) || math.IsInf(*f.val, 0) {
			return feature.Vector{}, fmt.Errorf("%w: field %s is not finite", ErrMalformedFingerprint, f.name)
		}
		vals[i] = *f.val
	}

	v := feature.FromValues(e.Source, vals)
	if err := v.Validate(); err != nil {
		return feature.Vector{}, fmt.Errorf("%w: %v", ErrMalformedFingerprint, err)
	}
	return v, nil
}

// EntryFromVector converts a fingerprint into its persisted form.
func EntryFromVector(v feature.Vector) Entry {
	vals := v.Values()
	return Entry{
		Source:           v.Source,
		Tempo:            &vals[0],
		BeatStrength:     &vals[1],
		OnsetRate:        &vals[2],
		Energy:           &vals[3],
		PulseClarity:     &vals[4],
		SpectralRolloff:  &vals[5],
		SpectralFlatness: &vals[6],
		DynamicRange:     &vals[7],
	}
}

// FromVectors builds a named preset from fingerprints in order.
func FromVectors(name string, vectors []feature.Vector) Preset {
	p := Preset{Name: name, Entries: make([]Entry, 0, len(vectors))}
	for _, v := range vectors {
		p.Entries = append(p.Entries, EntryFromVector(v))
	}
	return p
}

// Parse decodes a persisted preset document.
func Parse(data []byte) (Preset, error) {
	var p Preset
	if err := json.Unmarshal(data, &p); err != nil {
		return Preset{}, fmt.Errorf("parse preset: %w", err)
	}
	return p, nil
}

// Vectors validates every entry, returning usable fingerprints in entry
// order plus per-entry rejections. Malformed entries never abort the
// batch; the caller decides whether enough usable entries remain.
func (p Preset) Vectors() ([]feature.Vector, []Rejection) {
	accepted := make([]feature.Vector, 0, len(p.Entries))
	var rejected []Rejection
	for _, e := range p.Entries {
		v, err := e.Vector()
		if err != nil {
			rejected = append(rejected, Rejection{Source: e.Source, Reason: err.Error()})
			continue
		}
		accepted = append(accepted, v)
	}
	return accepted, rejected
}
