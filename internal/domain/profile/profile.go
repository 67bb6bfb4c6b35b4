// Package profile fits an immutable statistical reference model over a
// batch of fingerprints: per-feature mean and standard deviation plus an
// exact nearest-neighbor table over the standardized members.
package profile

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/gatekeeper/internal/domain/feature"
)

// Batch size bounds for fitting a profile.
const (
	MinTracks = 2
	MaxTracks = 30

	// Epsilon floors every standard deviation used as a denominator, so a
	// feature that is constant across the batch can never divide by zero.
	Epsilon = 1e-9
)

// Profile is the fitted reference model. Built exactly once by Fit and
// immutable afterwards, so it is safe for concurrent read-only use.
type Profile struct {
	members []feature.Vector
	mean    [feature.Count]float64
	std     [feature.Count]float64
	scaled  [][feature.Count]float64
}

// FeatureSummary describes one feature's distribution across the batch.
type FeatureSummary struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Fit builds a Profile from 2..30 fingerprints. Member order is preserved:
// nearest-neighbor ties resolve to the lowest insertion index.
func Fit(vectors []feature.Vector) (*Profile, error) {
	if len(vectors) > MaxTracks {
		return nil, fmt.Errorf("%w: got %d, limit %d", ErrTooManyTracks, len(vectors), MaxTracks)
	}
	if len(vectors) < MinTracks {
		return nil, fmt.Errorf("%w: got %d, need at least %d", ErrInsufficientData, len(vectors), MinTracks)
	}
	for _, v := range vectors {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("fingerprint %q: %w", v.Source, err)
		}
	}

	p := &Profile{
		members: append([]feature.Vector(nil), vectors...),
		scaled:  make([][feature.Count]float64, len(vectors)),
	}

	col := make([]float64, len(vectors))
	for f := 0; f < feature.Count; f++ {
		for i, v := range vectors {
			col[i] = v.Values()[f]
		}
		p.mean[f] = stat.Mean(col, nil)
		// Sample standard deviation (n-1 divisor), floored at Epsilon.
		sd := stat.StdDev(col, nil)
		if sd < Epsilon || math.IsNaN(sd) {
			sd = Epsilon
		}
		p.std[f] = sd
	}

	for i, v := range vectors {
		p.scaled[i] = p.Standardize(v)
	}
	return p, nil
}

// Standardize maps a fingerprint into the profile's z-space using the
// stored mean and std. The fit statistics are never recomputed.
func (p *Profile) Standardize(v feature.Vector) [feature.Count]float64 {
	var out [feature.Count]float64
	vals := v.Values()
	for f := 0; f < feature.Count; f++ {
		out[f] = (vals[f] - p.mean[f]) / p.std[f]
	}
	return out
}

// Nearest returns the index and Euclidean distance of the member closest
// to the standardized query. Brute force over at most MaxTracks points;
// strict comparison keeps the lowest insertion index on ties.
func (p *Profile) Nearest(query [feature.Count]float64) (int, float64) {
	bestIdx := 0
	bestDist := math.Inf(1)
	for i, member := range p.scaled {
		d := floats.Distance(query[:], member[:], 2)
		if d < bestDist {
			bestDist = d
			bestIdx = i
		}
	}
	return bestIdx, bestDist
}

// Member returns the original, unstandardized fingerprint at index i.
func (p *Profile) Member(i int) feature.Vector {
	return p.members[i]
}

// Members returns a copy of the member fingerprints in insertion order.
func (p *Profile) Members() []feature.Vector {
	return append([]feature.Vector(nil), p.members...)
}

// Size returns the number of member fingerprints.
func (p *Profile) Size() int {
	return len(p.members)
}

// Mean returns a copy of the per-feature mean vector.
func (p *Profile) Mean() [feature.Count]float64 {
	return p.mean
}

// Std returns a copy of the per-feature standard-deviation vector.
func (p *Profile) Std() [feature.Count]float64 {
	return p.std
}

// Summary reports per-feature distribution statistics keyed by field name.
func (p *Profile) Summary() map[feature.Name]FeatureSummary {
	out := make(map[feature.Name]FeatureSummary, feature.Count)
	col := make([]float64, len(p.members))
	for f, name := range feature.Names() {
		for i, v := range p.members {
			col[i] = v.Values()[f]
		}
		out[name] = FeatureSummary{
			Mean: p.mean[f],
			Std:  p.std[f],
			Min:  floats.Min(col),
			Max:  floats.Max(col),
		}
	}
	return out
}
