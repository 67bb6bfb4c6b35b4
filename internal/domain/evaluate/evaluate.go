// Package evaluate scores one candidate fingerprint against a fitted
// reference profile: nearest-member lookup plus per-feature raw and
// weighted deviation scores.
package evaluate

import (
	"fmt"
	"math"

	"github.com/okian/gatekeeper/internal/domain/alert"
	"github.com/okian/gatekeeper/internal/domain/feature"
	"github.com/okian/gatekeeper/internal/domain/profile"
)

// scorePerSigma converts a mean-relative deviation into match-score
// points: three standard deviations drain the full 100.
const scorePerSigma = 33.3

// Comparison holds one feature's candidate-vs-reference numbers.
type Comparison struct {
	UserValue      float64 `json:"user_value"`
	RefValue       float64 `json:"ref_value"`
	ZScore         float64 `json:"z_score"`
	WeightedZScore float64 `json:"weighted_z_score"`
	Weight         float64 `json:"weight"`
}

// Result is the transient outcome of evaluating one candidate against one
// profile. It is returned to the caller and never persisted.
type Result struct {
	Candidate    feature.Vector              `json:"candidate"`
	Nearest      feature.Vector              `json:"nearest_reference"`
	NearestIndex int                         `json:"nearest_index"`
	Distance     float64                     `json:"distance"`
	Comparisons  map[feature.Name]Comparison `json:"comparisons"`
	MatchScore   float64                     `json:"match_score"`
	Alerts       []alert.Alert               `json:"alerts"`
	Narrative    string                      `json:"narrative,omitempty"`
}

// Evaluate standardizes the candidate with the profile's stored
// statistics, finds its single nearest reference member, and computes
// per-feature deviations against that member. The standard deviation is
// always the batch-level value from the fit, never a pairwise statistic.
func Evaluate(p *profile.Profile, candidate feature.Vector) (Result, error) {
	if err := candidate.Validate(); err != nil {
		return Result{}, fmt.Errorf("candidate fingerprint: %w", err)
	}

	scaled := p.Standardize(candidate)
	idx, dist := p.Nearest(scaled)
	neighbor := p.Member(idx)

	candVals := candidate.Values()
	refVals := neighbor.Values()
	std := p.Std()

	comparisons := make(map[feature.Name]Comparison, feature.Count)
	var weighted [feature.Count]float64
	for i, name := range feature.Names() {
		w := feature.Weight(name)
		z := (candVals[i] - refVals[i]) / std[i]
		weighted[i] = z * w
		comparisons[name] = Comparison{
			UserValue:      candVals[i],
			RefValue:       refVals[i],
			ZScore:         z,
			WeightedZScore: weighted[i],
			Weight:         w,
		}
	}

	return Result{
		Candidate:    candidate,
		Nearest:      neighbor,
		NearestIndex: idx,
		Distance:     dist,
		Comparisons:  comparisons,
		MatchScore:   matchScore(p, candVals),
		Alerts:       alert.Classify(weighted),
	}, nil
}

// matchScore summarizes overall compatibility on a 0..100 scale from the
// candidate's distance to the batch mean, averaged across features and
// rounded to one decimal.
func matchScore(p *profile.Profile, candVals [feature.Count]float64) float64 {
	mean := p.Mean()
	std := p.Std()
	total := 0.0
	for i := 0; i < feature.Count; i++ {
		d := math.Abs(candVals[i]-mean[i]) / std[i]
		total += math.Max(0, 100-d*scorePerSigma)
	}
	return math.Round(total/feature.Count*10) / 10
}
