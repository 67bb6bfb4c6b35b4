package presetgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/okian/gatekeeper/internal/domain/feature"
	"github.com/okian/gatekeeper/internal/domain/preset"
	"github.com/okian/gatekeeper/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
)

// span is an inclusive value range for one feature.
type span struct {
	min, max float64
}

func (s span) sample() float64 {
	return s.min + getRandomFloat()*(s.max-s.min)
}

// styleSpec describes the plausible fingerprint ranges for one sound style.
type styleSpec struct {
	tempo        span
	beatStrength span
	onsetRate    span
	energy       span
	pulseClarity span
	rolloff      span
	flatness     span
	dynamicRange span
}

// styles maps style names to the ranges their fingerprints are drawn from.
var styles = map[string]styleSpec{
	"techno": {
		tempo:        span{125, 135},
		beatStrength: span{0.6, 0.9},
		onsetRate:    span{3.0, 5.0},
		energy:       span{0.25, 0.40},
		pulseClarity: span{0.6, 0.9},
		rolloff:      span{5000, 8000},
		flatness:     span{0.10, 0.30},
		dynamicRange: span{4, 8},
	},
	"ambient": {
		tempo:        span{60, 90},
		beatStrength: span{0.05, 0.20},
		onsetRate:    span{0.2, 1.0},
		energy:       span{0.05, 0.15},
		pulseClarity: span{0.05, 0.30},
		rolloff:      span{1500, 3500},
		flatness:     span{0.02, 0.10},
		dynamicRange: span{10, 20},
	},
	"rock": {
		tempo:        span{100, 140},
		beatStrength: span{0.4, 0.7},
		onsetRate:    span{2.0, 4.0},
		energy:       span{0.20, 0.35},
		pulseClarity: span{0.4, 0.7},
		rolloff:      span{4000, 7000},
		flatness:     span{0.05, 0.15},
		dynamicRange: span{8, 14},
	},
	"jazz": {
		tempo:        span{80, 160},
		beatStrength: span{0.2, 0.5},
		onsetRate:    span{1.5, 3.5},
		energy:       span{0.10, 0.25},
		pulseClarity: span{0.2, 0.5},
		rolloff:      span{3000, 6000},
		flatness:     span{0.03, 0.12},
		dynamicRange: span{12, 20},
	},
}

// StyleNames lists the supported styles.
func StyleNames() []string {
	names := make([]string, 0, len(styles))
	for name := range styles {
		names = append(names, name)
	}
	return names
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// generateEntries creates the requested number of style-consistent fingerprints.
func generateEntries(ctx context.Context, config *Config, stats *Stats) ([]preset.Entry, error) {
	spec, ok := styles[config.Style]
	if !ok {
		return nil, fmt.Errorf("unknown style %q (have %v)", config.Style, StyleNames())
	}

	logger.Get().Info(ctx, "generating fingerprints",
		logger.String("style", config.Style),
		logger.Int("numTracks", config.NumTracks))

	entries := make([]preset.Entry, config.NumTracks)

	workerCount := minInt(config.Workers, config.NumTracks)
	if workerCount < 1 {
		workerCount = 1
	}
	perWorker := config.NumTracks / workerCount

	type genResult struct {
		index int
		entry preset.Entry
		err   error
	}
	resultChan := make(chan genResult, config.NumTracks)

	for worker := 0; worker < workerCount; worker++ {
		start := worker * perWorker
		end := start + perWorker
		if worker == workerCount-1 {
			end = config.NumTracks
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- genResult{index: i, err: ctx.Err()}
					return
				default:
					resultChan <- genResult{index: i, entry: generateSingleEntry(config.Style, spec, i)}
				}
			}
		}(start, end)
	}

	for i := 0; i < config.NumTracks; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate entry %d: %w", result.index, result.err)
			}
			entries[result.index] = result.entry
		}
	}

	stats.TracksGenerated = len(entries)
	logger.Get().Info(ctx, "generated fingerprints successfully", logger.Int("count", len(entries)))

	return entries, nil
}

// generateSingleEntry draws one fingerprint from the style's ranges.
func generateSingleEntry(style string, spec styleSpec, index int) preset.Entry {
	v := feature.FromValues(
		fmt.Sprintf("%s_%03d.wav", style, index),
		[feature.Count]float64{
			spec.tempo.sample(),
			spec.beatStrength.sample(),
			spec.onsetRate.sample(),
			spec.energy.sample(),
			spec.pulseClarity.sample(),
			spec.rolloff.sample(),
			spec.flatness.sample(),
			spec.dynamicRange.sample(),
		},
	)
	return preset.EntryFromVector(v)
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
