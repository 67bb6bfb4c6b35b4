// Package extract computes the eight-field acoustic fingerprint from a
// decoded mono waveform. Extraction is pure and deterministic: the same
// samples always produce the same fingerprint.
package extract

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/gatekeeper/internal/domain/feature"
)

// Default analysis parameters.
const (
	defaultFrameSize = 2048
	defaultHopSize   = 512

	// rolloffPercent is the cumulative-energy fraction for spectral rolloff.
	rolloffPercent = 0.85

	// pulseNorm is the empirical normalization constant for pulse clarity;
	// tempogram peak/mean ratios land in roughly 2..10 for real material.
	pulseNorm = 10.0

	// Tempo search range in beats per minute.
	minBPM = 40.0
	maxBPM = 240.0

	// epsilon floors every denominator in the pipeline.
	epsilon = 1e-9
)

// Clip is a decoded mono waveform. Decoding from container formats is an
// external collaborator's job; this package only sees raw samples.
type Clip struct {
	Source     string
	SampleRate int
	Samples    []float64
}

// Option applies a configuration option to the Extractor.
type Option func(*Extractor)

// WithFrameSize sets the FFT frame length in samples.
func WithFrameSize(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.frameSize = n
		}
	}
}

// WithHopSize sets the hop between successive frames in samples.
func WithHopSize(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.hopSize = n
		}
	}
}

// Extractor computes fingerprints. Safe for concurrent use: Extract does
// not mutate the extractor.
type Extractor struct {
	frameSize int
	hopSize   int
	window    []float64
	fft       *fourier.FFT
}

// New creates an Extractor with configuration options.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		frameSize: defaultFrameSize,
		hopSize:   defaultHopSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.window = hannWindow(e.frameSize)
	e.fft = fourier.NewFFT(e.frameSize)
	return e
}

// Extract computes the fingerprint for one clip. It fails with ErrDecode
// for empty, silent, or too-short input, honoring ctx between stages.
func (e *Extractor) Extract(ctx context.Context, clip Clip) (feature.Vector, error) {
	if err := ctx.Err(); err != nil {
		return feature.Vector{}, fmt.Errorf("extraction canceled: %w", err)
	}
	if len(clip.Samples) == 0 {
		return feature.Vector{}, fmt.Errorf("%w: empty waveform (%s)", ErrDecode, clip.Source)
	}
	if clip.SampleRate <= 0 {
		return feature.Vector{}, fmt.Errorf("%w: invalid sample rate %d (%s)", ErrDecode, clip.SampleRate, clip.Source)
	}
	if len(clip.Samples) < e.frameSize {
		return feature.Vector{}, fmt.Errorf("%w: %d samples is shorter than one analysis frame (%s)", ErrDecode, len(clip.Samples), clip.Source)
	}

	peak := 0.0
	sumSq := 0.0
	for _, s := range clip.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
		sumSq += s * s
	}
	if peak == 0 {
		return feature.Vector{}, fmt.Errorf("%w: silent waveform (%s)", ErrDecode, clip.Source)
	}
	rms := math.Sqrt(sumSq / float64(len(clip.Samples)))

	mags := e.spectrogram(clip.Samples)
	if err := ctx.Err(); err != nil {
		return feature.Vector{}, fmt.Errorf("extraction canceled: %w", err)
	}

	onsetEnv := onsetEnvelope(mags)
	frameRate := float64(clip.SampleRate) / float64(e.hopSize)
	duration := float64(len(clip.Samples)) / float64(clip.SampleRate)

	vals := [feature.Count]float64{}
	vals[0] = tempoFromEnvelope(onsetEnv, frameRate)
	vals[1] = meanOf(onsetEnv)
	vals[2] = float64(countOnsets(onsetEnv)) / math.Max(duration, epsilon)
	vals[3] = e.meanRMS(clip.Samples)
	vals[4] = pulseClarity(onsetEnv, frameRate)
	vals[5] = e.spectralRolloff(mags, clip.SampleRate)
	vals[6] = spectralFlatness(mags)
	vals[7] = 20 * math.Log10(peak/math.Max(rms, epsilon))

	// Degenerate material can push individual measures to NaN; report
	// those as zero rather than poisoning downstream statistics.
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			vals[i] = 0
		}
	}

	return feature.FromValues(clip.Source, vals), nil
}

// meanRMS returns the mean of the frame-wise RMS envelope.
func (e *Extractor) meanRMS(samples []float64) float64 {
	n := len(samples)
	frames := 1 + (n-e.frameSize)/e.hopSize
	env := make([]float64, 0, frames)
	for t := 0; t < frames; t++ {
		start := t * e.hopSize
		frame := samples[start : start+e.frameSize]
		sum := 0.0
		for _, s := range frame {
			sum += s * s
		}
		env = append(env, math.Sqrt(sum/float64(len(frame))))
	}
	return meanOf(env)
}

// spectralRolloff returns the mean frequency below which rolloffPercent of
// the per-frame spectral energy is concentrated.
func (e *Extractor) spectralRolloff(mags [][]float64, sampleRate int) float64 {
	binHz := float64(sampleRate) / float64(e.frameSize)
	rolloffs := make([]float64, 0, len(mags))
	for _, mag := range mags {
		total := 0.0
		for _, m := range mag {
			total += m * m
		}
		if total <= epsilon {
			rolloffs = append(rolloffs, 0)
			continue
		}
		target := rolloffPercent * total
		cum := 0.0
		bin := len(mag) - 1
		for k, m := range mag {
			cum += m * m
			if cum >= target {
				bin = k
				break
			}
		}
		rolloffs = append(rolloffs, float64(bin)*binHz)
	}
	return meanOf(rolloffs)
}

// spectralFlatness returns the mean per-frame ratio of geometric to
// arithmetic mean of the power spectrum.
func spectralFlatness(mags [][]float64) float64 {
	flats := make([]float64, 0, len(mags))
	for _, mag := range mags {
		logSum := 0.0
		sum := 0.0
		for _, m := range mag {
			p := m*m + epsilon
			logSum += math.Log(p)
			sum += p
		}
		n := float64(len(mag))
		gm := math.Exp(logSum / n)
		am := sum / n
		flats = append(flats, gm/math.Max(am, epsilon))
	}
	return meanOf(flats)
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// countOnsets counts local maxima of the onset envelope that rise above
// the envelope mean plus one standard deviation.
func countOnsets(env []float64) int {
	if len(env) < 3 {
		return 0
	}
	threshold := stat.Mean(env, nil) + stat.StdDev(env, nil)
	count := 0
	for i := 1; i < len(env)-1; i++ {
		if env[i] > threshold && env[i] > env[i-1] && env[i] >= env[i+1] {
			count++
		}
	}
	return count
}

// tempoFromEnvelope estimates the dominant beat rate in BPM from the
// periodicity of the onset envelope.
func tempoFromEnvelope(env []float64, frameRate float64) float64 {
	lagMin, lagMax := lagRange(len(env), frameRate)
	if lagMin >= lagMax {
		return 0
	}
	if floats.Max(env) <= 0 {
		return 0
	}
	bestLag, bestScore := 0, 0.0
	for lag := lagMin; lag <= lagMax; lag++ {
		score := autocorrAt(env, lag)
		if score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}
	if bestLag == 0 || bestScore <= 0 {
		return 0
	}
	return 60 * frameRate / float64(bestLag)
}

// pulseClarity measures rhythmic regularity: the ratio of the tempogram's
// global peak to its mean energy, normalized by pulseNorm and clamped to
// [0, 1]. Deliberately independent of the envelope's absolute amplitude.
func pulseClarity(env []float64, frameRate float64) float64 {
	lagMin, lagMax := lagRange(len(env), frameRate)
	if lagMin >= lagMax || len(env) == 0 {
		return 0
	}
	if floats.Max(env) <= 0 {
		return 0
	}

	// Time-tempo surface: windowed autocorrelation of the onset envelope.
	winLen := len(env) / 2
	if winLen < lagMax*2 {
		winLen = len(env)
	}
	hop := winLen / 4
	if hop < 1 {
		hop = 1
	}

	peakVal, sum, count := 0.0, 0.0, 0
	for start := 0; start+winLen <= len(env); start += hop {
		win := env[start : start+winLen]
		for lag := lagMin; lag <= lagMax && lag < len(win); lag++ {
			v := autocorrAt(win, lag)
			sum += v
			count++
			if v > peakVal {
				peakVal = v
			}
		}
	}
	if count == 0 {
		return 0
	}
	mean := sum / float64(count)
	if mean <= epsilon {
		return 0
	}
	ratio := peakVal / mean / pulseNorm
	return math.Max(0, math.Min(1, ratio))
}

// lagRange converts the BPM search range to autocorrelation lags, capped
// by the envelope length.
func lagRange(envLen int, frameRate float64) (int, int) {
	lagMin := int(math.Round(60 * frameRate / maxBPM))
	if lagMin < 1 {
		lagMin = 1
	}
	lagMax := int(math.Round(60 * frameRate / minBPM))
	if lagMax > envLen-1 {
		lagMax = envLen - 1
	}
	return lagMin, lagMax
}

// autocorrAt returns the mean product of the envelope with itself shifted
// by lag frames.
func autocorrAt(env []float64, lag int) float64 {
	n := len(env) - lag
	if n <= 0 {
		return 0
	}
	return floats.Dot(env[:n], env[lag:]) / float64(n)
}
