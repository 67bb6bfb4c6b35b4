package extract

import (
	"math"
	"math/cmplx"
)

// hannWindow returns an n-point Hann window.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// spectrogram computes framed, Hann-windowed magnitude spectra. Each row
// holds frameSize/2+1 magnitudes for one hop.
func (e *Extractor) spectrogram(samples []float64) [][]float64 {
	frames := 1 + (len(samples)-e.frameSize)/e.hopSize
	mags := make([][]float64, 0, frames)

	buf := make([]float64, e.frameSize)
	coeffs := make([]complex128, e.frameSize/2+1)
	for t := 0; t < frames; t++ {
		start := t * e.hopSize
		for i := 0; i < e.frameSize; i++ {
			buf[i] = samples[start+i] * e.window[i]
		}
		coeffs = e.fft.Coefficients(coeffs, buf)
		mag := make([]float64, len(coeffs))
		for k, c := range coeffs {
			mag[k] = cmplx.Abs(c)
		}
		mags = append(mags, mag)
	}
	return mags
}

// onsetEnvelope computes the onset-strength signal as half-wave rectified
// spectral flux between consecutive frames. Length is len(mags)-1.
func onsetEnvelope(mags [][]float64) []float64 {
	if len(mags) < 2 {
		return nil
	}
	env := make([]float64, 0, len(mags)-1)
	for t := 1; t < len(mags); t++ {
		flux := 0.0
		for k := range mags[t] {
			if d := mags[t][k] - mags[t-1][k]; d > 0 {
				flux += d
			}
		}
		env = append(env, flux/float64(len(mags[t])))
	}
	return env
}
