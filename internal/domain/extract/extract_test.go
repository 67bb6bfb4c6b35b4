package extract_test

import (
	"context"
	"errors"
	"math"
	"testing"

	extract "github.com/okian/gatekeeper/internal/domain/extract"
	. "github.com/smartystreets/goconvey/convey"
)

// clickTrack synthesizes a click train at the given tempo. The sample rate
// is chosen so a 120 BPM beat period is an exact number of analysis hops.
func clickTrack(bpm float64, sampleRate int, seconds float64) []float64 {
	n := int(float64(sampleRate) * seconds)
	samples := make([]float64, n)
	period := int(60 / bpm * float64(sampleRate))
	for beat := 0; beat*period < n; beat++ {
		start := beat * period
		for i := 0; i < 64 && start+i < n; i++ {
			// Short decaying burst per beat.
			samples[start+i] = 0.9 * math.Exp(-float64(i)/12)
		}
	}
	return samples
}

func sineWave(freq float64, sampleRate int, seconds float64, amp float64) []float64 {
	n := int(float64(sampleRate) * seconds)
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return samples
}

func TestExtractRejectsBadInput(t *testing.T) {
	Convey("Given an extractor", t, func() {
		e := extract.New()
		ctx := context.Background()

		Convey("When the waveform is empty", func() {
			_, err := e.Extract(ctx, extract.Clip{Source: "empty.wav", SampleRate: 44100})
			So(errors.Is(err, extract.ErrDecode), ShouldBeTrue)
		})

		Convey("When the sample rate is invalid", func() {
			_, err := e.Extract(ctx, extract.Clip{Source: "bad.wav", SampleRate: 0, Samples: make([]float64, 4096)})
			So(errors.Is(err, extract.ErrDecode), ShouldBeTrue)
		})

		Convey("When the waveform is shorter than one frame", func() {
			_, err := e.Extract(ctx, extract.Clip{Source: "short.wav", SampleRate: 44100, Samples: make([]float64, 100)})
			So(errors.Is(err, extract.ErrDecode), ShouldBeTrue)
		})

		Convey("When the waveform is silent", func() {
			_, err := e.Extract(ctx, extract.Clip{Source: "silent.wav", SampleRate: 44100, Samples: make([]float64, 44100)})
			So(errors.Is(err, extract.ErrDecode), ShouldBeTrue)
		})

		Convey("When the context is already canceled", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := e.Extract(canceled, extract.Clip{Source: "c.wav", SampleRate: 8192, Samples: clickTrack(120, 8192, 2)})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestExtractClickTrack(t *testing.T) {
	Convey("Given a 120 BPM click track", t, func() {
		e := extract.New()
		clip := extract.Clip{
			Source:     "click120.wav",
			SampleRate: 8192,
			Samples:    clickTrack(120, 8192, 8),
		}

		v, err := e.Extract(context.Background(), clip)
		So(err, ShouldBeNil)

		Convey("Then the fingerprint satisfies its invariants", func() {
			So(v.Validate(), ShouldBeNil)
			So(v.Source, ShouldEqual, "click120.wav")
		})

		Convey("Then the tempo estimate lands near 120 BPM", func() {
			So(v.Tempo, ShouldBeBetween, 100, 140)
		})

		Convey("Then rhythm features reflect the regular pulse", func() {
			So(v.BeatStrength, ShouldBeGreaterThan, 0)
			So(v.OnsetRate, ShouldBeGreaterThan, 0.5)
			So(v.PulseClarity, ShouldBeGreaterThan, 0)
			So(v.PulseClarity, ShouldBeLessThanOrEqualTo, 1)
		})

		Convey("Then clicks show a wide dynamic range", func() {
			So(v.DynamicRange, ShouldBeGreaterThan, 6)
		})

		Convey("Then extraction is deterministic", func() {
			again, err := e.Extract(context.Background(), clip)
			So(err, ShouldBeNil)
			So(again, ShouldResemble, v)
		})
	})
}

func TestExtractSineWave(t *testing.T) {
	Convey("Given a steady 440 Hz sine wave", t, func() {
		e := extract.New()
		clip := extract.Clip{
			Source:     "sine440.wav",
			SampleRate: 8192,
			Samples:    sineWave(440, 8192, 4, 0.5),
		}

		v, err := e.Extract(context.Background(), clip)
		So(err, ShouldBeNil)
		So(v.Validate(), ShouldBeNil)

		Convey("Then spectral rolloff sits near the tone", func() {
			So(v.SpectralRolloff, ShouldBeBetween, 200, 700)
		})

		Convey("Then a pure tone is far from noise-like", func() {
			So(v.SpectralFlatness, ShouldBeLessThan, 0.2)
		})

		Convey("Then dynamic range is close to the sine crest factor", func() {
			So(v.DynamicRange, ShouldAlmostEqual, 3.01, 0.6)
		})

		Convey("Then energy tracks the RMS amplitude", func() {
			So(v.Energy, ShouldBeBetween, 0.2, 0.5)
		})
	})
}
