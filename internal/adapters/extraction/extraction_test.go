package extraction_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/okian/gatekeeper/internal/adapters/extraction"
	"github.com/okian/gatekeeper/internal/domain/extract"
	"github.com/okian/gatekeeper/internal/domain/feature"
	"github.com/okian/gatekeeper/internal/domain/preset"
	"github.com/okian/gatekeeper/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// stubExtractor returns a canned fingerprint keyed by clip source, or
// a decode error for sources in the fail set.
type stubExtractor struct {
	fail map[string]bool
}

func (s stubExtractor) Extract(ctx context.Context, clip extract.Clip) (feature.Vector, error) {
	if s.fail[clip.Source] {
		return feature.Vector{}, fmt.Errorf("decode %s: %w", clip.Source, extract.ErrDecode)
	}
	return feature.FromValues(clip.Source, [feature.Count]float64{
		120, 0.4, 2.0, 0.2, 0.6, 3500, 0.05, 9,
	}), nil
}

func clipSource(label string) extraction.Source {
	return extraction.Source{
		Label: label,
		Clip:  &extract.Clip{Source: label, SampleRate: 22050, Samples: make([]float64, 22050)},
	}
}

func vectorSource(label string, tempo float64) extraction.Source {
	v := feature.FromValues(label, [feature.Count]float64{tempo, 0.4, 2.0, 0.2, 0.6, 3500, 0.05, 9})
	return extraction.Source{Label: label, Vector: &v}
}

func TestPool_Run(t *testing.T) {
	convey.Convey("Given an extraction pool", t, func() {
		ctx := context.Background()

		convey.Convey("When processing precomputed fingerprints", func() {
			pool := extraction.NewPool(stubExtractor{}, extraction.WithWorkers(4))

			sources := []extraction.Source{
				vectorSource("t0", 100),
				vectorSource("t1", 110),
				vectorSource("t2", 120),
				vectorSource("t3", 130),
				vectorSource("t4", 140),
			}

			accepted, rejected := pool.Run(ctx, sources)

			convey.Convey("Then results keep the submission order", func() {
				convey.So(rejected, convey.ShouldBeEmpty)
				convey.So(accepted, convey.ShouldHaveLength, 5)
				for i, v := range accepted {
					convey.So(v.Source, convey.ShouldEqual, fmt.Sprintf("t%d", i))
					convey.So(v.Tempo, convey.ShouldEqual, 100+float64(i)*10)
				}
			})
		})

		convey.Convey("When extracting from decoded clips", func() {
			pool := extraction.NewPool(stubExtractor{}, extraction.WithWorkers(2))

			accepted, rejected := pool.Run(ctx, []extraction.Source{
				clipSource("a.wav"),
				clipSource("b.wav"),
				clipSource("c.wav"),
			})

			convey.Convey("Then every clip yields a labeled fingerprint", func() {
				convey.So(rejected, convey.ShouldBeEmpty)
				convey.So(accepted, convey.ShouldHaveLength, 3)
				convey.So(accepted[0].Source, convey.ShouldEqual, "a.wav")
				convey.So(accepted[1].Source, convey.ShouldEqual, "b.wav")
				convey.So(accepted[2].Source, convey.ShouldEqual, "c.wav")
			})
		})

		convey.Convey("When one source in the batch fails", func() {
			pool := extraction.NewPool(
				stubExtractor{fail: map[string]bool{"broken.wav": true}},
				extraction.WithWorkers(2),
			)

			accepted, rejected := pool.Run(ctx, []extraction.Source{
				clipSource("a.wav"),
				clipSource("broken.wav"),
				clipSource("c.wav"),
			})

			convey.Convey("Then the rest of the batch continues", func() {
				convey.So(accepted, convey.ShouldHaveLength, 2)
				convey.So(accepted[0].Source, convey.ShouldEqual, "a.wav")
				convey.So(accepted[1].Source, convey.ShouldEqual, "c.wav")
				convey.So(rejected, convey.ShouldHaveLength, 1)
				convey.So(rejected[0].Source, convey.ShouldEqual, "broken.wav")
				convey.So(rejected[0].Reason, convey.ShouldContainSubstring, "not analyzable")
			})
		})

		convey.Convey("When a precomputed fingerprint is malformed", func() {
			pool := extraction.NewPool(stubExtractor{}, extraction.WithWorkers(2))

			bad := feature.Vector{Source: "bad", Tempo: 120, PulseClarity: 2.5}
			accepted, rejected := pool.Run(ctx, []extraction.Source{
				vectorSource("ok-1", 100),
				{Label: "bad", Vector: &bad},
				vectorSource("ok-2", 110),
			})

			convey.Convey("Then it is rejected with the validation reason", func() {
				convey.So(accepted, convey.ShouldHaveLength, 2)
				convey.So(rejected, convey.ShouldHaveLength, 1)
				convey.So(rejected[0].Source, convey.ShouldEqual, "bad")
				convey.So(rejected[0].Reason, convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When a source arrives already invalidated", func() {
			pool := extraction.NewPool(stubExtractor{}, extraction.WithWorkers(2))

			accepted, rejected := pool.Run(ctx, []extraction.Source{
				vectorSource("ok-1", 100),
				{Label: "bad-entry", Reject: fmt.Errorf("%w: missing field tempo", preset.ErrMalformedFingerprint)},
				vectorSource("ok-2", 110),
			})

			convey.Convey("Then its reason is surfaced verbatim", func() {
				convey.So(accepted, convey.ShouldHaveLength, 2)
				convey.So(rejected, convey.ShouldHaveLength, 1)
				convey.So(rejected[0].Source, convey.ShouldEqual, "bad-entry")
				convey.So(rejected[0].Reason, convey.ShouldContainSubstring, "malformed")
				convey.So(rejected[0].Reason, convey.ShouldContainSubstring, "missing field tempo")
			})
		})

		convey.Convey("When a source carries neither audio nor fingerprint", func() {
			pool := extraction.NewPool(stubExtractor{}, extraction.WithWorkers(2))

			accepted, rejected := pool.Run(ctx, []extraction.Source{
				vectorSource("ok-1", 100),
				{Label: "empty"},
				vectorSource("ok-2", 110),
			})

			convey.Convey("Then it is rejected", func() {
				convey.So(accepted, convey.ShouldHaveLength, 2)
				convey.So(rejected, convey.ShouldHaveLength, 1)
				convey.So(rejected[0].Source, convey.ShouldEqual, "empty")
				convey.So(rejected[0].Reason, convey.ShouldContainSubstring, "no audio or fingerprint")
			})
		})

		convey.Convey("When every source fails", func() {
			pool := extraction.NewPool(
				stubExtractor{fail: map[string]bool{"x.wav": true, "y.wav": true, "z.wav": true}},
				extraction.WithWorkers(1),
			)

			accepted, rejected := pool.Run(ctx, []extraction.Source{
				clipSource("x.wav"),
				clipSource("y.wav"),
				clipSource("z.wav"),
			})

			convey.Convey("Then the batch aborts once it can no longer succeed", func() {
				convey.So(accepted, convey.ShouldBeEmpty)
				convey.So(rejected, convey.ShouldHaveLength, 3)

				// With one worker, two failures exhaust the failure budget
				// before the last source is handed out, so it is abandoned
				// rather than extracted.
				convey.So(rejected[0].Reason, convey.ShouldContainSubstring, "not analyzable")
				convey.So(rejected[1].Reason, convey.ShouldContainSubstring, "not analyzable")
				convey.So(rejected[2].Source, convey.ShouldEqual, "z.wav")
				convey.So(rejected[2].Reason, convey.ShouldEqual, "batch aborted")
			})
		})

		convey.Convey("When the batch is empty", func() {
			pool := extraction.NewPool(stubExtractor{})

			accepted, rejected := pool.Run(ctx, nil)

			convey.Convey("Then both result sets are empty", func() {
				convey.So(accepted, convey.ShouldBeEmpty)
				convey.So(rejected, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the context is already canceled", func() {
			pool := extraction.NewPool(stubExtractor{}, extraction.WithWorkers(2))

			canceled, cancel := context.WithCancel(context.Background())
			cancel()

			accepted, rejected := pool.Run(canceled, []extraction.Source{
				clipSource("a.wav"),
				clipSource("b.wav"),
			})

			convey.Convey("Then every source is reported aborted", func() {
				convey.So(accepted, convey.ShouldBeEmpty)
				convey.So(rejected, convey.ShouldHaveLength, 2)
			})
		})
	})
}
