package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/gatekeeper/internal/adapters/extraction"
	"github.com/okian/gatekeeper/internal/adapters/repository"
	service "github.com/okian/gatekeeper/internal/app"
	"github.com/okian/gatekeeper/internal/domain/feature"
	"github.com/okian/gatekeeper/internal/domain/profile"
	"github.com/okian/gatekeeper/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func vectorSource(label string, tempo, energy float64) extraction.Source {
	v := feature.FromValues(label, [feature.Count]float64{
		tempo, 0.45, 2.2, energy, 0.6, 3500, 0.05, 9,
	})
	return extraction.Source{Label: label, Vector: &v}
}

func startedService(t *testing.T) (*service.Service, context.Context) {
	t.Helper()

	svc := service.New(service.WithWorkerCount(2))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	t.Cleanup(svc.Stop)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	return svc, ctx
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithProfileTTL(30*time.Minute),
			service.WithSweepInterval(10*time.Second),
			service.WithMaxProfiles(50),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats().Started, ShouldBeTrue)
			})

			Convey("And stopping marks it stopped", func() {
				svc.Stop()
				So(svc.GetStats().Started, ShouldBeFalse)
			})
		})
	})
}

func TestService_BuildProfile(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, ctx := startedService(t)

		Convey("When building from enough usable tracks", func() {
			res, err := svc.BuildProfile(ctx, []extraction.Source{
				vectorSource("a.wav", 120, 0.18),
				vectorSource("b.wav", 130, 0.20),
				vectorSource("c.wav", 140, 0.22),
			})

			Convey("Then a profile id is issued", func() {
				So(err, ShouldBeNil)
				So(res.ProfileID, ShouldNotBeBlank)
				So(res.Accepted, ShouldHaveLength, 3)
				So(res.Rejected, ShouldBeEmpty)
			})
		})

		Convey("When one track is malformed", func() {
			bad := feature.Vector{Source: "bad", Tempo: 120, PulseClarity: 3}
			res, err := svc.BuildProfile(ctx, []extraction.Source{
				vectorSource("a.wav", 120, 0.18),
				{Label: "bad", Vector: &bad},
				vectorSource("c.wav", 140, 0.22),
			})

			Convey("Then the build still succeeds with a rejection entry", func() {
				So(err, ShouldBeNil)
				So(res.ProfileID, ShouldNotBeBlank)
				So(res.Accepted, ShouldHaveLength, 2)
				So(res.Rejected, ShouldHaveLength, 1)
				So(res.Rejected[0].Source, ShouldEqual, "bad")
			})
		})

		Convey("When the batch exceeds the track limit", func() {
			sources := make([]extraction.Source, profile.MaxTracks+1)
			for i := range sources {
				sources[i] = vectorSource("t", 120, 0.2)
			}

			_, err := svc.BuildProfile(ctx, sources)

			Convey("Then it should be rejected up front", func() {
				So(err, ShouldWrap, profile.ErrTooManyTracks)
			})
		})

		Convey("When too few tracks survive analysis", func() {
			bad := feature.Vector{Source: "bad", Tempo: 120, PulseClarity: 3}
			_, err := svc.BuildProfile(ctx, []extraction.Source{
				vectorSource("only.wav", 120, 0.2),
				{Label: "bad", Vector: &bad},
			})

			Convey("Then the build fails", func() {
				So(err, ShouldWrap, profile.ErrInsufficientData)
			})
		})
	})
}

func TestService_EvaluateCandidate(t *testing.T) {
	Convey("Given a service with a built profile", t, func() {
		svc, ctx := startedService(t)

		build, err := svc.BuildProfile(ctx, []extraction.Source{
			vectorSource("a.wav", 120, 0.18),
			vectorSource("b.wav", 130, 0.20),
			vectorSource("c.wav", 140, 0.22),
		})
		So(err, ShouldBeNil)

		Convey("When evaluating a candidate close to the batch", func() {
			res, err := svc.EvaluateCandidate(ctx, build.ProfileID, vectorSource("cand.wav", 128, 0.20))

			Convey("Then the result is fully populated", func() {
				So(err, ShouldBeNil)
				So(res.MatchScore, ShouldBeBetweenOrEqual, 0, 100)
				So(res.Comparisons, ShouldHaveLength, feature.Count)
				So(res.Narrative, ShouldNotBeBlank)
				So(res.Narrative, ShouldContainSubstring, "VERDICT")
			})
		})

		Convey("When evaluating against an unknown profile", func() {
			_, err := svc.EvaluateCandidate(ctx, "no-such-id", vectorSource("cand.wav", 128, 0.20))

			Convey("Then it should report not found", func() {
				So(err, ShouldWrap, repository.ErrNotFound)
			})
		})

		Convey("When the candidate carries no payload", func() {
			_, err := svc.EvaluateCandidate(ctx, build.ProfileID, extraction.Source{Label: "empty"})

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestService_ProfileLifecycle(t *testing.T) {
	Convey("Given a service with a built profile", t, func() {
		svc, ctx := startedService(t)

		build, err := svc.BuildProfile(ctx, []extraction.Source{
			vectorSource("a.wav", 120, 0.18),
			vectorSource("b.wav", 130, 0.20),
			vectorSource("c.wav", 140, 0.22),
		})
		So(err, ShouldBeNil)

		Convey("When fetching the profile summary", func() {
			info, err := svc.ProfileSummary(ctx, build.ProfileID)

			Convey("Then it describes every feature", func() {
				So(err, ShouldBeNil)
				So(info.ProfileID, ShouldEqual, build.ProfileID)
				So(info.TrackCount, ShouldEqual, 3)
				So(info.Features, ShouldHaveLength, feature.Count)
				So(info.Features[feature.Tempo].Mean, ShouldAlmostEqual, 130)
			})
		})

		Convey("When deleting the profile", func() {
			err := svc.DeleteProfile(ctx, build.ProfileID)

			Convey("Then subsequent lookups miss", func() {
				So(err, ShouldBeNil)
				_, err := svc.ProfileSummary(ctx, build.ProfileID)
				So(err, ShouldWrap, repository.ErrNotFound)
			})
		})

		Convey("When deleting an unknown profile", func() {
			err := svc.DeleteProfile(ctx, "no-such-id")

			Convey("Then it should report not found", func() {
				So(err, ShouldWrap, repository.ErrNotFound)
			})
		})

		Convey("When reading service stats", func() {
			stats := svc.GetStats()

			Convey("Then live profile count is reported", func() {
				So(stats.Started, ShouldBeTrue)
				So(stats.ProfilesLive, ShouldEqual, 1)
			})
		})
	})
}
