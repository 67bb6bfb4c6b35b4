package narrative_test

import (
	"strings"
	"testing"

	evaluate "github.com/okian/gatekeeper/internal/domain/evaluate"
	feature "github.com/okian/gatekeeper/internal/domain/feature"
	narrative "github.com/okian/gatekeeper/internal/domain/narrative"
	profile "github.com/okian/gatekeeper/internal/domain/profile"
	. "github.com/smartystreets/goconvey/convey"
)

func fixtureResult(t *testing.T, tempo float64) evaluate.Result {
	t.Helper()
	base := feature.Vector{
		Source: "", Tempo: 120, BeatStrength: 1.5, OnsetRate: 3,
		Energy: 0.2, PulseClarity: 0.6, SpectralRolloff: 5000,
		SpectralFlatness: 0.05, DynamicRange: 12,
	}
	a, b := base, base
	a.Source, b.Source = "a", "b"
	b.Tempo, b.BeatStrength = 140, 1.9

	p, err := profile.Fit([]feature.Vector{a, b})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	cand := base
	cand.Source = "candidate.wav"
	cand.Tempo = tempo
	res, err := evaluate.Evaluate(p, cand)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	return res
}

func TestRenderStructure(t *testing.T) {
	Convey("Given a rendered narrative", t, func() {
		res := fixtureResult(t, 121)
		text := narrative.Render(res)

		Convey("Then it opens with the fixed preamble", func() {
			So(text, ShouldStartWith, "You are an expert music industry A&R assistant")
		})

		Convey("Then every feature appears by display label", func() {
			for _, n := range feature.Names() {
				So(text, ShouldContainSubstring, feature.Label(n))
			}
		})

		Convey("Then feature blocks follow the canonical order", func() {
			names := feature.Names()
			prev := -1
			for _, n := range names {
				idx := strings.Index(text, feature.Label(n)+":")
				if idx < 0 {
					idx = strings.Index(text, feature.Label(n)+" (")
				}
				So(idx, ShouldBeGreaterThan, prev)
				prev = idx
			}
		})

		Convey("Then it closes with the verdict instruction block", func() {
			So(text, ShouldContainSubstring, "VERDICT: [PASS / REJECT / CONDITIONAL]")
		})
	})
}

func TestRenderAlertsBlock(t *testing.T) {
	Convey("Given an evaluation without alerts", t, func() {
		res := fixtureResult(t, 121)
		So(res.Alerts, ShouldBeEmpty)

		Convey("Then the empty block is rendered explicitly", func() {
			So(narrative.Render(res), ShouldContainSubstring, "No critical issues detected.")
		})
	})

	Convey("Given an evaluation with alerts", t, func() {
		// Tempo far outside the batch spread trips the non-rhythm warning.
		res := fixtureResult(t, 460)
		So(res.Alerts, ShouldNotBeEmpty)

		text := narrative.Render(res)
		Convey("Then each alert is listed with its severity", func() {
			So(text, ShouldContainSubstring, "ALERTS:")
			So(text, ShouldContainSubstring, "WARNING")
		})
	})
}

func TestRenderDeterminism(t *testing.T) {
	Convey("Given the same evaluation rendered twice", t, func() {
		res := fixtureResult(t, 133)
		So(narrative.Render(res), ShouldEqual, narrative.Render(res))
	})
}
