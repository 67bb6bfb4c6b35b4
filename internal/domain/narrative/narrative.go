// Package narrative renders an evaluation into a deterministic textual
// explanation aimed at an external reasoning consumer. Pure template
// expansion: no I/O, no network, no randomness.
package narrative

import (
	"fmt"
	"strings"

	"github.com/okian/gatekeeper/internal/domain/evaluate"
	"github.com/okian/gatekeeper/internal/domain/feature"
)

const preamble = `You are an expert music industry A&R assistant specializing in playlist curation.

Your task: Analyze whether a submitted track fits a specific playlist profile.

CONTEXT:
The track has been analyzed against a playlist's sonic signature using eight
acoustic parameters. Each parameter has been compared to the CLOSEST REFERENCE
TRACK from the playlist (not the average, to handle multi-modal distributions
like mixed tempos).
`

const closing = `---

INSTRUCTIONS:
1. Evaluate the track based on:
   - Overall similarity to the reference track
   - Critical rhythm features (Beat Strength, Onset Rate) - these are MOST important
   - Genre/playlist context (consider if differences are acceptable or disqualifying)

2. Provide a verdict: [PASS / REJECT / CONDITIONAL]
   - PASS: Track fits the playlist well (minor differences acceptable)
   - REJECT: Track does not fit (major incompatibilities)
   - CONDITIONAL: Could work with specific adjustments (list them)

3. Explain your reasoning in 2-3 sentences focusing on:
   - Why the track does/doesn't fit
   - Which parameters are most concerning (if any)
   - What adjustments would improve fit (if CONDITIONAL)

FORMAT YOUR RESPONSE:

VERDICT: [PASS / REJECT / CONDITIONAL]

REASONING:
[Your analysis here]
`

// Render expands the evaluation into the explanation text. Output is
// byte-for-byte identical for identical evaluations.
func Render(res evaluate.Result) string {
	var b strings.Builder
	b.WriteString(preamble)
	fmt.Fprintf(&b, "\nOverall match: %.1f%% compatible with the reference profile.\n", res.MatchScore)

	b.WriteString("\n---\n\nPARAMETER COMPARISON (Candidate vs Closest Reference):\n")
	for _, name := range feature.Names() {
		c := res.Comparisons[name]
		fmt.Fprintf(&b, "\n%s:\n", featureHeading(name))
		fmt.Fprintf(&b, "  Candidate: %.2f\n", c.UserValue)
		fmt.Fprintf(&b, "  Reference: %.2f\n", c.RefValue)
		fmt.Fprintf(&b, "  Weighted Z-Score: %.2f (weight: %gx)\n", c.WeightedZScore, c.Weight)
	}

	b.WriteString("\n---\n\n")
	if len(res.Alerts) == 0 {
		b.WriteString("No critical issues detected.\n")
	} else {
		b.WriteString("ALERTS:\n")
		for _, a := range res.Alerts {
			fmt.Fprintf(&b, "  - %s: %.1f sigma from reference (%s)\n",
				feature.Label(a.Feature), a.Magnitude, a.Severity)
		}
	}

	b.WriteString("\n")
	b.WriteString(closing)
	return b.String()
}

// featureHeading joins the display label with its unit when one exists.
func featureHeading(n feature.Name) string {
	if unit := feature.Unit(n); unit != "" {
		return fmt.Sprintf("%s (%s)", feature.Label(n), unit)
	}
	return feature.Label(n)
}
