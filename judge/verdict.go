/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"fmt"
)

// Issue is a single cited problem the judge found in a response.
type Issue struct {
	// Claim is the problematic assertion from the response.
	Claim string `json:"claim"`

	// Reason explains why the claim is a problem.
	Reason string `json:"reason"`

	// Quote is the supporting excerpt from the response.
	Quote string `json:"quote"`
}

// DimensionEvidence holds the judge's rationale and cited issues for one
// dimension.
type DimensionEvidence struct {
	// ScoreRationale explains the score for this dimension.
	ScoreRationale string `json:"score_rationale"`

	// Issues lists specific cited problems. Empty for clean dimensions.
	Issues []Issue `json:"issues"`
}

// Verdict is the parsed output of a single judge call. Scores are on the
// raw 0-10 scale and always cover the full dimension set; dimensions the
// judge omitted are filled with NeutralScore.
type Verdict struct {
	// Scores maps dimension name to its 0-10 score.
	Scores map[string]float64 `json:"scores"`

	// Evidence maps dimension name to rationale and cited issues. May be
	// missing entries the judge did not elaborate on.
	Evidence map[string]DimensionEvidence `json:"evidence"`

	// Summary is the judge's 2-3 sentence overall assessment.
	Summary string `json:"summary"`

	// CriticalIssues lists problems that should block acceptance.
	CriticalIssues []string `json:"critical_issues"`

	// Recommendations lists actionable improvement suggestions.
	Recommendations []string `json:"recommendations"`

	// ParseError is set only when every judge attempt failed and the
	// verdict carries neutral default scores.
	ParseError string `json:"parse_error,omitempty"`
}

// verdictWire is the tolerant decode target for raw judge output. Scores
// stay a map so partial or over-complete outputs still decode; the scorer
// decides what to do with missing dimensions.
type verdictWire struct {
	Scores          map[string]float64           `json:"scores"`
	Evidence        map[string]DimensionEvidence `json:"evidence"`
	Summary         string                       `json:"summary"`
	CriticalIssues  []string                     `json:"critical_issues"`
	Recommendations []string                     `json:"recommendations"`
}

// missingDimensions reports which canonical dimensions have no score.
func (w *verdictWire) missingDimensions() []string {
	var missing []string
	for _, d := range dimensions {
		if _, ok := w.Scores[d.Name]; !ok {
			missing = append(missing, d.Name)
		}
	}
	return missing
}

// toVerdict converts wire output into a complete Verdict: missing
// dimensions get NeutralScore, and all scores are clamped to [0, 10].
func (w *verdictWire) toVerdict() *Verdict {
	scores := make(map[string]float64, len(dimensions))
	for _, d := range dimensions {
		score, ok := w.Scores[d.Name]
		if !ok {
			score = NeutralScore
		}
		scores[d.Name] = clampScore(score)
	}

	evidence := w.Evidence
	if evidence == nil {
		evidence = map[string]DimensionEvidence{}
	}

	return &Verdict{
		Scores:          scores,
		Evidence:        evidence,
		Summary:         w.Summary,
		CriticalIssues:  w.CriticalIssues,
		Recommendations: w.Recommendations,
	}
}

// neutralVerdict is the deterministic fallback when every judge attempt
// failed to produce a parseable verdict.
func neutralVerdict(attempts int, lastErr string) *Verdict {
	scores := make(map[string]float64, len(dimensions))
	for _, d := range dimensions {
		scores[d.Name] = NeutralScore
	}
	return &Verdict{
		Scores:          scores,
		Evidence:        map[string]DimensionEvidence{},
		Summary:         fmt.Sprintf("Evaluation failed after %d attempts: %s", attempts, lastErr),
		CriticalIssues:  []string{"Evaluation parse failure"},
		Recommendations: []string{},
		ParseError:      lastErr,
	}
}

func clampScore(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 10:
		return 10
	default:
		return score
	}
}
