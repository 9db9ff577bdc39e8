/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"time"

	"chainguard.dev/trustcheck/metrics"
)

// Aggregation weights. Hallucination dominates because fabricated content
// is the failure mode this pipeline exists to catch.
const (
	hallucinationWeight   = 0.4
	toolConsistencyWeight = 0.3
	qualityWeight         = 0.3
)

// DefaultPassThreshold is the overall score at or above which an
// evaluation passes.
const DefaultPassThreshold = 0.7

// RiskLevel buckets an overall score.
type RiskLevel string

const (
	// RiskLow indicates an overall score of 0.8 or above.
	RiskLow RiskLevel = "low"
	// RiskMedium indicates an overall score in [0.6, 0.8).
	RiskMedium RiskLevel = "medium"
	// RiskHigh indicates an overall score below 0.6.
	RiskHigh RiskLevel = "high"
)

// riskLevelFor buckets an overall score. Boundary scores land in the less
// severe bucket: exactly 0.6 is medium, exactly 0.8 is low.
func riskLevelFor(overall float64) RiskLevel {
	switch {
	case overall < 0.6:
		return RiskHigh
	case overall < 0.8:
		return RiskMedium
	default:
		return RiskLow
	}
}

// DimensionResult is one dimension's contribution to an evaluation,
// combining the raw score with the judge's rationale and cited issues.
type DimensionResult struct {
	// Name is the dimension key.
	Name string `json:"name"`

	// Score is the raw 0-10 score.
	Score float64 `json:"score"`

	// Rationale is the judge's explanation for the score.
	Rationale string `json:"rationale,omitempty"`

	// Issues lists the cited problems for this dimension.
	Issues []Issue `json:"issues,omitempty"`
}

// EvaluationResult is the aggregated outcome of one evaluation.
type EvaluationResult struct {
	// Timestamp records when the evaluation completed.
	Timestamp time.Time `json:"timestamp"`

	// Model is the judge model that produced the verdict.
	Model string `json:"model"`

	// OverallScore is the weighted aggregate on a 0-1 scale.
	OverallScore float64 `json:"overall_score"`

	// RiskLevel buckets the overall score.
	RiskLevel RiskLevel `json:"risk_level"`

	// Passed reports whether OverallScore met the pass threshold.
	Passed bool `json:"passed"`

	// HallucinationScore is the hallucination dimension on a 0-1 scale.
	HallucinationScore float64 `json:"hallucination_score"`

	// ToolConsistencyScore is the tool consistency dimension on a 0-1
	// scale.
	ToolConsistencyScore float64 `json:"tool_consistency_score"`

	// QualityScore is the mean of the six quality dimensions on a 0-1
	// scale.
	QualityScore float64 `json:"quality_score"`

	// RawScores maps dimension name to its raw 0-10 score.
	RawScores map[string]float64 `json:"raw_scores"`

	// Dimensions carries per-dimension detail in rubric order.
	Dimensions []DimensionResult `json:"dimensions"`

	// Summary is the judge's overall assessment.
	Summary string `json:"summary"`

	// CriticalIssues lists problems that should block acceptance.
	CriticalIssues []string `json:"critical_issues"`

	// Recommendations lists actionable improvement suggestions.
	Recommendations []string `json:"recommendations"`

	// ParseError is carried over from a degraded verdict.
	ParseError string `json:"parse_error,omitempty"`
}

// Aggregate folds a verdict into an EvaluationResult using the canonical
// weights: 0.4 hallucination, 0.3 tool consistency, 0.3 mean of the
// remaining quality dimensions, each normalized to 0-1 first.
func Aggregate(verdict *Verdict, model string, passThreshold float64) *EvaluationResult {
	hallucination := verdict.Scores[DimensionHallucination] / 10.0
	toolConsistency := verdict.Scores[DimensionToolConsistency] / 10.0

	var qualitySum float64
	for _, name := range qualityDimensions {
		qualitySum += verdict.Scores[name]
	}
	quality := qualitySum / float64(len(qualityDimensions)) / 10.0

	overall := hallucinationWeight*hallucination +
		toolConsistencyWeight*toolConsistency +
		qualityWeight*quality

	risk := riskLevelFor(overall)
	passed := overall >= passThreshold

	dims := make([]DimensionResult, 0, len(dimensions))
	for _, d := range dimensions {
		evidence := verdict.Evidence[d.Name]
		dims = append(dims, DimensionResult{
			Name:      d.Name,
			Score:     verdict.Scores[d.Name],
			Rationale: evidence.ScoreRationale,
			Issues:    evidence.Issues,
		})
	}

	metrics.RecordEvaluation(string(risk), passed, overall)

	return &EvaluationResult{
		Timestamp:            time.Now().UTC(),
		Model:                model,
		OverallScore:         overall,
		RiskLevel:            risk,
		Passed:               passed,
		HallucinationScore:   hallucination,
		ToolConsistencyScore: toolConsistency,
		QualityScore:         quality,
		RawScores:            verdict.Scores,
		Dimensions:           dims,
		Summary:              verdict.Summary,
		CriticalIssues:       verdict.CriticalIssues,
		Recommendations:      verdict.Recommendations,
		ParseError:           verdict.ParseError,
	}
}
