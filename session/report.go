/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package session

import (
	"fmt"

	"chainguard.dev/trustcheck/judge"
)

const (
	// systemicQualityThreshold flags sessions whose average overall
	// score indicates a systemic quality problem.
	systemicQualityThreshold = 0.6

	// highRiskFractionThreshold flags sessions where too many
	// evaluations landed in the high risk bucket.
	highRiskFractionThreshold = 0.3

	// hallucinationAverageFloor is on the raw 0-10 scale.
	hallucinationAverageFloor = 6.0

	// toolConsistencyAverageFloor is on the raw 0-10 scale.
	toolConsistencyAverageFloor = 7.0
)

// Report aggregates a session's evaluations.
type Report struct {
	// SessionID is the session identifier.
	SessionID string `json:"session_id"`

	// TotalEvaluations counts completed evaluations.
	TotalEvaluations int `json:"total_evaluations"`

	// AverageScore is the mean overall score.
	AverageScore float64 `json:"average_score"`

	// PassRate is the fraction of evaluations that passed.
	PassRate float64 `json:"pass_rate"`

	// BestScore is the highest overall score seen.
	BestScore float64 `json:"best_score"`

	// WorstScore is the lowest overall score seen.
	WorstScore float64 `json:"worst_score"`

	// DimensionAverages maps each dimension to its mean raw score.
	DimensionAverages map[string]float64 `json:"dimension_averages"`

	// TotalCriticalIssues counts critical issues across evaluations.
	TotalCriticalIssues int `json:"total_critical_issues"`

	// RiskDistribution counts evaluations per risk level.
	RiskDistribution map[judge.RiskLevel]int `json:"risk_distribution"`

	// Recommendations lists session-level improvement suggestions.
	Recommendations []string `json:"recommendations"`

	// FailedEvaluations details evaluations that did not pass. Only
	// populated for detailed reports.
	FailedEvaluations []FailedEvaluation `json:"failed_evaluations,omitempty"`
}

// FailedEvaluation captures one non-passing evaluation in a detailed
// report.
type FailedEvaluation struct {
	// Index is the evaluation's position within the session.
	Index int `json:"index"`

	// Score is the evaluation's overall score.
	Score float64 `json:"score"`

	// RiskLevel is the evaluation's risk bucket.
	RiskLevel judge.RiskLevel `json:"risk_level"`

	// CriticalIssues lists the evaluation's critical issues.
	CriticalIssues []string `json:"critical_issues,omitempty"`
}

// Report aggregates the session's evaluations. With detailed set, it
// also lists every evaluation that failed the pass threshold.
func (s *Session) Report(detailed bool) Report {
	report := Report{
		SessionID:         s.id,
		TotalEvaluations:  len(s.evaluations),
		DimensionAverages: map[string]float64{},
		RiskDistribution:  map[judge.RiskLevel]int{},
	}
	if len(s.evaluations) == 0 {
		return report
	}

	total := float64(len(s.evaluations))
	report.BestScore = s.evaluations[0].OverallScore
	report.WorstScore = s.evaluations[0].OverallScore

	var scoreSum float64
	var passed int
	for _, e := range s.evaluations {
		scoreSum += e.OverallScore
		if e.Passed {
			passed++
		}
		report.BestScore = max(report.BestScore, e.OverallScore)
		report.WorstScore = min(report.WorstScore, e.OverallScore)
		report.RiskDistribution[e.RiskLevel]++
		report.TotalCriticalIssues += len(e.CriticalIssues)
		for name, score := range e.RawScores {
			report.DimensionAverages[name] += score
		}
	}
	report.AverageScore = scoreSum / total
	report.PassRate = float64(passed) / total
	for name := range report.DimensionAverages {
		report.DimensionAverages[name] /= total
	}
	report.Recommendations = s.recommendations(report)

	if detailed {
		for i, e := range s.evaluations {
			if e.Passed {
				continue
			}
			report.FailedEvaluations = append(report.FailedEvaluations, FailedEvaluation{
				Index:          i,
				Score:          e.OverallScore,
				RiskLevel:      e.RiskLevel,
				CriticalIssues: e.CriticalIssues,
			})
		}
	}
	return report
}

// recommendations synthesizes session-level guidance from aggregate
// trends.
func (s *Session) recommendations(report Report) []string {
	var out []string

	if report.DimensionAverages[judge.DimensionHallucination] < hallucinationAverageFloor {
		out = append(out, "High hallucination rate detected - consider stricter system prompts or a different model")
	}
	if report.DimensionAverages[judge.DimensionToolConsistency] < toolConsistencyAverageFloor {
		out = append(out, "Frequent tool consistency issues - review tool calling logic")
	}
	if report.TotalCriticalIssues > 0 {
		out = append(out, fmt.Sprintf("Found %d critical issue(s) across evaluations - review the flagged responses", report.TotalCriticalIssues))
	}
	highRisk := float64(report.RiskDistribution[judge.RiskHigh]) / float64(report.TotalEvaluations)
	if highRisk > highRiskFractionThreshold {
		out = append(out, fmt.Sprintf("%.0f%% of evaluations are high risk - review before relying on this assistant", highRisk*100))
	}
	if report.AverageScore < systemicQualityThreshold {
		out = append(out, "Overall quality below threshold - consider prompt refinement or a model change")
	}
	return out
}
