/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Global counters with consistent dimensions
	evaluationCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustcheck_evaluations_total",
			Help: "Total number of response evaluations performed",
		},
		[]string{"risk_level", "passed"},
	)

	parseFailureCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trustcheck_parse_failures_total",
			Help: "Total number of evaluations that fell back to neutral defaults",
		},
	)

	overallScoreGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trustcheck_overall_score",
			Help: "Most recent overall evaluation score (0.0-1.0)",
		},
	)
)

// RecordEvaluation records one completed evaluation outcome.
func RecordEvaluation(riskLevel string, passed bool, overallScore float64) {
	passedLabel := "false"
	if passed {
		passedLabel = "true"
	}
	evaluationCounter.With(prometheus.Labels{
		"risk_level": riskLevel,
		"passed":     passedLabel,
	}).Inc()
	overallScoreGauge.Set(overallScore)
}

// RecordParseFailure records an evaluation that exhausted all judge attempts
// without a parseable verdict.
func RecordParseFailure() {
	parseFailureCounter.Inc()
}
