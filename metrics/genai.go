/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics provides observability for judge and summarizer calls:
// OpenTelemetry counters for token usage and call attempts, and Prometheus
// counters for evaluation outcomes.
package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// GenAI provides OpenTelemetry metrics for judge and summarizer operations.
// Uses graceful degradation: if a counter fails to initialize, a no-op
// counter takes its place rather than failing the caller.
type GenAI struct {
	meter            metric.Meter
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	judgeAttempts    metric.Int64Counter
	compactions      metric.Int64Counter
}

// NewGenAI creates a GenAI metrics instance with the specified meter name.
// The meter name should be unified across the module (e.g. "trustcheck.judge")
// with the model name serving as a dimension on the recorded metrics.
func NewGenAI(meterName string) *GenAI {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	promptTokens, err := meter.Int64Counter("genai.token.prompt",
		metric.WithDescription("The number of prompt tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create prompt tokens counter, metrics will be disabled", "error", err, "meter", meterName)
		promptTokens = noop.Int64Counter{}
	}

	completionTokens, err := meter.Int64Counter("genai.token.completion",
		metric.WithDescription("The number of completion tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create completion tokens counter, metrics will be disabled", "error", err, "meter", meterName)
		completionTokens = noop.Int64Counter{}
	}

	judgeAttempts, err := meter.Int64Counter("judge.attempts",
		metric.WithDescription("The number of judge call attempts, by outcome"),
		metric.WithUnit("{attempts}"))
	if err != nil {
		slog.Warn("Failed to create judge attempts counter, metrics will be disabled", "error", err, "meter", meterName)
		judgeAttempts = noop.Int64Counter{}
	}

	compactions, err := meter.Int64Counter("context.compactions",
		metric.WithDescription("The number of history compactions, by outcome"),
		metric.WithUnit("{compactions}"))
	if err != nil {
		slog.Warn("Failed to create compactions counter, metrics will be disabled", "error", err, "meter", meterName)
		compactions = noop.Int64Counter{}
	}

	return &GenAI{
		meter:            meter,
		promptTokens:     promptTokens,
		completionTokens: completionTokens,
		judgeAttempts:    judgeAttempts,
		compactions:      compactions,
	}
}

// RecordTokens records prompt and completion token usage for one model call.
func (m *GenAI) RecordTokens(ctx context.Context, model string, promptTokens, completionTokens int64, attrs ...attribute.KeyValue) {
	baseAttrs := append([]attribute.KeyValue{
		attribute.String("model", model),
	}, attrs...)

	m.promptTokens.Add(ctx, promptTokens, metric.WithAttributes(baseAttrs...))
	m.completionTokens.Add(ctx, completionTokens, metric.WithAttributes(baseAttrs...))
}

// RecordJudgeAttempt records one judge call attempt. Outcome is one of
// "success", "incomplete", "unparseable", or "error".
func (m *GenAI) RecordJudgeAttempt(ctx context.Context, model, outcome string) {
	m.judgeAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("outcome", outcome),
	))
}

// RecordCompaction records one history compaction. Outcome is "summarized"
// when the LLM summary succeeded or "truncated" for the degraded fallback.
func (m *GenAI) RecordCompaction(ctx context.Context, outcome string) {
	m.compactions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}
