/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
)

// Request contains the transcript for a single judgment.
type Request struct {
	// Context is the accumulated context that was provided to the
	// assistant, including any tool logs and file change sections.
	Context string `json:"context,omitempty"`

	// ToolsAvailable lists the tools the assistant could have used.
	ToolsAvailable []string `json:"tools_available,omitempty"`

	// ToolsUsed lists the tools the assistant actually invoked.
	ToolsUsed []string `json:"tools_used,omitempty"`

	// Response is the assistant output being evaluated.
	Response string `json:"response"`
}

// Interface defines the contract for judge implementations.
type Interface interface {
	// Judge evaluates a response transcript across all dimensions.
	// A verdict is always returned when err is nil, even if every judge
	// attempt failed to parse; check Verdict.ParseError for degraded
	// results.
	Judge(ctx context.Context, request *Request) (*Verdict, error)
}

// Client is the minimal LLM completion surface the scorer and summarizer
// need. Implementations handle transport-level retries and token metrics;
// verdict-level retries are the scorer's job.
type Client interface {
	// Complete sends a single-turn prompt and returns the model's text.
	Complete(ctx context.Context, prompt string) (string, error)

	// Model returns the model identifier, used for metrics and result
	// attribution.
	Model() string
}

// Summarizer compacts interaction history into bounded summaries. The
// context manager uses it during compaction.
type Summarizer interface {
	// Summarize condenses a formatted history block to roughly
	// targetChars characters.
	Summarize(ctx context.Context, history string, targetChars int) (string, error)

	// Merge folds a fresh summary into the running session summary,
	// keeping the result to roughly targetChars characters.
	Merge(ctx context.Context, previous, recent string, targetChars int) (string, error)
}
