/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
)

// summarizer implements Summarizer on top of a Client. Compaction
// typically uses a cheaper model than judging, so it takes its own client.
type summarizer struct {
	client Client
}

// NewSummarizer creates a Summarizer backed by the given client.
func NewSummarizer(client Client) (Summarizer, error) {
	if client == nil {
		return nil, errors.New("client cannot be nil")
	}
	return &summarizer{client: client}, nil
}

// Summarize implements Summarizer.
func (s *summarizer) Summarize(ctx context.Context, history string, targetChars int) (string, error) {
	if strings.TrimSpace(history) == "" {
		return "", errors.New("history cannot be empty")
	}
	if targetChars <= 0 {
		return "", fmt.Errorf("target chars must be positive, got %d", targetChars)
	}

	prompt, err := buildSummarizePrompt(history, targetChars)
	if err != nil {
		return "", fmt.Errorf("failed to build summarize prompt: %w", err)
	}

	clog.FromContext(ctx).With("model", s.client.Model(), "history_length", len(history)).
		Info("Summarizing interaction history")

	summary, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("summarization failed: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

// Merge implements Summarizer.
func (s *summarizer) Merge(ctx context.Context, previous, recent string, targetChars int) (string, error) {
	if strings.TrimSpace(previous) == "" {
		return "", errors.New("previous summary cannot be empty")
	}
	if strings.TrimSpace(recent) == "" {
		return "", errors.New("recent summary cannot be empty")
	}
	if targetChars <= 0 {
		return "", fmt.Errorf("target chars must be positive, got %d", targetChars)
	}

	prompt, err := buildMergePrompt(previous, recent, targetChars)
	if err != nil {
		return "", fmt.Errorf("failed to build merge prompt: %w", err)
	}

	clog.FromContext(ctx).With("model", s.client.Model()).
		Info("Merging session summaries")

	merged, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("summary merge failed: %w", err)
	}
	return strings.TrimSpace(merged), nil
}
