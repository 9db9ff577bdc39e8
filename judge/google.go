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
	"google.golang.org/genai"

	"chainguard.dev/trustcheck/metrics"
	"chainguard.dev/trustcheck/retry"
)

// googleClient implements Client on the Gemini API.
type googleClient struct {
	client       *genai.Client
	model        string
	temperature  float32
	retryConfig  retry.Config
	genaiMetrics *metrics.GenAI
}

// GoogleOption configures a Gemini client.
type GoogleOption func(*googleClient) error

// WithGoogleModel overrides the default Gemini model.
func WithGoogleModel(model string) GoogleOption {
	return func(g *googleClient) error {
		if model == "" {
			return errors.New("model cannot be empty")
		}
		g.model = model
		return nil
	}
}

// WithGoogleTemperature overrides the sampling temperature.
func WithGoogleTemperature(temperature float32) GoogleOption {
	return func(g *googleClient) error {
		if temperature < 0 || temperature > 2 {
			return fmt.Errorf("temperature must be in [0, 2], got %f", temperature)
		}
		g.temperature = temperature
		return nil
	}
}

// WithGoogleRetryConfig overrides the transport retry configuration.
func WithGoogleRetryConfig(cfg retry.Config) GoogleOption {
	return func(g *googleClient) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		g.retryConfig = cfg
		return nil
	}
}

// NewGoogleClient creates a Client backed by the Gemini API.
func NewGoogleClient(client *genai.Client, opts ...GoogleOption) (Client, error) {
	if client == nil {
		return nil, errors.New("client cannot be nil")
	}

	g := &googleClient{
		client:       client,
		model:        "gemini-2.5-flash",
		temperature:  0.2,
		retryConfig:  retry.DefaultConfig(),
		genaiMetrics: metrics.NewGenAI("chainguard.trustcheck.judge"),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return g, nil
}

// Model implements Client.
func (g *googleClient) Model() string {
	return g.model
}

// Complete implements Client.
func (g *googleClient) Complete(ctx context.Context, prompt string) (string, error) {
	log := clog.FromContext(ctx)

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}

	response, err := retry.WithBackoff(ctx, g.retryConfig, "gemini_complete", isRetryableGeminiError, func() (*genai.GenerateContentResponse, error) {
		return g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	})
	if err != nil {
		return "", fmt.Errorf("failed to get Gemini response: %w", err)
	}

	if response.UsageMetadata != nil {
		g.genaiMetrics.RecordTokens(ctx, g.model,
			int64(response.UsageMetadata.PromptTokenCount),
			int64(response.UsageMetadata.CandidatesTokenCount))
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", errors.New("no candidates in Gemini response")
	}

	var sb strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	text := sb.String()
	if text == "" {
		return "", errors.New("empty text response from Gemini")
	}

	log.With("model", g.model, "response_length", len(text)).
		Info("Received Gemini response")
	return text, nil
}

// isRetryableGeminiError checks if an error is a retryable Gemini API error.
// Returns true for rate limit, quota exhaustion, and transient server errors.
func isRetryableGeminiError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Resource exhausted") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "Overloaded") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "quota exceeded") ||
		strings.Contains(errStr, "Internal error") ||
		strings.Contains(errStr, "server error")
}
