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

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/chainguard-dev/clog"

	"chainguard.dev/trustcheck/metrics"
	"chainguard.dev/trustcheck/retry"
)

// claudeClient implements Client on the Anthropic Messages API.
type claudeClient struct {
	client       anthropic.Client
	model        string
	maxTokens    int64
	temperature  float64
	retryConfig  retry.Config
	genaiMetrics *metrics.GenAI
}

// ClaudeOption configures a Claude client.
type ClaudeOption func(*claudeClient) error

// WithClaudeModel overrides the default Claude model.
func WithClaudeModel(model string) ClaudeOption {
	return func(c *claudeClient) error {
		if model == "" {
			return errors.New("model cannot be empty")
		}
		c.model = model
		return nil
	}
}

// WithClaudeMaxTokens overrides the response token budget.
func WithClaudeMaxTokens(maxTokens int64) ClaudeOption {
	return func(c *claudeClient) error {
		if maxTokens <= 0 {
			return fmt.Errorf("max tokens must be positive, got %d", maxTokens)
		}
		c.maxTokens = maxTokens
		return nil
	}
}

// WithClaudeTemperature overrides the sampling temperature.
func WithClaudeTemperature(temperature float64) ClaudeOption {
	return func(c *claudeClient) error {
		if temperature < 0 || temperature > 1 {
			return fmt.Errorf("temperature must be in [0, 1], got %f", temperature)
		}
		c.temperature = temperature
		return nil
	}
}

// WithClaudeRetryConfig overrides the transport retry configuration.
func WithClaudeRetryConfig(cfg retry.Config) ClaudeOption {
	return func(c *claudeClient) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		c.retryConfig = cfg
		return nil
	}
}

// NewClaudeClient creates a Client backed by the Anthropic Messages API.
func NewClaudeClient(client anthropic.Client, opts ...ClaudeOption) (Client, error) {
	c := &claudeClient{
		client:       client,
		model:        "claude-sonnet-4-5-20250929",
		maxTokens:    8192,
		temperature:  0.2,
		retryConfig:  retry.DefaultConfig(),
		genaiMetrics: metrics.NewGenAI("chainguard.trustcheck.judge"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return c, nil
}

// Model implements Client.
func (c *claudeClient) Model() string {
	return c.model
}

// Complete implements Client.
func (c *claudeClient) Complete(ctx context.Context, prompt string) (string, error) {
	log := clog.FromContext(ctx)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{{
			Role: anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(prompt),
			},
		}},
	}
	params.Temperature = anthropic.Float(c.temperature)

	message, err := retry.WithBackoff(ctx, c.retryConfig, "claude_complete", isRetryableClaudeError, func() (*anthropic.Message, error) {
		return c.client.Messages.New(ctx, params)
	})
	if err != nil {
		return "", fmt.Errorf("failed to get Claude response: %w", err)
	}

	if message.Usage.InputTokens > 0 || message.Usage.OutputTokens > 0 {
		c.genaiMetrics.RecordTokens(ctx, c.model, message.Usage.InputTokens, message.Usage.OutputTokens)
	}

	var sb strings.Builder
	for _, content := range message.Content {
		if content.Type == "text" {
			sb.WriteString(content.Text)
		}
	}
	text := sb.String()
	if text == "" {
		return "", errors.New("empty text response from Claude")
	}

	log.With("model", c.model, "response_length", len(text)).
		Info("Received Claude response")
	return text, nil
}

// isRetryableClaudeError checks if an error is a retryable Claude API error.
// Returns true for rate limit, overloaded, and transient server errors.
func isRetryableClaudeError(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 503, 504, 529:
			return true
		}
	}
	return false
}
