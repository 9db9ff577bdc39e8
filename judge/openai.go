/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/openai/openai-go"

	"chainguard.dev/trustcheck/metrics"
	"chainguard.dev/trustcheck/retry"
)

// openaiClient implements Client on the OpenAI Chat Completions API.
type openaiClient struct {
	client       openai.Client
	model        string
	temperature  float64
	retryConfig  retry.Config
	genaiMetrics *metrics.GenAI
}

// OpenAIOption configures an OpenAI client.
type OpenAIOption func(*openaiClient) error

// WithOpenAIModel overrides the default OpenAI model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(o *openaiClient) error {
		if model == "" {
			return errors.New("model cannot be empty")
		}
		o.model = model
		return nil
	}
}

// WithOpenAITemperature overrides the sampling temperature.
func WithOpenAITemperature(temperature float64) OpenAIOption {
	return func(o *openaiClient) error {
		if temperature < 0 || temperature > 2 {
			return fmt.Errorf("temperature must be in [0, 2], got %f", temperature)
		}
		o.temperature = temperature
		return nil
	}
}

// WithOpenAIRetryConfig overrides the transport retry configuration.
func WithOpenAIRetryConfig(cfg retry.Config) OpenAIOption {
	return func(o *openaiClient) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.retryConfig = cfg
		return nil
	}
}

// NewOpenAIClient creates a Client backed by the OpenAI Chat Completions
// API.
func NewOpenAIClient(client openai.Client, opts ...OpenAIOption) (Client, error) {
	o := &openaiClient{
		client:       client,
		model:        openai.ChatModelGPT4o,
		temperature:  0.2,
		retryConfig:  retry.DefaultConfig(),
		genaiMetrics: metrics.NewGenAI("chainguard.trustcheck.judge"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return o, nil
}

// Model implements Client.
func (o *openaiClient) Model() string {
	return o.model
}

// Complete implements Client.
func (o *openaiClient) Complete(ctx context.Context, prompt string) (string, error) {
	log := clog.FromContext(ctx)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(o.temperature),
	}

	completion, err := retry.WithBackoff(ctx, o.retryConfig, "openai_complete", isRetryableOpenAIError, func() (*openai.ChatCompletion, error) {
		return o.client.Chat.Completions.New(ctx, params)
	})
	if err != nil {
		return "", fmt.Errorf("failed to get OpenAI response: %w", err)
	}

	if completion.Usage.PromptTokens > 0 || completion.Usage.CompletionTokens > 0 {
		o.genaiMetrics.RecordTokens(ctx, o.model, completion.Usage.PromptTokens, completion.Usage.CompletionTokens)
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("no choices in OpenAI response")
	}
	text := completion.Choices[0].Message.Content
	if text == "" {
		return "", errors.New("empty text response from OpenAI")
	}

	log.With("model", o.model, "response_length", len(text)).
		Info("Received OpenAI response")
	return text, nil
}

// isRetryableOpenAIError checks if an error is a retryable OpenAI API
// error. Returns true for rate limit and transient server errors.
func isRetryableOpenAIError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return false
}
