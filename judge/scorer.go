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

	"chainguard.dev/trustcheck/metrics"
	"chainguard.dev/trustcheck/result"
)

// DefaultVerdictRetries is the default number of retries after the first
// judge attempt produces an unusable verdict.
const DefaultVerdictRetries = 2

// Scorer runs the unified judge prompt against a Client and parses the
// verdict with bounded retries. It implements Interface.
type Scorer struct {
	client       Client
	retries      int
	genaiMetrics *metrics.GenAI
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer) error

// WithVerdictRetries sets how many times an unusable verdict is retried.
// The judge is called at most retries+1 times per request.
func WithVerdictRetries(retries int) ScorerOption {
	return func(s *Scorer) error {
		if retries < 0 {
			return fmt.Errorf("verdict retries must be non-negative, got %d", retries)
		}
		s.retries = retries
		return nil
	}
}

// NewScorer creates a Scorer backed by the given client.
func NewScorer(client Client, opts ...ScorerOption) (*Scorer, error) {
	if client == nil {
		return nil, errors.New("client cannot be nil")
	}

	s := &Scorer{
		client:       client,
		retries:      DefaultVerdictRetries,
		genaiMetrics: metrics.NewGenAI("chainguard.trustcheck.judge"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return s, nil
}

// attemptOutcome classifies a single judge attempt.
type attemptOutcome string

const (
	outcomeSuccess     attemptOutcome = "success"     // complete verdict
	outcomeIncomplete  attemptOutcome = "incomplete"  // scores present, dimensions missing
	outcomeUnparseable attemptOutcome = "unparseable" // no usable JSON
	outcomeError       attemptOutcome = "error"       // transport failure
)

// Judge evaluates a response transcript. The judge is called up to
// retries+1 times; a complete verdict short-circuits, an incomplete one is
// retried (and accepted with neutral fills on the final attempt), and if no
// attempt yields usable JSON the neutral fallback verdict is returned with
// ParseError set. Only context cancellation and request validation produce
// a non-nil error.
func (s *Scorer) Judge(ctx context.Context, request *Request) (*Verdict, error) {
	if request == nil {
		return nil, errors.New("request cannot be nil")
	}
	if strings.TrimSpace(request.Response) == "" {
		return nil, errors.New("response is required")
	}

	boundPrompt, err := request.Bind(unifiedJudgePrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to bind request to prompt: %w", err)
	}
	prompt, err := boundPrompt.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	log := clog.FromContext(ctx).With("model", s.client.Model())
	log.With("prompt_length", len(prompt)).Info("Starting judge evaluation")

	attempts := s.retries + 1
	var lastErr string
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		verdict, outcome, attemptErr := s.attempt(ctx, prompt, attempt == attempts-1)
		s.genaiMetrics.RecordJudgeAttempt(ctx, s.client.Model(), string(outcome))
		if verdict != nil {
			if outcome != outcomeSuccess {
				log.With("attempt", attempt+1).
					Info("Accepting incomplete verdict with neutral fills")
			}
			return verdict, nil
		}

		lastErr = attemptErr.Error()
		log.With("attempt", attempt+1, "outcome", string(outcome)).
			Warnf("Judge attempt failed: %v", attemptErr)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.With("attempts", attempts).Warn("All judge attempts failed, returning neutral verdict")
	metrics.RecordParseFailure()
	return neutralVerdict(attempts, lastErr), nil
}

// attempt performs one judge call and classifies the result. A nil verdict
// means the attempt failed and the caller should retry; final controls
// whether an incomplete verdict is accepted with neutral fills.
func (s *Scorer) attempt(ctx context.Context, prompt string, final bool) (*Verdict, attemptOutcome, error) {
	text, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return nil, outcomeError, err
	}

	wire, err := result.Extract[verdictWire](text)
	if err != nil {
		return nil, outcomeUnparseable, fmt.Errorf("no valid JSON in judge output: %w", err)
	}
	if wire.Scores == nil {
		return nil, outcomeUnparseable, errors.New("missing 'scores' in judge output")
	}

	if missing := wire.missingDimensions(); len(missing) > 0 {
		if !final {
			return nil, outcomeIncomplete, fmt.Errorf("missing dimensions: %s", strings.Join(missing, ", "))
		}
		// Last attempt: accept what we have and fill the gaps.
		return wire.toVerdict(), outcomeIncomplete, nil
	}

	return wire.toVerdict(), outcomeSuccess, nil
}
