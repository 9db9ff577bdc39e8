/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"

	"chainguard.dev/trustcheck/changetrack"
	"chainguard.dev/trustcheck/contexthist"
	"chainguard.dev/trustcheck/judge"
	"chainguard.dev/trustcheck/serialize"
)

// Store persists sessions and their evaluation results. Implementations
// must be safe for concurrent use across sessions.
type Store interface {
	// CreateSession records a new session.
	CreateSession(ctx context.Context, id, name, description string) error

	// StoreEvaluation appends one evaluation result to a session.
	StoreEvaluation(ctx context.Context, sessionID string, result *judge.EvaluationResult) error
}

// Session holds the state for one evaluation session: the accumulated
// context history, the tool-call tracker, the per-session worker, and the
// tally of completed evaluations.
type Session struct {
	id          string
	name        string
	description string
	startedAt   time.Time

	judge         judge.Interface
	history       *contexthist.Manager
	tracker       *changetrack.Tracker
	worker        *serialize.Worker
	store         Store
	passThreshold float64

	summarizer  judge.Summarizer
	historyOpts []contexthist.Option

	evaluations []*judge.EvaluationResult
}

// Option configures a Session.
type Option func(*Session) error

// WithID sets the session identifier. Defaults to a random UUID.
func WithID(id string) Option {
	return func(s *Session) error {
		if id == "" {
			return errors.New("session id must not be empty")
		}
		s.id = id
		return nil
	}
}

// WithName sets the human-readable session name. Defaults to the id.
func WithName(name string) Option {
	return func(s *Session) error {
		s.name = name
		return nil
	}
}

// WithDescription sets the session description.
func WithDescription(description string) Option {
	return func(s *Session) error {
		s.description = description
		return nil
	}
}

// WithPassThreshold overrides the pass threshold applied to each
// evaluation's overall score.
func WithPassThreshold(threshold float64) Option {
	return func(s *Session) error {
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("pass threshold must be in [0,1], got %v", threshold)
		}
		s.passThreshold = threshold
		return nil
	}
}

// WithStore attaches a persistence backend. Store failures are logged and
// do not fail evaluations.
func WithStore(store Store) Option {
	return func(s *Session) error {
		s.store = store
		return nil
	}
}

// WithTracker attaches a tool-call and file-change tracker.
func WithTracker(tracker *changetrack.Tracker) Option {
	return func(s *Session) error {
		s.tracker = tracker
		return nil
	}
}

// WithSummarizer enables LLM-backed history compaction. Summarization
// calls are dispatched through the session worker so they never overlap
// with judge calls. Without a summarizer, compaction falls back to
// truncation.
func WithSummarizer(summarizer judge.Summarizer) Option {
	return func(s *Session) error {
		s.summarizer = summarizer
		return nil
	}
}

// WithHistoryOptions tunes the session's context history manager.
func WithHistoryOptions(opts ...contexthist.Option) Option {
	return func(s *Session) error {
		s.historyOpts = append(s.historyOpts, opts...)
		return nil
	}
}

// New creates a session around the given judge.
func New(ctx context.Context, judgeImpl judge.Interface, opts ...Option) (*Session, error) {
	if judgeImpl == nil {
		return nil, errors.New("judge is required")
	}
	s := &Session{
		startedAt:     time.Now().UTC(),
		judge:         judgeImpl,
		passThreshold: judge.DefaultPassThreshold,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.name == "" {
		s.name = s.id
	}
	s.worker = serialize.NewWorker(serialize.DefaultBuffer)

	var summarizer judge.Summarizer
	if s.summarizer != nil {
		summarizer = &workerSummarizer{worker: s.worker, inner: s.summarizer}
	}
	history, err := contexthist.NewManager(summarizer, s.historyOpts...)
	if err != nil {
		s.worker.Close()
		return nil, fmt.Errorf("creating history manager: %w", err)
	}
	s.history = history

	if s.store != nil {
		if err := s.store.CreateSession(ctx, s.id, s.name, s.description); err != nil {
			s.worker.Close()
			return nil, fmt.Errorf("creating session record: %w", err)
		}
	}
	clog.InfoContextf(ctx, "Started evaluation session %s (%s)", s.id, s.name)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Name returns the session name.
func (s *Session) Name() string { return s.name }

// Description returns the session description.
func (s *Session) Description() string { return s.description }

// StartedAt returns when the session was created.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Tracker returns the attached change tracker, or nil.
func (s *Session) Tracker() *changetrack.Tracker { return s.tracker }

// History returns the session's context history manager.
func (s *Session) History() *contexthist.Manager { return s.history }

// EvaluateRequest describes one response to evaluate within the session.
type EvaluateRequest struct {
	// Context is the context provided for this interaction.
	Context string

	// Response is the assistant output being evaluated.
	Response string

	// ToolsAvailable lists the tools the assistant could have used.
	ToolsAvailable []string

	// ToolsUsed lists the tools the assistant actually invoked.
	ToolsUsed []string

	// Model attributes the evaluated response in the result.
	Model string

	// ModifiedFiles lists files whose current content should be shown
	// to the judge for claim verification.
	ModifiedFiles []string

	// ToolCallLog is a pre-rendered tool call log section, for callers
	// that record calls themselves instead of attaching a tracker.
	ToolCallLog string

	// SkipAccumulatedContext evaluates against only the provided
	// context, ignoring the session history.
	SkipAccumulatedContext bool
}

// Evaluate runs one response through the judge pipeline. The judge call is
// dispatched through the session worker, the aggregated result is tallied
// and persisted, and a compact summary is fed back into the context
// history for future evaluations.
func (s *Session) Evaluate(ctx context.Context, req *EvaluateRequest) (*judge.EvaluationResult, error) {
	if req == nil {
		return nil, errors.New("request is required")
	}
	if req.Response == "" {
		return nil, errors.New("response must not be empty")
	}

	toolsUsed := req.ToolsUsed
	if len(toolsUsed) == 0 && s.tracker != nil {
		toolsUsed = s.tracker.ToolNames()
	}
	judgeReq := &judge.Request{
		Context:        s.buildContext(ctx, req),
		ToolsAvailable: req.ToolsAvailable,
		ToolsUsed:      toolsUsed,
		Response:       req.Response,
	}

	var verdict *judge.Verdict
	err := s.worker.Do(ctx, func(ctx context.Context) error {
		v, err := s.judge.Judge(ctx, judgeReq)
		if err != nil {
			return err
		}
		verdict = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("judging response: %w", err)
	}

	result := judge.Aggregate(verdict, req.Model, s.passThreshold)
	s.evaluations = append(s.evaluations, result)

	if s.store != nil {
		if err := s.store.StoreEvaluation(ctx, s.id, result); err != nil {
			clog.WarnContextf(ctx, "Failed to persist evaluation for session %s: %v", s.id, err)
		}
	}

	summary := fmt.Sprintf("Score: %.2f, Risk: %s", result.OverallScore, result.RiskLevel)
	if n := len(result.CriticalIssues); n > 0 {
		summary += fmt.Sprintf(", Critical issues: %d", n)
	}
	s.history.AddInteraction(ctx, req.Context, req.Response, summary)

	return result, nil
}

// buildContext combines accumulated session context, the context provided
// for this interaction, and any tracked change sections.
func (s *Session) buildContext(ctx context.Context, req *EvaluateRequest) string {
	var parts []string
	if !req.SkipAccumulatedContext {
		if accumulated := s.history.AccumulatedContext(); accumulated != "" {
			parts = append(parts, accumulated)
		}
	}
	if req.Context != "" {
		if len(parts) > 0 {
			parts = append(parts, "[Current Context]\n"+req.Context)
		} else {
			parts = append(parts, req.Context)
		}
	}
	if s.tracker != nil {
		if changes := s.tracker.BuildChangeContext(ctx); changes != "" {
			parts = append(parts, changes)
		}
	}
	if req.ToolCallLog != "" {
		parts = append(parts, req.ToolCallLog)
	}
	if len(req.ModifiedFiles) > 0 {
		if content := changetrack.RenderModifiedFiles(req.ModifiedFiles); content != "" {
			parts = append(parts, content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Evaluations returns a copy of the session's evaluation results in
// completion order.
func (s *Session) Evaluations() []*judge.EvaluationResult {
	out := make([]*judge.EvaluationResult, len(s.evaluations))
	copy(out, s.evaluations)
	return out
}

// Stats summarizes the session's current state.
type Stats struct {
	// SessionID is the session identifier.
	SessionID string `json:"session_id"`

	// Name is the session name.
	Name string `json:"name"`

	// StartedAt records session creation time.
	StartedAt time.Time `json:"started_at"`

	// TotalEvaluations counts completed evaluations.
	TotalEvaluations int `json:"total_evaluations"`

	// AverageScore is the mean overall score, 0 when no evaluations.
	AverageScore float64 `json:"average_score"`

	// RiskDistribution counts evaluations per risk level.
	RiskDistribution map[judge.RiskLevel]int `json:"risk_distribution"`

	// Context reports the history manager state.
	Context contexthist.Stats `json:"context"`
}

// Stats returns current session statistics.
func (s *Session) Stats() Stats {
	stats := Stats{
		SessionID:        s.id,
		Name:             s.name,
		StartedAt:        s.startedAt,
		TotalEvaluations: len(s.evaluations),
		RiskDistribution: map[judge.RiskLevel]int{},
		Context:          s.history.Stats(),
	}
	var sum float64
	for _, e := range s.evaluations {
		sum += e.OverallScore
		stats.RiskDistribution[e.RiskLevel]++
	}
	if len(s.evaluations) > 0 {
		stats.AverageScore = sum / float64(len(s.evaluations))
	}
	return stats
}

// ClearContext resets the accumulated context while preserving the
// session and its evaluation tally.
func (s *Session) ClearContext() {
	s.history.Clear()
}

// Reset clears both the context history and the evaluation tally, and
// resets the change tracker if one is attached.
func (s *Session) Reset() {
	s.history.Clear()
	s.evaluations = nil
	if s.tracker != nil {
		s.tracker.Clear()
	}
}

// Close shuts down the session worker. In-flight work completes; later
// Evaluate calls fail.
func (s *Session) Close() {
	s.worker.Close()
}

// workerSummarizer routes summarization through the session worker.
// Compaction runs after the triggering judge call has returned, so the
// worker is never re-entered.
type workerSummarizer struct {
	worker *serialize.Worker
	inner  judge.Summarizer
}

func (w *workerSummarizer) Summarize(ctx context.Context, history string, targetChars int) (string, error) {
	var out string
	err := w.worker.Do(ctx, func(ctx context.Context) error {
		summary, err := w.inner.Summarize(ctx, history, targetChars)
		if err != nil {
			return err
		}
		out = summary
		return nil
	})
	return out, err
}

func (w *workerSummarizer) Merge(ctx context.Context, previous, recent string, targetChars int) (string, error) {
	var out string
	err := w.worker.Do(ctx, func(ctx context.Context) error {
		merged, err := w.inner.Merge(ctx, previous, recent, targetChars)
		if err != nil {
			return err
		}
		out = merged
		return nil
	})
	return out, err
}
