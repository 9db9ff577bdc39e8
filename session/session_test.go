/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package session_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"chainguard.dev/trustcheck/changetrack"
	"chainguard.dev/trustcheck/contexthist"
	"chainguard.dev/trustcheck/judge"
	"chainguard.dev/trustcheck/session"
)

// fakeJudge returns a fixed verdict and records every request it sees.
type fakeJudge struct {
	verdict  *judge.Verdict
	err      error
	requests []*judge.Request
}

func (f *fakeJudge) Judge(_ context.Context, request *judge.Request) (*judge.Verdict, error) {
	f.requests = append(f.requests, request)
	if f.err != nil {
		return nil, f.err
	}
	return f.verdict, nil
}

type fakeSummarizer struct {
	calls int
}

func (f *fakeSummarizer) Summarize(context.Context, string, int) (string, error) {
	f.calls++
	return fmt.Sprintf("summary #%d", f.calls), nil
}

func (f *fakeSummarizer) Merge(_ context.Context, previous, recent string, _ int) (string, error) {
	f.calls++
	return fmt.Sprintf("merged(%s + %s)", previous, recent), nil
}

type fakeStore struct {
	createErr error
	storeErr  error

	created []string
	stored  []string
}

func (f *fakeStore) CreateSession(_ context.Context, id, _, _ string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, id)
	return nil
}

func (f *fakeStore) StoreEvaluation(_ context.Context, sessionID string, _ *judge.EvaluationResult) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.stored = append(f.stored, sessionID)
	return nil
}

func scoresFor(value float64) map[string]float64 {
	scores := map[string]float64{}
	for _, name := range judge.DimensionNames() {
		scores[name] = value
	}
	return scores
}

func verdictFor(value float64) *judge.Verdict {
	return &judge.Verdict{
		Scores:  scoresFor(value),
		Summary: "assessment",
	}
}

func TestSessionEvaluate(t *testing.T) {
	ctx := context.Background()
	j := &fakeJudge{verdict: verdictFor(8)}
	s, err := session.New(ctx, j, session.WithID("s1"), session.WithName("first"))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer s.Close()

	result, err := s.Evaluate(ctx, &session.EvaluateRequest{
		Context:  "user asked about parsing",
		Response: "Parsing uses a recursive descent approach.",
		Model:    "test-model",
	})
	if err != nil {
		t.Fatalf("Evaluate() = %v", err)
	}

	if got, want := result.OverallScore, 0.8; math.Abs(got-want) > 1e-9 {
		t.Errorf("OverallScore = %v, want %v", got, want)
	}
	if got, want := result.RiskLevel, judge.RiskLow; got != want {
		t.Errorf("RiskLevel = %v, want %v", got, want)
	}
	if !result.Passed {
		t.Error("Passed = false, want true")
	}
	if got, want := result.Model, "test-model"; got != want {
		t.Errorf("Model = %q, want %q", got, want)
	}

	history := s.History().History()
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	if got, want := history[0].EvaluationSummary, "Score: 0.80, Risk: low"; got != want {
		t.Errorf("EvaluationSummary = %q, want %q", got, want)
	}
	if got, want := history[0].Context, "user asked about parsing"; got != want {
		t.Errorf("history Context = %q, want %q", got, want)
	}
}

func TestSessionEvaluateSummaryIncludesCriticalIssues(t *testing.T) {
	ctx := context.Background()
	verdict := verdictFor(3)
	verdict.CriticalIssues = []string{"fabricated API", "wrong file cited"}
	s, err := session.New(ctx, &fakeJudge{verdict: verdict})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer s.Close()

	if _, err := s.Evaluate(ctx, &session.EvaluateRequest{Response: "resp"}); err != nil {
		t.Fatalf("Evaluate() = %v", err)
	}

	history := s.History().History()
	if got, want := history[0].EvaluationSummary, "Score: 0.30, Risk: high, Critical issues: 2"; got != want {
		t.Errorf("EvaluationSummary = %q, want %q", got, want)
	}
}

func TestSessionEvaluateAccumulatesContext(t *testing.T) {
	ctx := context.Background()
	j := &fakeJudge{verdict: verdictFor(8)}
	s, err := session.New(ctx, j)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer s.Close()

	if _, err := s.Evaluate(ctx, &session.EvaluateRequest{
		Context:  "first question",
		Response: "first answer",
	}); err != nil {
		t.Fatalf("Evaluate(first) = %v", err)
	}
	if _, err := s.Evaluate(ctx, &session.EvaluateRequest{
		Context:  "second question",
		Response: "second answer",
	}); err != nil {
		t.Fatalf("Evaluate(second) = %v", err)
	}

	if len(j.requests) != 2 {
		t.Fatalf("judge requests = %d, want 2", len(j.requests))
	}
	second := j.requests[1].Context
	for _, want := range []string{
		"[Recent Interactions]",
		"first question",
		"[Current Context]",
		"second question",
	} {
		if !strings.Contains(second, want) {
			t.Errorf("second judge context missing %q:\n%s", want, second)
		}
	}
}

func TestSessionEvaluateSkipAccumulatedContext(t *testing.T) {
	ctx := context.Background()
	j := &fakeJudge{verdict: verdictFor(8)}
	s, err := session.New(ctx, j)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer s.Close()

	if _, err := s.Evaluate(ctx, &session.EvaluateRequest{
		Context:  "first question",
		Response: "first answer",
	}); err != nil {
		t.Fatalf("Evaluate(first) = %v", err)
	}
	if _, err := s.Evaluate(ctx, &session.EvaluateRequest{
		Context:                "second question",
		Response:               "second answer",
		SkipAccumulatedContext: true,
	}); err != nil {
		t.Fatalf("Evaluate(second) = %v", err)
	}

	if got, want := j.requests[1].Context, "second question"; got != want {
		t.Errorf("judge context = %q, want %q", got, want)
	}
}

func TestSessionEvaluateValidation(t *testing.T) {
	ctx := context.Background()
	s, err := session.New(ctx, &fakeJudge{verdict: verdictFor(8)})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer s.Close()

	tests := []struct {
		name    string
		request *session.EvaluateRequest
	}{{
		name:    "nil request",
		request: nil,
	}, {
		name:    "empty response",
		request: &session.EvaluateRequest{Context: "ctx"},
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := s.Evaluate(ctx, test.request); err == nil {
				t.Error("Evaluate() = nil, want error")
			}
		})
	}
}

func TestSessionEvaluateJudgeError(t *testing.T) {
	ctx := context.Background()
	judgeErr := errors.New("canceled mid-flight")
	s, err := session.New(ctx, &fakeJudge{err: judgeErr})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer s.Close()

	_, err = s.Evaluate(ctx, &session.EvaluateRequest{Response: "resp"})
	if !errors.Is(err, judgeErr) {
		t.Errorf("Evaluate() = %v, want wrapped %v", err, judgeErr)
	}
	if got := len(s.Evaluations()); got != 0 {
		t.Errorf("evaluations after failed judge = %d, want 0", got)
	}
	if got := len(s.History().History()); got != 0 {
		t.Errorf("history after failed judge = %d, want 0", got)
	}
}

func TestSessionStats(t *testing.T) {
	ctx := context.Background()
	j := &fakeJudge{verdict: verdictFor(8)}
	s, err := session.New(ctx, j, session.WithID("stats"))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer s.Close()

	if _, err := s.Evaluate(ctx, &session.EvaluateRequest{Response: "good answer"}); err != nil {
		t.Fatalf("Evaluate() = %v", err)
	}
	j.verdict = verdictFor(5)
	if _, err := s.Evaluate(ctx, &session.EvaluateRequest{Response: "weak answer"}); err != nil {
		t.Fatalf("Evaluate() = %v", err)
	}

	stats := s.Stats()
	if got, want := stats.SessionID, "stats"; got != want {
		t.Errorf("SessionID = %q, want %q", got, want)
	}
	if got, want := stats.TotalEvaluations, 2; got != want {
		t.Errorf("TotalEvaluations = %d, want %d", got, want)
	}
	if got, want := stats.AverageScore, 0.65; math.Abs(got-want) > 1e-9 {
		t.Errorf("AverageScore = %v, want %v", got, want)
	}
	wantRisk := map[judge.RiskLevel]int{judge.RiskLow: 1, judge.RiskHigh: 1}
	if diff := cmp.Diff(wantRisk, stats.RiskDistribution); diff != "" {
		t.Errorf("RiskDistribution mismatch (-want +got):\n%s", diff)
	}
	if got, want := stats.Context.HistoryItems, 2; got != want {
		t.Errorf("Context.HistoryItems = %d, want %d", got, want)
	}
}

func TestSessionStorePersistence(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	s, err := session.New(ctx, &fakeJudge{verdict: verdictFor(8)},
		session.WithID("persisted"), session.WithStore(store))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer s.Close()

	if diff := cmp.Diff([]string{"persisted"}, store.created); diff != "" {
		t.Errorf("created sessions mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.Evaluate(ctx, &session.EvaluateRequest{Response: "resp"}); err != nil {
		t.Fatalf("Evaluate() = %v", err)
	}
	if diff := cmp.Diff([]string{"persisted"}, store.stored); diff != "" {
		t.Errorf("stored evaluations mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionStoreFailureDoesNotFailEvaluate(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{storeErr: errors.New("disk full")}
	s, err := session.New(ctx, &fakeJudge{verdict: verdictFor(8)}, session.WithStore(store))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer s.Close()

	if _, err := s.Evaluate(ctx, &session.EvaluateRequest{Response: "resp"}); err != nil {
		t.Errorf("Evaluate() = %v, want nil despite store failure", err)
	}
	if got := len(s.Evaluations()); got != 1 {
		t.Errorf("evaluations = %d, want 1", got)
	}
}

func TestSessionCreateFailurePropagates(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{createErr: errors.New("unique constraint")}
	if _, err := session.New(ctx, &fakeJudge{verdict: verdictFor(8)}, session.WithStore(store)); err == nil {
		t.Error("New() = nil, want error from store")
	}
}

func TestSessionSummarizerCompaction(t *testing.T) {
	ctx := context.Background()
	summarizer := &fakeSummarizer{}
	s, err := session.New(ctx, &fakeJudge{verdict: verdictFor(8)},
		session.WithSummarizer(summarizer),
		session.WithHistoryOptions(
			contexthist.WithMaxHistoryItems(3),
			contexthist.WithKeepRecentItems(1),
		))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer s.Close()

	for i := range 4 {
		if _, err := s.Evaluate(ctx, &session.EvaluateRequest{
			Context:  fmt.Sprintf("question %d", i),
			Response: fmt.Sprintf("answer %d", i),
		}); err != nil {
			t.Fatalf("Evaluate(%d) = %v", i, err)
		}
	}

	if summarizer.calls == 0 {
		t.Fatal("summarizer was never called")
	}
	stats := s.History().Stats()
	if stats.ContextVersion == 0 {
		t.Error("ContextVersion = 0, want compaction to have run")
	}
	if got := s.History().CompactedHistory(); !strings.Contains(got, "summary #") {
		t.Errorf("CompactedHistory() = %q, want a summarizer product", got)
	}
}

func TestSessionEvaluateIncludesTrackedChanges(t *testing.T) {
	ctx := context.Background()
	tracker, err := changetrack.NewTracker(t.TempDir())
	if err != nil {
		t.Fatalf("NewTracker() = %v", err)
	}
	tracker.RecordToolCall("Write", map[string]any{"file_path": "main.go"}, "ok", true, "")

	j := &fakeJudge{verdict: verdictFor(8)}
	s, err := session.New(ctx, j, session.WithTracker(tracker))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer s.Close()

	if _, err := s.Evaluate(ctx, &session.EvaluateRequest{
		Context:  "please create main.go",
		Response: "I created main.go with the entry point.",
	}); err != nil {
		t.Fatalf("Evaluate() = %v", err)
	}

	request := j.requests[0]
	if diff := cmp.Diff([]string{"Write"}, request.ToolsUsed); diff != "" {
		t.Errorf("ToolsUsed mismatch (-want +got):\n%s", diff)
	}
	for _, want := range []string{"[TOOL CALLS MADE]", "Write: 1 calls (1 successful)", "Files: main.go"} {
		if !strings.Contains(request.Context, want) {
			t.Errorf("judge context missing %q:\n%s", want, request.Context)
		}
	}
}

func TestSessionReset(t *testing.T) {
	ctx := context.Background()
	s, err := session.New(ctx, &fakeJudge{verdict: verdictFor(8)})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer s.Close()

	if _, err := s.Evaluate(ctx, &session.EvaluateRequest{Response: "resp"}); err != nil {
		t.Fatalf("Evaluate() = %v", err)
	}

	s.Reset()
	if got := len(s.Evaluations()); got != 0 {
		t.Errorf("evaluations after Reset = %d, want 0", got)
	}
	if got := len(s.History().History()); got != 0 {
		t.Errorf("history after Reset = %d, want 0", got)
	}
}

func TestSessionClearContextKeepsTally(t *testing.T) {
	ctx := context.Background()
	s, err := session.New(ctx, &fakeJudge{verdict: verdictFor(8)})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer s.Close()

	if _, err := s.Evaluate(ctx, &session.EvaluateRequest{Response: "resp"}); err != nil {
		t.Fatalf("Evaluate() = %v", err)
	}

	s.ClearContext()
	if got := len(s.History().History()); got != 0 {
		t.Errorf("history after ClearContext = %d, want 0", got)
	}
	if got := len(s.Evaluations()); got != 1 {
		t.Errorf("evaluations after ClearContext = %d, want 1", got)
	}
}

func TestNewValidation(t *testing.T) {
	ctx := context.Background()

	if _, err := session.New(ctx, nil); err == nil {
		t.Error("New(nil judge) = nil, want error")
	}
	if _, err := session.New(ctx, &fakeJudge{}, session.WithID("")); err == nil {
		t.Error("New(empty id) = nil, want error")
	}
	if _, err := session.New(ctx, &fakeJudge{}, session.WithPassThreshold(1.5)); err == nil {
		t.Error("New(threshold 1.5) = nil, want error")
	}
}

func TestNewDefaults(t *testing.T) {
	ctx := context.Background()
	s, err := session.New(ctx, &fakeJudge{verdict: verdictFor(8)})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer s.Close()

	if s.ID() == "" {
		t.Error("ID() is empty, want generated UUID")
	}
	if got, want := s.Name(), s.ID(); got != want {
		t.Errorf("Name() = %q, want id %q", got, want)
	}
	if s.StartedAt().IsZero() {
		t.Error("StartedAt() is zero")
	}
}
