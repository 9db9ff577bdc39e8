/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package contexthist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"

	"chainguard.dev/trustcheck/judge"
	"chainguard.dev/trustcheck/metrics"
)

// Default bounds for history accumulation and compaction.
const (
	DefaultMaxHistoryItems       = 20
	DefaultMaxContextChars       = 15000
	DefaultCompactionTargetChars = 5000
	DefaultKeepRecentItems       = 3
)

// Response text longer than this is truncated on intake; context previews
// in the accumulated output are cut shorter still.
const (
	responseTruncateChars = 500
	previewChars          = 200
)

// Interaction is one evaluated exchange in the session history.
type Interaction struct {
	// Timestamp records when the interaction was added.
	Timestamp time.Time `json:"timestamp"`

	// Context is the context that was provided for the interaction.
	Context string `json:"context"`

	// Response is the AI response, truncated on intake.
	Response string `json:"response"`

	// EvaluationSummary is a compact summary of the evaluation result.
	EvaluationSummary string `json:"evaluation_summary,omitempty"`

	// Index is the interaction's position at the time it was added.
	Index int `json:"index"`
}

// Stats describes the current context state.
type Stats struct {
	// HistoryItems is the number of uncompacted interactions.
	HistoryItems int `json:"history_items"`

	// HistoryChars is the combined context+response size of the
	// uncompacted history.
	HistoryChars int `json:"history_chars"`

	// CompactedHistoryChars is the size of the running summary.
	CompactedHistoryChars int `json:"compacted_history_chars"`

	// ContextVersion counts successful compactions.
	ContextVersion int `json:"context_version"`
}

// Manager accumulates interaction history with automatic compaction.
//
// A Manager is not safe for concurrent use. Each session owns one Manager
// and serializes access to it.
type Manager struct {
	maxHistoryItems       int
	maxContextChars       int
	compactionTargetChars int
	keepRecentItems       int

	summarizer   judge.Summarizer
	genaiMetrics *metrics.GenAI

	history          []Interaction
	compactedHistory string
	contextVersion   int
}

// Option configures a Manager.
type Option func(*Manager) error

// WithMaxHistoryItems sets the item count above which compaction triggers.
func WithMaxHistoryItems(n int) Option {
	return func(m *Manager) error {
		if n <= 0 {
			return fmt.Errorf("max history items must be positive, got %d", n)
		}
		m.maxHistoryItems = n
		return nil
	}
}

// WithMaxContextChars sets the character count above which compaction
// triggers.
func WithMaxContextChars(n int) Option {
	return func(m *Manager) error {
		if n <= 0 {
			return fmt.Errorf("max context chars must be positive, got %d", n)
		}
		m.maxContextChars = n
		return nil
	}
}

// WithCompactionTargetChars sets the target size for compaction summaries.
func WithCompactionTargetChars(n int) Option {
	return func(m *Manager) error {
		if n <= 0 {
			return fmt.Errorf("compaction target chars must be positive, got %d", n)
		}
		m.compactionTargetChars = n
		return nil
	}
}

// WithKeepRecentItems sets how many recent interactions survive compaction
// verbatim.
func WithKeepRecentItems(n int) Option {
	return func(m *Manager) error {
		if n < 0 {
			return fmt.Errorf("keep recent items must be non-negative, got %d", n)
		}
		m.keepRecentItems = n
		return nil
	}
}

// NewManager creates a Manager. The summarizer may be nil, in which case
// compaction always falls back to truncation.
func NewManager(summarizer judge.Summarizer, opts ...Option) (*Manager, error) {
	m := &Manager{
		maxHistoryItems:       DefaultMaxHistoryItems,
		maxContextChars:       DefaultMaxContextChars,
		compactionTargetChars: DefaultCompactionTargetChars,
		keepRecentItems:       DefaultKeepRecentItems,
		summarizer:            summarizer,
		genaiMetrics:          metrics.NewGenAI("chainguard.trustcheck.contexthist"),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return m, nil
}

// AddInteraction appends an interaction to the history, truncating long
// responses on intake, and compacts if the history now exceeds its bounds.
// Compaction failures are absorbed: the history is truncated instead and
// the caller never sees an error.
func (m *Manager) AddInteraction(ctx context.Context, interactionContext, response, evaluationSummary string) {
	m.history = append(m.history, Interaction{
		Timestamp:         time.Now().UTC(),
		Context:           interactionContext,
		Response:          truncate(response, responseTruncateChars),
		EvaluationSummary: evaluationSummary,
		Index:             len(m.history),
	})

	if m.NeedsCompaction() {
		m.compact(ctx)
	}
}

// AccumulatedContext renders the full accumulated context: the running
// summary, if any, followed by the most recent interactions with truncated
// previews. Calling it does not mutate state.
func (m *Manager) AccumulatedContext() string {
	var parts []string

	if m.compactedHistory != "" {
		parts = append(parts, fmt.Sprintf("[Previous Session Context Summary]\n%s\n", m.compactedHistory))
	}

	recent := m.history
	if len(recent) > m.keepRecentItems {
		recent = recent[len(recent)-m.keepRecentItems:]
	}
	if len(recent) > 0 {
		parts = append(parts, "[Recent Interactions]")
		for _, item := range recent {
			parts = append(parts, fmt.Sprintf("- Context: %s", truncate(item.Context, previewChars)))
			parts = append(parts, fmt.Sprintf("  Response: %s", truncate(item.Response, previewChars)))
			if item.EvaluationSummary != "" {
				parts = append(parts, fmt.Sprintf("  Eval: %s", item.EvaluationSummary))
			}
		}
	}

	return strings.Join(parts, "\n")
}

// NeedsCompaction reports whether the history exceeds the item or
// character budget.
func (m *Manager) NeedsCompaction() bool {
	return len(m.history) > m.maxHistoryItems || m.historyChars() > m.maxContextChars
}

// Stats returns the current context statistics.
func (m *Manager) Stats() Stats {
	return Stats{
		HistoryItems:          len(m.history),
		HistoryChars:          m.historyChars(),
		CompactedHistoryChars: len(m.compactedHistory),
		ContextVersion:        m.contextVersion,
	}
}

// Clear resets all accumulated state, including the context version.
func (m *Manager) Clear() {
	m.history = nil
	m.compactedHistory = ""
	m.contextVersion = 0
}

// History returns a copy of the uncompacted history.
func (m *Manager) History() []Interaction {
	out := make([]Interaction, len(m.history))
	copy(out, m.history)
	return out
}

// CompactedHistory returns the running summary, empty before the first
// successful compaction.
func (m *Manager) CompactedHistory() string {
	return m.compactedHistory
}

func (m *Manager) historyChars() int {
	var chars int
	for _, item := range m.history {
		chars += len(item.Context) + len(item.Response)
	}
	return chars
}

// compact folds older history into the running summary, keeping the most
// recent entries verbatim. On summarization failure the history is trimmed
// to half the item budget instead, without bumping the context version.
func (m *Manager) compact(ctx context.Context) {
	log := clog.FromContext(ctx)

	keep := m.keepRecentItems
	var toCompact []Interaction
	if keep > 0 && len(m.history) > keep {
		toCompact = m.history[:len(m.history)-keep]
	} else if keep == 0 {
		toCompact = m.history
	}
	if len(toCompact) == 0 {
		return
	}

	summary, err := m.summarize(ctx, toCompact)
	if err != nil {
		log.Warnf("Compaction summarization failed, truncating history: %v", err)
		m.truncateHistory()
		m.genaiMetrics.RecordCompaction(ctx, "truncated")
		return
	}

	m.compactedHistory = summary
	if keep > 0 {
		m.history = m.history[len(m.history)-keep:]
	} else {
		m.history = nil
	}
	m.contextVersion++
	m.genaiMetrics.RecordCompaction(ctx, "summarized")

	log.With("context_version", m.contextVersion, "summary_chars", len(summary)).
		Info("Compacted interaction history")
}

// summarize produces the new running summary for the items being
// compacted, merging with any existing summary.
func (m *Manager) summarize(ctx context.Context, toCompact []Interaction) (string, error) {
	if m.summarizer == nil {
		return "", fmt.Errorf("no summarizer configured")
	}

	blocks := make([]string, 0, len(toCompact))
	for i, item := range toCompact {
		eval := item.EvaluationSummary
		if eval == "" {
			eval = "N/A"
		}
		blocks = append(blocks, fmt.Sprintf("Interaction %d:\n- Context: %s\n- Response: %s\n- Eval: %s",
			i+1, item.Context, item.Response, eval))
	}

	summary, err := m.summarizer.Summarize(ctx, strings.Join(blocks, "\n\n"), m.compactionTargetChars)
	if err != nil {
		return "", err
	}

	if m.compactedHistory != "" {
		return m.summarizer.Merge(ctx, m.compactedHistory, summary, m.compactionTargetChars)
	}
	return summary, nil
}

// truncateHistory is the compaction fallback: keep only the most recent
// half of the item budget.
func (m *Manager) truncateHistory() {
	n := m.maxHistoryItems / 2
	if len(m.history) > n {
		m.history = m.history[len(m.history)-n:]
	}
}

// truncate cuts s to at most max runes, appending "..." when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
