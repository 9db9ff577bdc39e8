/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package config holds the environment-driven settings for the
// evaluation pipeline.
package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"

	"chainguard.dev/trustcheck/contexthist"
	"chainguard.dev/trustcheck/judge"
)

// Config collects the tunables for judges, context accumulation, and
// persistence. Zero values are replaced by the documented defaults when
// loaded through Load.
type Config struct {
	// JudgeBackend selects the judge implementation: claude, gemini,
	// or openai.
	JudgeBackend string `env:"JUDGE_BACKEND,default=claude"`

	// JudgeModel overrides the backend's default model when set.
	JudgeModel string `env:"JUDGE_MODEL"`

	// JudgeTemperature is the sampling temperature for judge and
	// summarization calls.
	JudgeTemperature float64 `env:"JUDGE_TEMPERATURE,default=0.2"`

	// VerdictRetries is the number of additional judge attempts after
	// an unparseable or incomplete verdict.
	VerdictRetries int `env:"VERDICT_RETRIES,default=2"`

	// PassThreshold is the overall score at or above which an
	// evaluation passes.
	PassThreshold float64 `env:"PASS_THRESHOLD,default=0.7"`

	// MaxHistoryItems is the interaction count that triggers history
	// compaction.
	MaxHistoryItems int `env:"MAX_HISTORY_ITEMS,default=20"`

	// MaxContextChars is the accumulated character count that triggers
	// history compaction.
	MaxContextChars int `env:"MAX_CONTEXT_CHARS,default=15000"`

	// CompactionTargetChars is the size summaries aim for.
	CompactionTargetChars int `env:"COMPACTION_TARGET_CHARS,default=5000"`

	// KeepRecentItems is how many recent interactions survive
	// compaction verbatim.
	KeepRecentItems int `env:"KEEP_RECENT_ITEMS,default=3"`

	// DatabasePath is the sqlite file for evaluation persistence.
	// Empty disables persistence.
	DatabasePath string `env:"DATABASE_PATH"`

	// WorkingDir is the directory change tracking operates in.
	// Defaults to the process working directory.
	WorkingDir string `env:"WORKING_DIR"`
}

// judgeBackends are the accepted JUDGE_BACKEND values.
var judgeBackends = map[string]bool{
	"claude": true,
	"gemini": true,
	"openai": true,
}

// Load reads configuration from the environment and validates it.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if !judgeBackends[c.JudgeBackend] {
		return fmt.Errorf("unknown judge backend %q", c.JudgeBackend)
	}
	if c.JudgeTemperature < 0 || c.JudgeTemperature > 2 {
		return fmt.Errorf("judge temperature must be in [0,2], got %v", c.JudgeTemperature)
	}
	if c.VerdictRetries < 0 {
		return fmt.Errorf("verdict retries must be non-negative, got %d", c.VerdictRetries)
	}
	if c.PassThreshold < 0 || c.PassThreshold > 1 {
		return fmt.Errorf("pass threshold must be in [0,1], got %v", c.PassThreshold)
	}
	if c.MaxHistoryItems <= 0 {
		return fmt.Errorf("max history items must be positive, got %d", c.MaxHistoryItems)
	}
	if c.MaxContextChars <= 0 {
		return fmt.Errorf("max context chars must be positive, got %d", c.MaxContextChars)
	}
	if c.CompactionTargetChars <= 0 {
		return fmt.Errorf("compaction target chars must be positive, got %d", c.CompactionTargetChars)
	}
	if c.KeepRecentItems < 0 {
		return fmt.Errorf("keep recent items must be non-negative, got %d", c.KeepRecentItems)
	}
	if c.KeepRecentItems >= c.MaxHistoryItems {
		return fmt.Errorf("keep recent items (%d) must be below max history items (%d)", c.KeepRecentItems, c.MaxHistoryItems)
	}
	return nil
}

// HistoryOptions maps the context settings onto history manager options.
func (c *Config) HistoryOptions() []contexthist.Option {
	return []contexthist.Option{
		contexthist.WithMaxHistoryItems(c.MaxHistoryItems),
		contexthist.WithMaxContextChars(c.MaxContextChars),
		contexthist.WithCompactionTargetChars(c.CompactionTargetChars),
		contexthist.WithKeepRecentItems(c.KeepRecentItems),
	}
}

// ScorerOptions maps the verdict settings onto scorer options.
func (c *Config) ScorerOptions() []judge.ScorerOption {
	return []judge.ScorerOption{
		judge.WithVerdictRetries(c.VerdictRetries),
	}
}
