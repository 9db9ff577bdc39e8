/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"chainguard.dev/trustcheck/judge"
)

// ErrSessionNotFound is returned when a queried session does not exist.
var ErrSessionNotFound = errors.New("session not found")

// SessionStats is the stored aggregate view of one session.
type SessionStats struct {
	// SessionID is the session identifier.
	SessionID string `json:"session_id"`

	// Name is the session name.
	Name string `json:"name"`

	// Description is the session description.
	Description string `json:"description"`

	// StartedAt records when the session was created.
	StartedAt time.Time `json:"started_at"`

	// EndedAt records when the session ended, if it has.
	EndedAt *time.Time `json:"ended_at,omitempty"`

	// TotalEvaluations counts stored evaluations.
	TotalEvaluations int `json:"total_evaluations"`

	// AverageScore is the mean overall score.
	AverageScore float64 `json:"average_score"`

	// RiskDistribution counts evaluations per risk level.
	RiskDistribution map[string]int `json:"risk_distribution"`

	// IssuesByType counts stored issues per type.
	IssuesByType map[string]int `json:"issues_by_type"`
}

// SessionStats returns the aggregate view of one session.
func (s *Store) SessionStats(ctx context.Context, sessionID string) (*SessionStats, error) {
	var record SessionRecord
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}

	stats := &SessionStats{
		SessionID:        record.SessionID,
		Name:             record.Name,
		Description:      record.Description,
		StartedAt:        record.StartedAt,
		EndedAt:          record.EndedAt,
		TotalEvaluations: record.TotalEvaluations,
		AverageScore:     record.AverageScore,
		RiskDistribution: map[string]int{},
		IssuesByType:     map[string]int{},
	}

	type bucket struct {
		Key   string
		Count int
	}
	var risks []bucket
	err = s.db.WithContext(ctx).
		Model(&EvaluationRecord{}).
		Select("risk_level AS key, COUNT(*) AS count").
		Where("session_id = ?", sessionID).
		Group("risk_level").
		Scan(&risks).Error
	if err != nil {
		return nil, fmt.Errorf("counting risk levels: %w", err)
	}
	for _, b := range risks {
		stats.RiskDistribution[b.Key] = b.Count
	}

	var issues []bucket
	err = s.db.WithContext(ctx).
		Model(&IssueRecord{}).
		Select("issue_type AS key, COUNT(*) AS count").
		Where("evaluation_id IN (?)",
			s.db.Model(&EvaluationRecord{}).Select("id").Where("session_id = ?", sessionID)).
		Group("issue_type").
		Scan(&issues).Error
	if err != nil {
		return nil, fmt.Errorf("counting issues: %w", err)
	}
	for _, b := range issues {
		stats.IssuesByType[b.Key] = b.Count
	}
	return stats, nil
}

// StoredEvaluation pairs a stored row id with the decoded result.
type StoredEvaluation struct {
	// ID is the stored row id.
	ID uint `json:"id"`

	// Result is the decoded evaluation.
	Result *judge.EvaluationResult `json:"result"`
}

// RecentEvaluations returns up to limit evaluations for a session, most
// recent first.
func (s *Store) RecentEvaluations(ctx context.Context, sessionID string, limit int) ([]StoredEvaluation, error) {
	if limit <= 0 {
		limit = 10
	}
	var records []EvaluationRecord
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("loading evaluations for %s: %w", sessionID, err)
	}

	out := make([]StoredEvaluation, 0, len(records))
	for _, record := range records {
		var result judge.EvaluationResult
		if err := json.Unmarshal([]byte(record.Payload), &result); err != nil {
			return nil, fmt.Errorf("decoding evaluation %d: %w", record.ID, err)
		}
		out = append(out, StoredEvaluation{ID: record.ID, Result: &result})
	}
	return out, nil
}

// AllSessionStats loads stats for every given session in parallel.
// Sessions are independent, so their queries may overlap.
func (s *Store) AllSessionStats(ctx context.Context, sessionIDs []string) (map[string]*SessionStats, error) {
	out := make(map[string]*SessionStats, len(sessionIDs))
	var mu sync.Mutex

	eg, ctx := errgroup.WithContext(ctx)
	for _, id := range sessionIDs {
		eg.Go(func() error {
			stats, err := s.SessionStats(ctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = stats
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
