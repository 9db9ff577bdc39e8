/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package storage persists evaluation results to SQLite. Writes are
// append-only: evaluations and their issues are inserted once and never
// updated, while session rows carry running counters for cheap stats.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"chainguard.dev/trustcheck/judge"
	"chainguard.dev/trustcheck/session"
)

// Store is a SQLite-backed evaluation store. Safe for concurrent use.
type Store struct {
	db *gorm.DB
}

var _ session.Store = (*Store)(nil)

// Open opens or creates the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path must not be empty")
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.AutoMigrate(&SessionRecord{}, &EvaluationRecord{}, &IssueRecord{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// CreateSession records a new session. Re-creating an existing session
// id resets its row, mirroring a session restart.
func (s *Store) CreateSession(ctx context.Context, id, name, description string) error {
	if id == "" {
		return errors.New("session id must not be empty")
	}
	record := SessionRecord{
		SessionID:   id,
		Name:        name,
		Description: description,
		StartedAt:   time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("creating session %s: %w", id, err)
	}
	return nil
}

// EndSession marks a session as ended.
func (s *Store) EndSession(ctx context.Context, id string) error {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).
		Model(&SessionRecord{}).
		Where("session_id = ?", id).
		Update("ended_at", &now)
	if result.Error != nil {
		return fmt.Errorf("ending session %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

// StoreEvaluation appends one evaluation and its issues, and refreshes
// the session's running counters.
func (s *Store) StoreEvaluation(ctx context.Context, sessionID string, result *judge.EvaluationResult) error {
	if sessionID == "" {
		return errors.New("session id must not be empty")
	}
	if result == nil {
		return errors.New("result must not be nil")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding evaluation: %w", err)
	}

	record := EvaluationRecord{
		SessionID:            sessionID,
		Timestamp:            result.Timestamp,
		Model:                result.Model,
		OverallScore:         result.OverallScore,
		HallucinationScore:   result.HallucinationScore,
		ToolConsistencyScore: result.ToolConsistencyScore,
		QualityScore:         result.QualityScore,
		RiskLevel:            string(result.RiskLevel),
		Passed:               result.Passed,
		Payload:              string(payload),
		Issues:               issueRecords(result),
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("storing evaluation: %w", err)
		}
		err := tx.Model(&SessionRecord{}).
			Where("session_id = ?", sessionID).
			Updates(map[string]any{
				"total_evaluations": gorm.Expr("total_evaluations + 1"),
				"average_score": gorm.Expr(
					"(SELECT AVG(overall_score) FROM evaluations WHERE session_id = ?)", sessionID),
			}).Error
		if err != nil {
			return fmt.Errorf("updating session counters: %w", err)
		}
		return nil
	})
}

// issueRecords flattens an evaluation's issues into rows.
func issueRecords(result *judge.EvaluationResult) []IssueRecord {
	var issues []IssueRecord
	for _, critical := range result.CriticalIssues {
		issues = append(issues, IssueRecord{
			IssueType:   IssueTypeCritical,
			Severity:    SeverityHigh,
			Description: critical,
		})
	}
	for _, recommendation := range result.Recommendations {
		issues = append(issues, IssueRecord{
			IssueType:   IssueTypeRecommendation,
			Severity:    SeverityLow,
			Description: recommendation,
		})
	}
	if result.ParseError != "" {
		issues = append(issues, IssueRecord{
			IssueType:   IssueTypeParseError,
			Severity:    SeverityMedium,
			Description: result.ParseError,
		})
	}
	return issues
}
