/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package storage

import (
	"time"
)

// SessionRecord is one evaluation session. TotalEvaluations and
// AverageScore are maintained incrementally as evaluations are stored.
type SessionRecord struct {
	SessionID        string `gorm:"primaryKey"`
	Name             string
	Description      string
	StartedAt        time.Time
	EndedAt          *time.Time
	TotalEvaluations int
	AverageScore     float64
}

// TableName implements gorm's naming override.
func (SessionRecord) TableName() string { return "sessions" }

// EvaluationRecord is one stored evaluation result. Payload holds the
// full EvaluationResult as JSON; the scalar columns exist for querying.
type EvaluationRecord struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	SessionID string `gorm:"index"`

	Timestamp            time.Time
	Model                string
	OverallScore         float64
	HallucinationScore   float64
	ToolConsistencyScore float64
	QualityScore         float64
	RiskLevel            string
	Passed               bool
	Payload              string

	Issues []IssueRecord `gorm:"foreignKey:EvaluationID"`
}

// TableName implements gorm's naming override.
func (EvaluationRecord) TableName() string { return "evaluations" }

// IssueRecord is one issue attached to an evaluation.
type IssueRecord struct {
	ID           uint `gorm:"primaryKey;autoIncrement"`
	EvaluationID uint `gorm:"index"`

	IssueType   string
	Severity    string
	Description string
}

// TableName implements gorm's naming override.
func (IssueRecord) TableName() string { return "issues" }

// Issue type and severity values used when flattening an
// EvaluationResult into issue rows.
const (
	IssueTypeCritical       = "critical_issue"
	IssueTypeRecommendation = "recommendation"
	IssueTypeParseError     = "parse_error"

	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)
