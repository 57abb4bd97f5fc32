// internal/models/qualification.go
package models

import "time"

const (
	MaxQualificationScore = 100
	QualifyingScore       = 40
)

type QualificationResult struct {
	Score     int      `json:"score"`
	MaxScore  int      `json:"maxScore"`
	Qualifies bool     `json:"qualifies"`
	Reasons   []string `json:"reasons"`
}

// RankedProgram is a Program annotated with its qualification for one scoring pass.
type RankedProgram struct {
	Program
	Qualification QualificationResult `json:"qualification"`
	MatchScore    int                 `json:"matchScore"`
}

type MatchSource string

const (
	MatchSourceRuleBased  MatchSource = "rule_based"
	MatchSourceAIAssisted MatchSource = "ai_assisted"
)

// MatchRecord is a persisted qualification of one program for one business.
type MatchRecord struct {
	ID         string      `json:"id"`
	BusinessID string      `json:"businessId"`
	ProgramID  string      `json:"programId"`
	Score      int         `json:"score"`
	Qualifies  bool        `json:"qualifies"`
	Reasons    []string    `json:"reasons"`
	Source     MatchSource `json:"source"`
	CreatedAt  time.Time   `json:"createdAt"`
}
