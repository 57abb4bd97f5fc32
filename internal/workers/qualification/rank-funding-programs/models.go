// internal/workers/qualification/rank-funding-programs/models.go
package rankfundingprograms

import "funding-match-workers/internal/models"

const (
	ModeQualified = "qualified"
	ModeAll       = "all"

	SourceComputed = "computed"
	SourceStored   = "stored"
)

type Input struct {
	BusinessID      string                  `json:"businessId,omitempty"`
	BusinessProfile *models.BusinessProfile `json:"businessProfile,omitempty"`
	Programs        []models.Program        `json:"programs,omitempty"`
	Mode            string                  `json:"mode,omitempty"`
	Source          string                  `json:"source,omitempty"`
	UseSearch       bool                    `json:"useSearch,omitempty"`
	MaxItems        int                     `json:"maxItems,omitempty"`
}

type Output struct {
	RankedPrograms  []models.RankedProgram `json:"rankedPrograms"`
	TotalCandidates int                    `json:"totalCandidates"`
	QualifiedCount  int                    `json:"qualifiedCount"`
	Mode            string                 `json:"mode"`
	Source          string                 `json:"source"`
}
