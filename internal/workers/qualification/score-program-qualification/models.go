// internal/workers/qualification/score-program-qualification/models.go
package scoreprogramqualification

import "funding-match-workers/internal/models"

type Input struct {
	BusinessID      string                  `json:"businessId,omitempty"`
	BusinessProfile *models.BusinessProfile `json:"businessProfile,omitempty"`
	Program         *models.Program         `json:"program"`
}

type Output struct {
	ProgramID     string                     `json:"programId"`
	Qualification models.QualificationResult `json:"qualification"`
	Persisted     bool                       `json:"persisted"`
}
