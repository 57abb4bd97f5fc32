// internal/qualification/scorer.go

// Package qualification scores funding programs against a business profile.
//
// Matching is case-insensitive substring containment, not whole-word matching, so a
// keyword can hit inside an unrelated word ("car" in "scarce"). That looseness is kept
// on purpose so scores stay comparable with previously stored match records.
package qualification

import "funding-match-workers/internal/models"

const missingInputReason = "Missing profile or program data"

// Score evaluates every rule against one (program, profile) pair. It never fails:
// a nil program or profile yields a zero, non-qualifying result.
func Score(program *models.Program, profile *models.BusinessProfile) models.QualificationResult {
	if program == nil || profile == nil {
		return models.QualificationResult{
			Score:     0,
			MaxScore:  models.MaxQualificationScore,
			Qualifies: false,
			Reasons:   []string{missingInputReason},
		}
	}

	score := 0
	reasons := make([]string, 0, len(Rules))
	for _, rule := range Rules {
		out, applicable := rule.Evaluate(program, profile)
		if !applicable {
			continue
		}
		score += out.Points
		if out.Reason != "" {
			reasons = append(reasons, out.Reason)
		}
	}

	if score > models.MaxQualificationScore {
		score = models.MaxQualificationScore
	}

	return models.QualificationResult{
		Score:     score,
		MaxScore:  models.MaxQualificationScore,
		Qualifies: score >= models.QualifyingScore,
		Reasons:   reasons,
	}
}
