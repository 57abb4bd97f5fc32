// internal/qualification/ranking.go
package qualification

import (
	"sort"

	"funding-match-workers/internal/models"
)

// ScoreAll annotates every program with its qualification, keeping input order.
func ScoreAll(programs []models.Program, profile *models.BusinessProfile) []models.RankedProgram {
	out := make([]models.RankedProgram, 0, len(programs))
	for i := range programs {
		out = append(out, rank(&programs[i], profile))
	}
	return out
}

// FilterQualified keeps the qualifying programs, best score first. Programs with equal
// scores keep their input order.
func FilterQualified(programs []models.Program, profile *models.BusinessProfile) []models.RankedProgram {
	out := make([]models.RankedProgram, 0)
	if profile == nil || len(programs) == 0 {
		return out
	}

	for i := range programs {
		ranked := rank(&programs[i], profile)
		if ranked.Qualification.Qualifies {
			out = append(out, ranked)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MatchScore > out[j].MatchScore
	})
	return out
}

func rank(program *models.Program, profile *models.BusinessProfile) models.RankedProgram {
	result := Score(program, profile)
	return models.RankedProgram{
		Program:       *program,
		Qualification: result,
		MatchScore:    result.Score,
	}
}
