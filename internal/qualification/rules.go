// internal/qualification/rules.go
package qualification

import (
	"fmt"
	"strings"

	"funding-match-workers/internal/models"
)

const (
	markMatched      = "✓"
	markMissed       = "✗"
	markInconclusive = "?"
)

// Outcome is the contribution of one rule to a qualification result.
type Outcome struct {
	Points int
	Reason string
}

// Rule is one independent, fixed-weight check. Evaluate reports applicable=false when
// the profile attribute it needs is absent; the rule then adds nothing and no reason.
type Rule struct {
	Name      string
	MaxPoints int
	Evaluate  func(p *models.Program, b *models.BusinessProfile) (out Outcome, applicable bool)
}

// Rules is evaluated in this order; reasons keep the same order.
var Rules = []Rule{
	{Name: "sector", MaxPoints: 30, Evaluate: evalSector},
	{Name: "funding_type", MaxPoints: 25, Evaluate: evalFundingType},
	{Name: "business_type", MaxPoints: 15, Evaluate: evalBusinessType},
	{Name: "industry", MaxPoints: 15, Evaluate: evalIndustry},
	{Name: "funding_amount", MaxPoints: 10, Evaluate: evalFundingAmount},
	{Name: "bee", MaxPoints: 5, Evaluate: evalBEE},
}

func evalSector(p *models.Program, b *models.BusinessProfile) (Outcome, bool) {
	if len(b.Sectors) == 0 {
		return Outcome{}, false
	}

	tokens := parseSectors(p.Sectors)
	if len(tokens) == 0 {
		return Outcome{Points: 15, Reason: markInconclusive + " Program sectors not specified"}, true
	}

	var matched []string
	for _, token := range tokens {
		for _, sector := range b.Sectors {
			// A blank sector is contained in every token.
			s := strings.ToLower(strings.TrimSpace(sector))
			if strings.Contains(s, token) || strings.Contains(token, s) {
				matched = append(matched, token)
				break
			}
		}
	}

	if len(matched) == 0 {
		return Outcome{Reason: markMissed + " Sector mismatch: program targets " + strings.Join(tokens, ", ")}, true
	}
	return Outcome{Points: 30, Reason: markMatched + " Sector match: " + strings.Join(matched, ", ")}, true
}

func evalFundingType(p *models.Program, b *models.BusinessProfile) (Outcome, bool) {
	if len(b.FundingTypes) == 0 {
		return Outcome{}, false
	}

	text := strings.ToLower(p.Summary) + " " + strings.ToLower(p.Eligibility)
	for _, ft := range b.FundingTypes {
		if _, ok := firstContained(text, lookupKeywords(FundingTypeKeywords, ft)); ok {
			return Outcome{Points: 25, Reason: markMatched + " Offers " + ft}, true
		}
	}
	return Outcome{Reason: markMissed + " Does not offer " + strings.Join(b.FundingTypes, ", ")}, true
}

func evalBusinessType(p *models.Program, b *models.BusinessProfile) (Outcome, bool) {
	if b.BusinessType == "" {
		return Outcome{}, false
	}

	eligibility := strings.ToLower(p.Eligibility)
	if _, ok := firstContained(eligibility, lookupKeywords(BusinessTypeKeywords, b.BusinessType)); ok {
		return Outcome{Points: 15, Reason: markMatched + " Business type eligible: " + b.BusinessType}, true
	}
	if _, ok := firstContained(eligibility, openEligibilityMarkers); ok {
		return Outcome{Points: 10, Reason: markInconclusive + " Business type not specified in eligibility"}, true
	}
	return Outcome{Reason: markMissed + " Business type may not be eligible: " + b.BusinessType}, true
}

func evalIndustry(p *models.Program, b *models.BusinessProfile) (Outcome, bool) {
	if b.Industry == "" {
		return Outcome{}, false
	}

	industry := strings.ToLower(b.Industry)
	eligibility := strings.ToLower(p.Eligibility)
	// Empty or space-led eligibility yields an empty first token, which every industry contains.
	firstToken := strings.Split(eligibility, " ")[0]

	if strings.Contains(eligibility, industry) || strings.Contains(industry, firstToken) {
		return Outcome{Points: 15, Reason: markMatched + " Industry match: " + b.Industry}, true
	}
	return Outcome{Reason: markMissed + " Industry not mentioned in eligibility"}, true
}

func evalFundingAmount(p *models.Program, b *models.BusinessProfile) (Outcome, bool) {
	if b.FundingAmountNeeded == "" {
		return Outcome{}, false
	}

	amount := strings.ToLower(p.FundingAmount)
	if _, ok := firstContained(amount, lookupKeywords(AmountBandKeywords, b.FundingAmountNeeded)); ok {
		return Outcome{Points: 10, Reason: markMatched + " Funding amount in range"}, true
	}
	return Outcome{Reason: fmt.Sprintf("%s Funding amount may not cover %s", markMissed, b.FundingAmountNeeded)}, true
}

func evalBEE(p *models.Program, b *models.BusinessProfile) (Outcome, bool) {
	if b.BEELevel == "" {
		return Outcome{}, false
	}

	if _, ok := firstContained(strings.ToLower(p.Eligibility), beeMarkers); !ok {
		return Outcome{}, true
	}
	if b.BEELevel == models.BEENotCertified {
		return Outcome{Reason: markMissed + " Program favours BEE-certified businesses"}, true
	}
	return Outcome{Points: 5, Reason: markMatched + " BEE certification recognised"}, true
}
