// internal/qualification/keywords.go
package qualification

import (
	"strings"

	"funding-match-workers/internal/models"
)

// FundingTypeKeywords maps a requested funding type to the substrings that signal
// a program offers it in its summary or eligibility text.
var FundingTypeKeywords = map[string][]string{
	models.FundingTypeGrants:     {"grant", "funding", "support", "assistance"},
	models.FundingTypeLoans:      {"loan", "credit", "finance", "lending"},
	models.FundingTypeEquity:     {"equity", "investment", "investor", "shareholding"},
	models.FundingTypeVouchers:   {"voucher"},
	models.FundingTypeSubsidies:  {"subsid", "incentive", "rebate"},
	models.FundingTypeMentorship: {"mentor", "coaching", "training", "incubat", "accelerat"},
}

// BusinessTypeKeywords maps a business structure to the substrings that signal
// the program's eligibility text admits it.
var BusinessTypeKeywords = map[string][]string{
	models.BusinessTypeSoleProprietor: {"sole", "proprietor", "individual", "self-employed"},
	models.BusinessTypePartnership:    {"partnership", "partners"},
	models.BusinessTypePtyLtd:         {"pty", "ltd", "limited", "company", "corporation"},
	models.BusinessTypeCC:             {"cc", "close corporation"},
	models.BusinessTypeNPC:            {"npc", "non-profit", "nonprofit", "npo"},
	models.BusinessTypeCooperative:    {"cooperative", "co-operative", "co-op"},
}

// AmountBandKeywords maps a funding amount band to the substrings expected in a
// program's funding amount description.
var AmountBandKeywords = map[string][]string{
	models.AmountUnder100K:  {"under", "up to", "less than", "100,000", "100k"},
	models.Amount100KTo500K: {"100,000", "100k", "250,000", "250k", "500,000", "500k"},
	models.Amount500KTo1M:   {"500,000", "500k", "1 million", "1,000,000", "1m"},
	models.Amount1MTo5M:     {"1 million", "1,000,000", "5 million", "5,000,000", "1m", "5m"},
	models.Amount5MTo10M:    {"5 million", "5,000,000", "10 million", "10,000,000", "5m", "10m"},
	models.Amount10MTo50M:   {"10 million", "10,000,000", "50 million", "50,000,000", "10m", "50m"},
	models.AmountOver50M:    {"50 million", "50,000,000", "50m", "over", "unlimited", "no limit"},
}

// Open-eligibility markers earn partial business-type credit.
var openEligibilityMarkers = []string{"all", "any", "eligible"}

var beeMarkers = []string{"bee", "black economic empowerment"}

// lookupKeywords finds the keyword set for key, falling back to a case-insensitive match.
func lookupKeywords(table map[string][]string, key string) []string {
	if kw, ok := table[key]; ok {
		return kw
	}
	for k, kw := range table {
		if strings.EqualFold(k, strings.TrimSpace(key)) {
			return kw
		}
	}
	return nil
}

// firstContained returns the first keyword that is a substring of text.
func firstContained(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}

// parseSectors splits a comma-separated sector list into trimmed, lower-cased, non-empty tokens.
func parseSectors(raw models.SectorList) []string {
	parts := strings.Split(string(raw), ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.ToLower(strings.TrimSpace(p))
		if t == "" {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}
