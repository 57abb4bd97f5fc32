// internal/models/business.go
package models

import "time"

// Funding types a business can ask for.
const (
	FundingTypeGrants     = "Grants"
	FundingTypeLoans      = "Loans"
	FundingTypeEquity     = "Equity Investment"
	FundingTypeVouchers   = "Vouchers"
	FundingTypeSubsidies  = "Subsidies"
	FundingTypeMentorship = "Mentorship Programs"
)

// Business structures.
const (
	BusinessTypeSoleProprietor = "sole-proprietor"
	BusinessTypePartnership    = "partnership"
	BusinessTypePtyLtd         = "pty-ltd"
	BusinessTypeCC             = "cc"
	BusinessTypeNPC            = "npc"
	BusinessTypeCooperative    = "cooperative"
)

// Funding amount bands.
const (
	AmountUnder100K  = "under-100k"
	Amount100KTo500K = "100k-500k"
	Amount500KTo1M   = "500k-1m"
	Amount1MTo5M     = "1m-5m"
	Amount5MTo10M    = "5m-10m"
	Amount10MTo50M   = "10m-50m"
	AmountOver50M    = "over-50m"
)

const BEENotCertified = "not-certified"

// BusinessProfile is the read-only snapshot of a business used for one scoring pass.
// Empty string fields and empty slices mean the attribute was not provided.
type BusinessProfile struct {
	ID                  string    `json:"id,omitempty"`
	Sectors             []string  `json:"sectors,omitempty"`
	FundingTypes        []string  `json:"fundingTypes,omitempty"`
	BusinessType        string    `json:"businessType,omitempty"`
	Industry            string    `json:"industry,omitempty"`
	FundingAmountNeeded string    `json:"fundingAmountNeeded,omitempty"`
	BEELevel            string    `json:"beeLevel,omitempty"`
	ContactEmail        string    `json:"contactEmail,omitempty"`
	ContactPhone        string    `json:"contactPhone,omitempty"`
	UpdatedAt           time.Time `json:"updatedAt,omitzero"`
}
