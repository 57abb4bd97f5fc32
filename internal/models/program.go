// internal/models/program.go
package models

import (
	"encoding/json"
	"strings"
)

// SectorList holds a program's sectors as comma-separated free text.
// It decodes from a JSON string or an array of strings; any other shape decodes to empty.
type SectorList string

func (s *SectorList) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = SectorList(text)
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err == nil {
		*s = SectorList(strings.Join(items, ","))
		return nil
	}

	*s = ""
	return nil
}

type Program struct {
	ID            string     `json:"id"`
	Name          string     `json:"name,omitempty"`
	Provider      string     `json:"provider,omitempty"`
	Sectors       SectorList `json:"sectors"`
	Summary       string     `json:"summary,omitempty"`
	Eligibility   string     `json:"eligibility,omitempty"`
	FundingAmount string     `json:"fundingAmount,omitempty"`
}
