// internal/workers/qualification/rank-funding-programs/config.go
package rankfundingprograms

import "time"

type Config struct {
	Timeout          time.Duration
	PersistMatches   bool
	MaxRankedItems   int // 0 means no cap
	SearchCandidates int
	SearchIndex      string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          30 * time.Second,
		PersistMatches:   true,
		MaxRankedItems:   50,
		SearchCandidates: 200,
		SearchIndex:      "funding_programs",
	}
}
