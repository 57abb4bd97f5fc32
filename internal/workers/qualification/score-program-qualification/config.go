// internal/workers/qualification/score-program-qualification/config.go
package scoreprogramqualification

import "time"

type Config struct {
	Timeout        time.Duration
	PersistMatches bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        30 * time.Second,
		PersistMatches: true,
	}
}
