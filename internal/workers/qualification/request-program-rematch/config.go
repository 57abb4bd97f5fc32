// internal/workers/qualification/request-program-rematch/config.go
package requestprogramrematch

import "time"

type Config struct {
	Timeout         time.Duration
	InvalidateCache bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         15 * time.Second,
		InvalidateCache: true,
	}
}
