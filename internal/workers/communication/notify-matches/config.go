// internal/workers/communication/notify-matches/config.go
package notifymatches

import "time"

type Config struct {
	EmailEnabled       bool
	SMSEnabled         bool
	FromEmail          string
	SMSSenderID        string
	PortalURL          string
	DefaultMinScore    int
	DefaultMaxPrograms int
	Timeout            time.Duration
}

func LoadConfig() *Config {
	return &Config{
		DefaultMinScore:    40,
		DefaultMaxPrograms: 5,
		Timeout:            30 * time.Second,
	}
}
