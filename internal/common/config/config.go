// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers" validate:"dive"`
	Matching      MatchingConfig          `mapstructure:"matching"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Server        ServerConfig            `mapstructure:"server"`
	RegistryPath  string                  `mapstructure:"registry_path"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address" validate:"required,hostname_port"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active" validate:"gte=1"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"gte=1,lte=65535"`
	Database       string `mapstructure:"database" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode" validate:"oneof=disable require verify-ca verify-full"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses" validate:"dive,url"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	URL          string   `mapstructure:"url" validate:"omitempty,url"`
	ProgramIndex string   `mapstructure:"program_index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

// GetAddresses returns every configured node address.
func (e ElasticsearchConfig) GetAddresses() []string {
	if len(e.Addresses) > 0 {
		return e.Addresses
	}
	if e.URL != "" {
		return []string{e.URL}
	}
	return nil
}

type RedisConfig struct {
	Address  string `mapstructure:"address" validate:"required,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active" validate:"gte=0"`
	Timeout       int  `mapstructure:"timeout" validate:"gte=0"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries" validate:"gte=0"`
}

// MatchingConfig drives the ranking workers and the re-matching sweep.
type MatchingConfig struct {
	PersistMatches     bool   `mapstructure:"persist_matches"`
	MaxRankedItems     int    `mapstructure:"max_ranked_items" validate:"gte=0"`
	SearchCandidates   int    `mapstructure:"search_candidates" validate:"gte=0"`
	ProfileCacheTTL    int    `mapstructure:"profile_cache_ttl"` // seconds
	RematchEnabled     bool   `mapstructure:"rematch_enabled"`
	RematchSchedule    string `mapstructure:"rematch_schedule"`
	RematchBatchSize   int    `mapstructure:"rematch_batch_size" validate:"gte=0"`
	RematchConcurrency int    `mapstructure:"rematch_concurrency" validate:"gte=0"`
	RematchMessage     string `mapstructure:"rematch_message"`
	RematchMessageTTL  int    `mapstructure:"rematch_message_ttl"` // milliseconds
}

// NotificationConfig holds settings for the notify-matches worker.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email" validate:"omitempty,email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	PortalURL string `mapstructure:"portal_url"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json console"`
	Output string `mapstructure:"output"`
}

// ServerConfig holds the health and metrics listener.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`
}
