// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
app:
  name: funding-match-workers
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: funding
    user: ${TEST_FUNDING_DB_USER}
  elasticsearch:
    addresses:
      - http://localhost:9200
  redis:
    address: localhost:6379
workers:
  score-program-qualification:
    enabled: true
    max_jobs_active: 8
  notify-matches:
    enabled: false
matching:
  persist_matches: true
  rematch_schedule: "0 */6 * * *"
notifications:
  email:
    enabled: true
    from_email: matches@example.org
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile_Valid(t *testing.T) {
	t.Setenv("TEST_FUNDING_DB_USER", "matcher")

	cfg, err := LoadFromFile(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "localhost:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, "matcher", cfg.Database.Postgres.User)
	assert.Equal(t, "http://localhost:9200", cfg.Database.Elasticsearch.GetURL())
	assert.True(t, cfg.Matching.PersistMatches)
	assert.Equal(t, "0 */6 * * *", cfg.Matching.RematchSchedule)

	// defaults
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "funding_programs", cfg.Database.Elasticsearch.ProgramIndex)
	assert.Equal(t, 50, cfg.Matching.MaxRankedItems)
	assert.Equal(t, "program-rematch-requested", cfg.Matching.RematchMessage)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_WorkerDefaults(t *testing.T) {
	t.Setenv("TEST_FUNDING_DB_USER", "matcher")

	cfg, err := LoadFromFile(writeConfig(t, validYAML))
	require.NoError(t, err)

	score := GetWorkerConfig(cfg, "score-program-qualification")
	assert.True(t, score.Enabled)
	assert.Equal(t, 8, score.MaxJobsActive)
	assert.Equal(t, 30000, score.Timeout)
	assert.Equal(t, 3, score.MaxRetries)

	assert.False(t, IsWorkerEnabled(cfg, "notify-matches"))
	assert.True(t, IsWorkerEnabled(cfg, "rank-funding-programs"))
	assert.Equal(t, 5, GetWorkerConfig(cfg, "rank-funding-programs").MaxJobsActive)
}

func TestLoadFromFile_UnsetPlaceholderFallsBack(t *testing.T) {
	os.Unsetenv("TEST_FUNDING_DB_USER")
	t.Setenv("DB_USER", "fallback")

	cfg, err := LoadFromFile(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "fallback", cfg.Database.Postgres.User)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		errPart string
	}{
		{
			name: "missing broker",
			yaml: `
database:
  postgres: {host: localhost, database: funding, user: u}
  elasticsearch: {addresses: ["http://localhost:9200"]}
  redis: {address: "localhost:6379"}
`,
			errPart: "BrokerAddress",
		},
		{
			name: "missing elasticsearch",
			yaml: `
camunda: {broker_address: "localhost:26500"}
database:
  postgres: {host: localhost, database: funding, user: u}
  redis: {address: "localhost:6379"}
`,
			errPart: "elasticsearch",
		},
		{
			name: "bad log level",
			yaml: `
camunda: {broker_address: "localhost:26500"}
database:
  postgres: {host: localhost, database: funding, user: u}
  elasticsearch: {url: "http://localhost:9200"}
  redis: {address: "localhost:6379"}
logging: {level: verbose}
`,
			errPart: "Level",
		},
		{
			name: "email without sender",
			yaml: `
camunda: {broker_address: "localhost:26500"}
database:
  postgres: {host: localhost, database: funding, user: u}
  elasticsearch: {url: "http://localhost:9200"}
  redis: {address: "localhost:6379"}
notifications:
  email: {enabled: true}
`,
			errPart: "from_email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_USER", "")

			cfg, err := LoadFromFile(writeConfig(t, tt.yaml))

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "funding", SSLMode: "require"}

	assert.Equal(t, "host=db port=5433 user=u password=p dbname=funding sslmode=require", p.GetDSN())
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, "1.5s", GetDuration(1500).String())
}
