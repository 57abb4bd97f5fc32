// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"funding-match-workers/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// GetDB returns the underlying *sql.DB
func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS business_profiles (
		id                    TEXT PRIMARY KEY,
		sectors               TEXT[] NOT NULL DEFAULT '{}',
		funding_types         TEXT[] NOT NULL DEFAULT '{}',
		business_type         TEXT NOT NULL DEFAULT '',
		industry              TEXT NOT NULL DEFAULT '',
		funding_amount_needed TEXT NOT NULL DEFAULT '',
		bee_level             TEXT NOT NULL DEFAULT '',
		contact_email         TEXT NOT NULL DEFAULT '',
		contact_phone         TEXT NOT NULL DEFAULT '',
		updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS funding_programs (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		provider       TEXT NOT NULL DEFAULT '',
		sectors        TEXT NOT NULL DEFAULT '',
		summary        TEXT NOT NULL DEFAULT '',
		eligibility    TEXT NOT NULL DEFAULT '',
		funding_amount TEXT NOT NULL DEFAULT '',
		active         BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS program_matches (
		id          UUID PRIMARY KEY,
		business_id TEXT NOT NULL,
		program_id  TEXT NOT NULL,
		score       INTEGER NOT NULL CHECK (score BETWEEN 0 AND 100),
		qualifies   BOOLEAN NOT NULL,
		reasons     JSONB NOT NULL DEFAULT '[]',
		source      TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (business_id, program_id)
	)`,
	`CREATE INDEX IF NOT EXISTS program_matches_business_idx ON program_matches (business_id, created_at DESC)`,
}

// Migrate creates the tables used by the profile source, program catalog and match store.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}
