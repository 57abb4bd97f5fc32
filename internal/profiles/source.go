// Package profiles loads business profiles for scoring.
package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"funding-match-workers/internal/models"

	"github.com/lib/pq"
)

// ErrNotFound is returned when no profile exists for a business ID.
var ErrNotFound = errors.New("business profile not found")

// Source resolves a business ID to its current profile.
type Source interface {
	Get(ctx context.Context, businessID string) (*models.BusinessProfile, error)
}

const selectProfileQuery = `SELECT id, sectors, funding_types, business_type, industry, funding_amount_needed,
       bee_level, contact_email, contact_phone, updated_at
FROM business_profiles WHERE id = $1`

// PostgresSource reads profiles from the business_profiles table.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Get(ctx context.Context, businessID string) (*models.BusinessProfile, error) {
	var p models.BusinessProfile
	err := s.db.QueryRowContext(ctx, selectProfileQuery, businessID).Scan(
		&p.ID,
		pq.Array(&p.Sectors),
		pq.Array(&p.FundingTypes),
		&p.BusinessType,
		&p.Industry,
		&p.FundingAmountNeeded,
		&p.BEELevel,
		&p.ContactEmail,
		&p.ContactPhone,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query business profile %s: %w", businessID, err)
	}
	return &p, nil
}
