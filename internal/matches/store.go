// Package matches persists qualification results per business and program.
package matches

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"funding-match-workers/internal/models"

	"github.com/google/uuid"
)

// Store keeps the newest qualification of each (business, program) pair. Records are written
// by the rule-based workers and independently by the AI-assisted matching process.
type Store interface {
	Save(ctx context.Context, records []models.MatchRecord) error
	ListForBusiness(ctx context.Context, businessID string) ([]models.MatchRecord, error)
	ListStaleBusinesses(ctx context.Context, limit int) ([]string, error)
}

const upsertMatchQuery = `INSERT INTO program_matches (id, business_id, program_id, score, qualifies, reasons, source, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (business_id, program_id) DO UPDATE SET
    score = EXCLUDED.score,
    qualifies = EXCLUDED.qualifies,
    reasons = EXCLUDED.reasons,
    source = EXCLUDED.source,
    created_at = EXCLUDED.created_at`

const listMatchesQuery = `SELECT id, business_id, program_id, score, qualifies, reasons, source, created_at
FROM program_matches WHERE business_id = $1
ORDER BY score DESC, program_id`

// A business is stale when its profile changed after its newest match, or it was never matched.
const staleBusinessesQuery = `SELECT bp.id
FROM business_profiles bp
LEFT JOIN (
    SELECT business_id, MAX(created_at) AS last_matched
    FROM program_matches GROUP BY business_id
) m ON m.business_id = bp.id
WHERE m.last_matched IS NULL OR m.last_matched < bp.updated_at
ORDER BY bp.updated_at, bp.id
LIMIT $1`

// PostgresStore stores match records in the program_matches table.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// NewRecord builds a record for one scored program.
func NewRecord(businessID, programID string, result models.QualificationResult, source models.MatchSource) models.MatchRecord {
	reasons := result.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return models.MatchRecord{
		BusinessID: businessID,
		ProgramID:  programID,
		Score:      result.Score,
		Qualifies:  result.Qualifies,
		Reasons:    reasons,
		Source:     source,
	}
}

// Save upserts records in one transaction, assigning IDs and timestamps where missing.
func (s *PostgresStore) Save(ctx context.Context, records []models.MatchRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin match save: %w", err)
	}

	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = s.now()
		}
		reasons, err := json.Marshal(rec.Reasons)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("encode reasons for %s: %w", rec.ProgramID, err)
		}

		if _, err := tx.ExecContext(ctx, upsertMatchQuery,
			rec.ID, rec.BusinessID, rec.ProgramID, rec.Score, rec.Qualifies, reasons, string(rec.Source), rec.CreatedAt,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert match %s/%s: %w", rec.BusinessID, rec.ProgramID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit match save: %w", err)
	}
	return nil
}

// ListForBusiness returns a business's records, highest score first.
func (s *PostgresStore) ListForBusiness(ctx context.Context, businessID string) ([]models.MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, listMatchesQuery, businessID)
	if err != nil {
		return nil, fmt.Errorf("query matches for %s: %w", businessID, err)
	}
	defer rows.Close()

	records := []models.MatchRecord{}
	for rows.Next() {
		var rec models.MatchRecord
		var reasons []byte
		var source string
		if err := rows.Scan(&rec.ID, &rec.BusinessID, &rec.ProgramID, &rec.Score, &rec.Qualifies, &reasons, &source, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if err := json.Unmarshal(reasons, &rec.Reasons); err != nil {
			return nil, fmt.Errorf("decode reasons for %s: %w", rec.ProgramID, err)
		}
		rec.Source = models.MatchSource(source)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return records, nil
}

// ListStaleBusinesses returns up to limit businesses needing re-matching, oldest change first.
func (s *PostgresStore) ListStaleBusinesses(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, staleBusinessesQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("query stale businesses: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan business id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
