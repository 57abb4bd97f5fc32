// Package programs reads funding programs from the catalog table and the search index.
package programs

import (
	"context"
	"database/sql"
	"fmt"

	"funding-match-workers/internal/models"

	"github.com/lib/pq"
)

// Catalog lists the funding programs open for matching.
type Catalog interface {
	ListActive(ctx context.Context) ([]models.Program, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Program, error)
}

const programColumns = `id, name, provider, sectors, summary, eligibility, funding_amount`

// PostgresCatalog reads the funding_programs table.
type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

// ListActive returns every active program ordered by name then ID.
func (c *PostgresCatalog) ListActive(ctx context.Context) ([]models.Program, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+programColumns+` FROM funding_programs WHERE active ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query active programs: %w", err)
	}
	defer rows.Close()
	return scanPrograms(rows)
}

// GetByIDs returns the active programs among ids, ordered by ID. Unknown IDs are skipped.
func (c *PostgresCatalog) GetByIDs(ctx context.Context, ids []string) ([]models.Program, error) {
	if len(ids) == 0 {
		return []models.Program{}, nil
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+programColumns+` FROM funding_programs WHERE active AND id = ANY($1) ORDER BY id`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query programs by id: %w", err)
	}
	defer rows.Close()
	return scanPrograms(rows)
}

func scanPrograms(rows *sql.Rows) ([]models.Program, error) {
	programs := []models.Program{}
	for rows.Next() {
		var p models.Program
		var sectors string
		if err := rows.Scan(&p.ID, &p.Name, &p.Provider, &sectors, &p.Summary, &p.Eligibility, &p.FundingAmount); err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		p.Sectors = models.SectorList(sectors)
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate programs: %w", err)
	}
	return programs, nil
}
