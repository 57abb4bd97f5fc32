package matches

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"funding-match-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewPostgresStore(db)
	store.now = func() time.Time { return fixedNow }
	return store, sqlMock
}

// reasonsArg matches a JSON-encoded reasons column.
type reasonsArg []string

func (r reasonsArg) Match(v driver.Value) bool {
	raw, ok := v.([]byte)
	if !ok {
		return false
	}
	var got []string
	if err := json.Unmarshal(raw, &got); err != nil {
		return false
	}
	return assert.ObjectsAreEqual([]string(r), got)
}

type uuidArg struct{}

func (uuidArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func TestNewRecord(t *testing.T) {
	rec := NewRecord("biz-1", "prog-1", models.QualificationResult{Score: 55, Qualifies: true}, models.MatchSourceRuleBased)

	assert.Equal(t, "biz-1", rec.BusinessID)
	assert.Equal(t, 55, rec.Score)
	assert.True(t, rec.Qualifies)
	assert.NotNil(t, rec.Reasons)
	assert.Equal(t, models.MatchSourceRuleBased, rec.Source)
}

func TestPostgresStore_Save(t *testing.T) {
	store, sqlMock := newTestStore(t)

	records := []models.MatchRecord{
		NewRecord("biz-1", "prog-1", models.QualificationResult{Score: 70, Qualifies: true, Reasons: []string{"✓ Sector match"}}, models.MatchSourceRuleBased),
		NewRecord("biz-1", "prog-2", models.QualificationResult{Score: 10, Reasons: []string{"✗ Sector mismatch"}}, models.MatchSourceRuleBased),
	}

	sqlMock.ExpectBegin()
	sqlMock.ExpectExec(`INSERT INTO program_matches .* ON CONFLICT \(business_id, program_id\) DO UPDATE`).
		WithArgs(uuidArg{}, "biz-1", "prog-1", 70, true, reasonsArg{"✓ Sector match"}, "rule_based", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectExec(`INSERT INTO program_matches`).
		WithArgs(uuidArg{}, "biz-1", "prog-2", 10, false, reasonsArg{"✗ Sector mismatch"}, "rule_based", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectCommit()

	require.NoError(t, store.Save(context.Background(), records))

	assert.NotEmpty(t, records[0].ID)
	assert.NotEqual(t, records[0].ID, records[1].ID)
	assert.Equal(t, fixedNow, records[1].CreatedAt)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestPostgresStore_Save_KeepsExistingIDAndTime(t *testing.T) {
	store, sqlMock := newTestStore(t)
	created := fixedNow.Add(-time.Hour)
	id := uuid.NewString()

	records := []models.MatchRecord{{
		ID: id, BusinessID: "biz-1", ProgramID: "prog-9", Score: 85, Qualifies: true,
		Reasons: []string{"✓ ai"}, Source: models.MatchSourceAIAssisted, CreatedAt: created,
	}}

	sqlMock.ExpectBegin()
	sqlMock.ExpectExec(`INSERT INTO program_matches`).
		WithArgs(id, "biz-1", "prog-9", 85, true, reasonsArg{"✓ ai"}, "ai_assisted", created).
		WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectCommit()

	require.NoError(t, store.Save(context.Background(), records))
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestPostgresStore_Save_RollsBackOnError(t *testing.T) {
	store, sqlMock := newTestStore(t)

	sqlMock.ExpectBegin()
	sqlMock.ExpectExec(`INSERT INTO program_matches`).WillReturnError(errors.New("deadlock detected"))
	sqlMock.ExpectRollback()

	err := store.Save(context.Background(), []models.MatchRecord{
		NewRecord("biz-1", "prog-1", models.QualificationResult{}, models.MatchSourceRuleBased),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "biz-1/prog-1")
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestPostgresStore_Save_Empty(t *testing.T) {
	store, sqlMock := newTestStore(t)
	require.NoError(t, store.Save(context.Background(), nil))
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestPostgresStore_ListForBusiness(t *testing.T) {
	store, sqlMock := newTestStore(t)

	rows := sqlmock.NewRows([]string{"id", "business_id", "program_id", "score", "qualifies", "reasons", "source", "created_at"}).
		AddRow("m-1", "biz-1", "prog-9", 85, true, []byte(`["✓ AI assessment"]`), "ai_assisted", fixedNow).
		AddRow("m-2", "biz-1", "prog-1", 45, true, []byte(`["✓ Sector match","? Sector not specified"]`), "rule_based", fixedNow)
	sqlMock.ExpectQuery(`FROM program_matches WHERE business_id = \$1\s+ORDER BY score DESC, program_id`).
		WithArgs("biz-1").
		WillReturnRows(rows)

	records, err := store.ListForBusiness(context.Background(), "biz-1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, models.MatchSourceAIAssisted, records[0].Source)
	assert.Equal(t, []string{"✓ Sector match", "? Sector not specified"}, records[1].Reasons)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestPostgresStore_ListForBusiness_BadReasons(t *testing.T) {
	store, sqlMock := newTestStore(t)

	rows := sqlmock.NewRows([]string{"id", "business_id", "program_id", "score", "qualifies", "reasons", "source", "created_at"}).
		AddRow("m-1", "biz-1", "prog-1", 45, true, []byte(`not json`), "rule_based", fixedNow)
	sqlMock.ExpectQuery(`FROM program_matches`).WithArgs("biz-1").WillReturnRows(rows)

	_, err := store.ListForBusiness(context.Background(), "biz-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode reasons")
}

func TestPostgresStore_ListStaleBusinesses(t *testing.T) {
	store, sqlMock := newTestStore(t)

	sqlMock.ExpectQuery(`SELECT bp.id\s+FROM business_profiles bp\s+LEFT JOIN`).
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("biz-3").AddRow("biz-7"))

	ids, err := store.ListStaleBusinesses(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"biz-3", "biz-7"}, ids)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
