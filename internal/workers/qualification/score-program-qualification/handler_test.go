// internal/workers/qualification/score-program-qualification/handler_test.go
package scoreprogramqualification

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"funding-match-workers/internal/common/camunda/camundatest"
	"funding-match-workers/internal/common/errors"
	"funding-match-workers/internal/common/logger"
	"funding-match-workers/internal/common/validation"
	"funding-match-workers/internal/models"
	"funding-match-workers/internal/profiles"
	"funding-match-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockProfileSource struct {
	mock.Mock
}

func (m *MockProfileSource) Get(ctx context.Context, businessID string) (*models.BusinessProfile, error) {
	args := m.Called(ctx, businessID)
	if p, ok := args.Get(0).(*models.BusinessProfile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockMatchStore struct {
	mock.Mock
}

func (m *MockMatchStore) Save(ctx context.Context, records []models.MatchRecord) error {
	return m.Called(ctx, records).Error(0)
}

func (m *MockMatchStore) ListForBusiness(ctx context.Context, businessID string) ([]models.MatchRecord, error) {
	args := m.Called(ctx, businessID)
	records, _ := args.Get(0).([]models.MatchRecord)
	return records, args.Error(1)
}

func (m *MockMatchStore) ListStaleBusinesses(ctx context.Context, limit int) ([]string, error) {
	args := m.Called(ctx, limit)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second, PersistMatches: true}
}

func createTestProfile() *models.BusinessProfile {
	return &models.BusinessProfile{
		ID:                  "biz-001",
		Sectors:             []string{"Agriculture"},
		FundingTypes:        []string{models.FundingTypeGrants},
		BusinessType:        models.BusinessTypePtyLtd,
		Industry:            "farming",
		FundingAmountNeeded: models.Amount100KTo500K,
		BEELevel:            "level-2",
	}
}

func createTestProgram() *models.Program {
	return &models.Program{
		ID:            "prog-agri",
		Name:          "Agri Growth Grant",
		Sectors:       "Agriculture, Agro-processing",
		Summary:       "Grant funding for emerging farmers",
		Eligibility:   "farming enterprises registered as Pty Ltd companies with BEE certification",
		FundingAmount: "Up to R500,000",
	}
}

func createTestValidator(t *testing.T) *validation.SchemaValidator {
	t.Helper()
	reg, err := registry.LoadRegistry("../../../../configs/activity-registry.json")
	require.NoError(t, err)
	v, err := validation.NewSchemaValidator(reg)
	require.NoError(t, err)
	return v
}

// createTestHandler passes a nil Store interface when store is nil so persistence is disabled.
func createTestHandler(t *testing.T, source profiles.Source, store *MockMatchStore) *Handler {
	if store == nil {
		return NewHandler(createTestConfig(), source, nil, createTestValidator(t), nil, logger.NewTestLogger(t))
	}
	return NewHandler(createTestConfig(), source, store, createTestValidator(t), nil, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_InlineProfile(t *testing.T) {
	handler := createTestHandler(t, &MockProfileSource{}, nil)

	output, err := handler.Execute(context.Background(), &Input{
		BusinessProfile: createTestProfile(),
		Program:         createTestProgram(),
	})

	require.NoError(t, err)
	assert.Equal(t, "prog-agri", output.ProgramID)
	assert.Equal(t, 100, output.Qualification.Score)
	assert.True(t, output.Qualification.Qualifies)
	assert.Len(t, output.Qualification.Reasons, 6)
	assert.False(t, output.Persisted)
}

func TestHandler_Execute_LooksUpProfileAndPersists(t *testing.T) {
	source := &MockProfileSource{}
	source.On("Get", mock.Anything, "biz-001").Return(createTestProfile(), nil)

	store := &MockMatchStore{}
	store.On("Save", mock.Anything, mock.MatchedBy(func(records []models.MatchRecord) bool {
		return len(records) == 1 &&
			records[0].BusinessID == "biz-001" &&
			records[0].ProgramID == "prog-agri" &&
			records[0].Score == 100 &&
			records[0].Source == models.MatchSourceRuleBased
	})).Return(nil)

	handler := createTestHandler(t, source, store)
	output, err := handler.Execute(context.Background(), &Input{BusinessID: "biz-001", Program: createTestProgram()})

	require.NoError(t, err)
	assert.True(t, output.Persisted)
	source.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestHandler_Execute_MissingProfileScoresZero(t *testing.T) {
	store := &MockMatchStore{}
	handler := createTestHandler(t, &MockProfileSource{}, store)

	output, err := handler.Execute(context.Background(), &Input{Program: createTestProgram()})

	require.NoError(t, err)
	assert.Equal(t, 0, output.Qualification.Score)
	assert.False(t, output.Qualification.Qualifies)
	assert.Equal(t, []string{"Missing profile or program data"}, output.Qualification.Reasons)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    *Input
		setup    func(source *MockProfileSource, store *MockMatchStore)
		wantCode errors.ErrorCode
	}{
		{
			name:     "program without id",
			input:    &Input{BusinessProfile: createTestProfile(), Program: &models.Program{Name: "x"}},
			wantCode: errors.ErrCodeInvalidInput,
		},
		{
			name:  "unknown business",
			input: &Input{BusinessID: "biz-404", Program: createTestProgram()},
			setup: func(source *MockProfileSource, _ *MockMatchStore) {
				source.On("Get", mock.Anything, "biz-404").Return(nil, profiles.ErrNotFound)
			},
			wantCode: errors.ErrCodeProfileNotFound,
		},
		{
			name:  "persist failure",
			input: &Input{BusinessID: "biz-001", Program: createTestProgram()},
			setup: func(source *MockProfileSource, store *MockMatchStore) {
				source.On("Get", mock.Anything, "biz-001").Return(createTestProfile(), nil)
				store.On("Save", mock.Anything, mock.Anything).Return(stderrors.New("deadlock detected"))
			},
			wantCode: errors.ErrCodeMatchPersistFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &MockProfileSource{}
			store := &MockMatchStore{}
			if tt.setup != nil {
				tt.setup(source, store)
			}

			_, err := createTestHandler(t, source, store).Execute(context.Background(), tt.input)

			require.Error(t, err)
			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
		})
	}
}

// ==========================
// Job Handling Tests
// ==========================

func TestHandler_Handle_CompletesJob(t *testing.T) {
	client := camundatest.NewJobClient()
	handler := createTestHandler(t, &MockProfileSource{}, nil)

	job := camundatest.NewJob(101, TaskType, map[string]interface{}{
		"businessProfile": map[string]interface{}{
			"sectors":      []string{"Agriculture"},
			"fundingTypes": []string{"Grants"},
		},
		"program": map[string]interface{}{
			"id":      "prog-agri",
			"sectors": []string{"Agriculture", "Forestry"},
			"summary": "grant support",
		},
	})

	require.NoError(t, handler.Handle(client, job))
	require.Len(t, client.Gateway.Completed, 1)
	assert.Equal(t, int64(101), client.Gateway.Completed[0].JobKey)

	vars, err := client.Gateway.CompletedVariables(0)
	require.NoError(t, err)
	qualificationVars := vars["qualification"].(map[string]interface{})
	assert.Equal(t, float64(55), qualificationVars["score"])
	assert.Equal(t, true, qualificationVars["qualifies"])
}

func TestHandler_Handle_InvalidInputThrows(t *testing.T) {
	client := camundatest.NewJobClient()
	handler := createTestHandler(t, &MockProfileSource{}, nil)

	err := handler.Handle(client, camundatest.NewJob(102, TaskType, map[string]interface{}{"businessId": "biz-1"}))

	require.Error(t, err)
	assert.Empty(t, client.Gateway.Completed)
	require.Len(t, client.Gateway.Thrown, 1)
	assert.Equal(t, "INVALID_INPUT", client.Gateway.Thrown[0].ErrorCode)
}

func TestHandler_Handle_LookupFailureFailsWithRetries(t *testing.T) {
	client := camundatest.NewJobClient()
	source := &MockProfileSource{}
	source.On("Get", mock.Anything, "biz-001").Return(nil, stderrors.New("connection refused"))
	handler := createTestHandler(t, source, nil)

	err := handler.Handle(client, camundatest.NewJob(103, TaskType, map[string]interface{}{
		"businessId": "biz-001",
		"program":    map[string]interface{}{"id": "prog-agri"},
	}))

	require.Error(t, err)
	require.Len(t, client.Gateway.Failed, 1)
	assert.Equal(t, int32(2), client.Gateway.Failed[0].Retries)
	assert.Empty(t, client.Gateway.Thrown)
}
