package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"funding-match-workers/internal/common/logger"
	"funding-match-workers/internal/rematch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockStaleLister struct {
	mock.Mock
}

func (m *MockStaleLister) ListStaleBusinesses(ctx context.Context, limit int) ([]string, error) {
	args := m.Called(ctx, limit)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

type fakeTrigger struct {
	mu       sync.Mutex
	requests map[string]string
	failFor  map[string]bool
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func newFakeTrigger() *fakeTrigger {
	return &fakeTrigger{requests: map[string]string{}, failFor: map[string]bool{}}
}

func (f *fakeTrigger) Request(_ context.Context, businessID, reason string) error {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[businessID] {
		return errors.New("publish failed")
	}
	f.requests[businessID] = reason
	return nil
}

// ==========================
// Sweep
// ==========================

func TestSweep_RequestsEveryStaleBusiness(t *testing.T) {
	lister := &MockStaleLister{}
	lister.On("ListStaleBusinesses", mock.Anything, 50).Return([]string{"biz-1", "biz-2", "biz-3"}, nil)
	trigger := newFakeTrigger()

	stats, err := NewRematchSweeper(lister, trigger, 50, 2, logger.NewTestLogger(t)).Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Candidates)
	assert.Equal(t, 3, stats.Requested)
	assert.Zero(t, stats.Failed)
	assert.Equal(t, map[string]string{
		"biz-1": rematch.ReasonStaleMatches,
		"biz-2": rematch.ReasonStaleMatches,
		"biz-3": rematch.ReasonStaleMatches,
	}, trigger.requests)
	lister.AssertExpectations(t)
}

func TestSweep_FailuresDoNotAbort(t *testing.T) {
	lister := &MockStaleLister{}
	lister.On("ListStaleBusinesses", mock.Anything, 10).Return([]string{"biz-1", "biz-2", "biz-3", "biz-4"}, nil)
	trigger := newFakeTrigger()
	trigger.failFor["biz-2"] = true

	stats, err := NewRematchSweeper(lister, trigger, 10, 4, logger.NewNoOpLogger()).Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Requested)
	assert.Equal(t, 1, stats.Failed)
	assert.NotContains(t, trigger.requests, "biz-2")
	assert.Contains(t, trigger.requests, "biz-4")
}

func TestSweep_BoundedConcurrency(t *testing.T) {
	ids := make([]string, 20)
	for i := range ids {
		ids[i] = "biz-" + string(rune('a'+i))
	}
	lister := &MockStaleLister{}
	lister.On("ListStaleBusinesses", mock.Anything, 100).Return(ids, nil)
	trigger := newFakeTrigger()

	stats, err := NewRematchSweeper(lister, trigger, 100, 3, logger.NewNoOpLogger()).Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 20, stats.Requested)
	assert.LessOrEqual(t, trigger.maxSeen.Load(), int32(3))
}

func TestSweep_ListError(t *testing.T) {
	lister := &MockStaleLister{}
	lister.On("ListStaleBusinesses", mock.Anything, 100).Return(nil, errors.New("connection refused"))

	_, err := NewRematchSweeper(lister, newFakeTrigger(), 0, 0, logger.NewNoOpLogger()).Sweep(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list stale businesses")
}

func TestSweep_NothingStale(t *testing.T) {
	lister := &MockStaleLister{}
	lister.On("ListStaleBusinesses", mock.Anything, 100).Return([]string{}, nil)

	stats, err := NewRematchSweeper(lister, newFakeTrigger(), 100, 4, logger.NewNoOpLogger()).Sweep(context.Background())

	require.NoError(t, err)
	assert.Zero(t, stats.Candidates)
	assert.Zero(t, stats.Requested)
}

// ==========================
// Scheduling
// ==========================

func TestStart_InvalidSchedule(t *testing.T) {
	s := NewRematchSweeper(&MockStaleLister{}, newFakeTrigger(), 10, 1, logger.NewNoOpLogger())
	assert.Error(t, s.Start("every so often"))
}

func TestStart_RunsOnSchedule(t *testing.T) {
	lister := &MockStaleLister{}
	called := make(chan struct{}, 1)
	lister.On("ListStaleBusinesses", mock.Anything, 10).
		Run(func(mock.Arguments) {
			select {
			case called <- struct{}{}:
			default:
			}
		}).
		Return([]string{}, nil)

	s := NewRematchSweeper(lister, newFakeTrigger(), 10, 1, logger.NewNoOpLogger())
	require.NoError(t, s.Start("@every 1s"))
	defer s.Stop()

	select {
	case <-called:
	case <-time.After(3 * time.Second):
		t.Fatal("sweep did not run")
	}
}
