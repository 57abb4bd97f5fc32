// internal/common/camunda/worker_test.go
package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"funding-match-workers/internal/common/camunda/camundatest"
	"funding-match-workers/internal/common/errors"
	"funding-match-workers/internal/common/logger"
	"funding-match-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Instrument
// ==========================

func TestInstrument_Success(t *testing.T) {
	taskType := "test-instrument-success"
	called := false
	handler := HandlerFunc(func(client worker.JobClient, job entities.Job) error {
		called = true
		assert.Equal(t, int64(7), job.Key)
		return nil
	})

	wrapped := Instrument(taskType, handler, nil, logger.NewTestLogger(t))
	wrapped(camundatest.NewJobClient(), camundatest.NewJob(7, taskType, nil))

	assert.True(t, called)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType)))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
}

func TestInstrument_ErrorRecordsCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "standard error keeps its code",
			err:      errors.NewProfileNotFoundError("biz-1"),
			wantCode: "PROFILE_NOT_FOUND",
		},
		{
			name:     "plain error becomes internal",
			err:      stderrors.New("boom"),
			wantCode: "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taskType := "test-instrument-" + tt.wantCode
			handler := HandlerFunc(func(worker.JobClient, entities.Job) error { return tt.err })

			Instrument(taskType, handler, nil, logger.NewNoOpLogger())(nil, camundatest.NewJob(1, taskType, nil))

			assert.Equal(t, float64(1), testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues(taskType, tt.wantCode)))
			assert.Equal(t, float64(0), testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType)))
		})
	}
}

// ==========================
// Retry
// ==========================

func TestRetry_TransientThenSuccess(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	attempts := 0

	err := Retry(context.Background(), cfg, "publish", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return stderrors.New("rpc error: code = Unavailable desc = connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_NonTransientStopsImmediately(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	attempts := 0
	cause := stderrors.New("rpc error: code = InvalidArgument desc = bad request")

	err := Retry(context.Background(), cfg, "publish", func(context.Context) error {
		attempts++
		return cause
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, attempts)
}

func TestRetry_ExhaustsRetries(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	attempts := 0

	err := Retry(context.Background(), cfg, "publish", func(context.Context) error {
		attempts++
		return stderrors.New("deadline exceeded")
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRetry_ContextCancelled(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, cfg, "publish", func(context.Context) error {
		return stderrors.New("unavailable")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, IsRetryableZeebeError(stderrors.New("Connection Refused")))
	assert.True(t, IsRetryableZeebeError(stderrors.New("context deadline exceeded")))
	assert.False(t, IsRetryableZeebeError(stderrors.New("NOT_FOUND: no such message")))
}
