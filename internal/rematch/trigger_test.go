package rematch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"funding-match-workers/internal/common/camunda"
	"funding-match-workers/internal/common/camunda/camundatest"
	"funding-match-workers/internal/common/logger"
	"funding-match-workers/internal/common/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noDelay = &camunda.RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

func newTestTrigger(t *testing.T) (*ZeebeTrigger, *camundatest.Gateway) {
	t.Helper()
	gateway := &camundatest.Gateway{}
	trigger := NewZeebeTrigger(&camundatest.MessagePublisher{Gateway: gateway},
		"program-rematch-requested", time.Hour, noDelay, logger.NewTestLogger(t))
	trigger.now = func() time.Time { return time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC) }
	return trigger, gateway
}

func TestZeebeTrigger_Request(t *testing.T) {
	trigger, gateway := newTestTrigger(t)
	before := testutil.ToFloat64(metrics.RematchRequests.WithLabelValues(ReasonProfileUpdated, "published"))

	require.NoError(t, trigger.Request(context.Background(), "biz-1", ReasonProfileUpdated))

	require.Len(t, gateway.Published, 1)
	msg := gateway.Published[0]
	assert.Equal(t, "program-rematch-requested", msg.Name)
	assert.Equal(t, "biz-1", msg.CorrelationKey)
	assert.Equal(t, int64(time.Hour/time.Millisecond), msg.TimeToLive)

	vars := map[string]interface{}{}
	require.NoError(t, json.Unmarshal([]byte(msg.Variables), &vars))
	assert.Equal(t, "biz-1", vars["businessId"])
	assert.Equal(t, ReasonProfileUpdated, vars["reason"])
	assert.Equal(t, "2026-10-19T10:00:00Z", vars["requestedAt"])

	after := testutil.ToFloat64(metrics.RematchRequests.WithLabelValues(ReasonProfileUpdated, "published"))
	assert.Equal(t, before+1, after)
}

func TestZeebeTrigger_RequestFailure(t *testing.T) {
	trigger, gateway := newTestTrigger(t)
	gateway.PublishErr = errors.New("rpc error: code = Unavailable desc = connection refused")
	before := testutil.ToFloat64(metrics.RematchRequests.WithLabelValues("other", "failed"))

	err := trigger.Request(context.Background(), "biz-2", "owner asked nicely")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "biz-2")
	assert.Empty(t, gateway.Published)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RematchRequests.WithLabelValues("other", "failed")))
}

func TestZeebeTrigger_RequiresBusinessID(t *testing.T) {
	trigger, gateway := newTestTrigger(t)
	assert.Error(t, trigger.Request(context.Background(), "", ReasonManual))
	assert.Empty(t, gateway.Published)
}

func TestReasonLabel(t *testing.T) {
	assert.Equal(t, ReasonStaleMatches, reasonLabel(ReasonStaleMatches))
	assert.Equal(t, "other", reasonLabel("something else"))
	assert.Equal(t, "other", reasonLabel(""))
}
