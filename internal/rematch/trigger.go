// Package rematch asks the external matching process to re-evaluate a business.
package rematch

import (
	"context"
	"fmt"
	"time"

	"funding-match-workers/internal/common/camunda"
	"funding-match-workers/internal/common/logger"
	"funding-match-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
)

// Known request reasons. Other reasons are accepted and reported as "other".
const (
	ReasonProfileUpdated = "profile_updated"
	ReasonStaleMatches   = "stale_matches"
	ReasonCatalogChanged = "catalog_changed"
	ReasonManual         = "manual"
)

// Trigger requests re-matching for one business. It never waits for the re-matching result.
type Trigger interface {
	Request(ctx context.Context, businessID, reason string) error
}

// MessagePublisher is the part of zbc.Client used to publish messages.
type MessagePublisher interface {
	NewPublishMessageCommand() commands.PublishMessageCommandStep1
}

// ZeebeTrigger publishes a message correlated by business ID.
type ZeebeTrigger struct {
	publisher   MessagePublisher
	messageName string
	ttl         time.Duration
	retry       *camunda.RetryConfig
	logger      logger.Logger
	now         func() time.Time
}

func NewZeebeTrigger(publisher MessagePublisher, messageName string, ttl time.Duration, retry *camunda.RetryConfig, log logger.Logger) *ZeebeTrigger {
	return &ZeebeTrigger{
		publisher:   publisher,
		messageName: messageName,
		ttl:         ttl,
		retry:       retry,
		logger:      log.WithFields(map[string]interface{}{"component": "rematch-trigger"}),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (t *ZeebeTrigger) Request(ctx context.Context, businessID, reason string) error {
	if businessID == "" {
		return fmt.Errorf("rematch request without business ID")
	}

	variables := map[string]interface{}{
		"businessId":  businessID,
		"reason":      reason,
		"requestedAt": t.now().Format(time.RFC3339),
	}

	err := camunda.Retry(ctx, t.retry, "publish "+t.messageName, func(ctx context.Context) error {
		cmd, err := t.publisher.NewPublishMessageCommand().
			MessageName(t.messageName).
			CorrelationKey(businessID).
			TimeToLive(t.ttl).
			VariablesFromMap(variables)
		if err != nil {
			return err
		}
		_, err = cmd.Send(ctx)
		return err
	})

	label := reasonLabel(reason)
	if err != nil {
		metrics.RematchRequests.WithLabelValues(label, "failed").Inc()
		return fmt.Errorf("request rematch for %s: %w", businessID, err)
	}

	metrics.RematchRequests.WithLabelValues(label, "published").Inc()
	t.logger.Info("rematch requested", map[string]interface{}{
		"businessId": businessID,
		"reason":     reason,
	})
	return nil
}

func reasonLabel(reason string) string {
	switch reason {
	case ReasonProfileUpdated, ReasonStaleMatches, ReasonCatalogChanged, ReasonManual:
		return reason
	default:
		return "other"
	}
}
