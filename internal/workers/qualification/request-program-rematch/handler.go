// internal/workers/qualification/request-program-rematch/handler.go
package requestprogramrematch

import (
	"context"
	"time"

	"funding-match-workers/internal/common/errors"
	"funding-match-workers/internal/common/logger"
	"funding-match-workers/internal/common/validation"
	"funding-match-workers/internal/rematch"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "request-program-rematch"
)

// Invalidator drops a cached profile so the next scoring pass reads fresh data.
type Invalidator interface {
	Invalidate(ctx context.Context, businessID string) error
}

type Handler struct {
	config      *Config
	trigger     rematch.Trigger
	invalidator Invalidator
	validator   *validation.SchemaValidator
	errHandler  *errors.ErrorHandler
	logger      logger.Logger
	now         func() time.Time
}

// NewHandler builds the handler. invalidator may be nil when profiles are not cached.
func NewHandler(config *Config, trigger rematch.Trigger, invalidator Invalidator, validator *validation.SchemaValidator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:      config,
		trigger:     trigger,
		invalidator: invalidator,
		validator:   validator,
		errHandler:  errors.NewErrorHandler(log),
		logger:      log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := validation.DecodeJobVariables(h.validator, TaskType, job.Variables, &input); err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	return h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.BusinessID == "" {
		return nil, errors.NewInvalidInputError("businessId is required")
	}
	reason := input.Reason
	if reason == "" {
		reason = rematch.ReasonProfileUpdated
	}

	output := &Output{BusinessID: input.BusinessID, Reason: reason}

	if h.config.InvalidateCache && h.invalidator != nil {
		// A stale cache entry only delays fresh data until its TTL expires, so it never fails the job.
		if err := h.invalidator.Invalidate(ctx, input.BusinessID); err != nil {
			h.logger.Warn("failed to invalidate cached profile", map[string]interface{}{
				"businessId": input.BusinessID,
				"error":      err,
			})
		} else {
			output.CacheInvalidated = true
		}
	}

	if err := h.trigger.Request(ctx, input.BusinessID, reason); err != nil {
		return nil, errors.NewRematchTriggerFailedError(input.BusinessID, err)
	}

	output.Requested = true
	output.RequestedAt = h.now().Format(time.RFC3339)

	h.logger.Info("rematch requested", map[string]interface{}{
		"businessId": input.BusinessID,
		"reason":     reason,
	})
	return output, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return err
	}
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
