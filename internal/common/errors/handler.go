// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler fails or throws jobs according to the error's code.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Action is what the engine should be told about a failed job.
type Action int

const (
	// ActionFail fails the job and lets the engine retry it.
	ActionFail Action = iota
	// ActionThrow throws a BPMN error for the process to catch.
	ActionThrow
)

// Decision is the resolved outcome of a job error.
type Decision struct {
	Action  Action
	Retries int32
	Error   *BPMNError
	Cause   *StandardError
}

// Decide resolves err for a job with the given remaining retries. Technical errors fail the
// job while it still has retries; business errors and exhausted jobs throw.
func Decide(jobRetries int32, err error) Decision {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	maxRetries := int32(bpmnErr.Retries)
	if maxRetries > 0 && jobRetries > 0 {
		retries := jobRetries - 1
		if retries > maxRetries {
			retries = maxRetries
		}
		return Decision{Action: ActionFail, Retries: retries, Error: bpmnErr, Cause: stdErr}
	}
	return Decision{Action: ActionThrow, Error: bpmnErr, Cause: stdErr}
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// HandleJobError reports err for job to the engine and logs the outcome.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) Decision {
	decision := Decide(job.Retries, err)
	h.logError(job, decision)

	switch decision.Action {
	case ActionFail:
		h.failJobWithRetries(ctx, client, job, decision)
	default:
		h.throwBPMNError(ctx, client, job, decision.Error)
	}
	return decision
}

func (h *ErrorHandler) failJobWithRetries(ctx context.Context, client worker.JobClient, job entities.Job, decision Decision) {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(decision.Retries).
		ErrorMessage(decision.Error.Message)

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send fail job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
	}
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	varsJSON, err := json.Marshal(bpmnErr.ToErrorVariables())
	if err == nil {
		if withVars, verr := cmd.VariablesFromString(string(varsJSON)); verr == nil {
			if _, err := withVars.Send(ctx); err != nil {
				h.logger.Error("failed to throw BPMN error", map[string]interface{}{
					"jobKey": job.Key,
					"error":  err,
				})
			}
			return
		}
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to throw BPMN error", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
	}
}

func (h *ErrorHandler) logError(job entities.Job, decision Decision) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":             job.Key,
		"jobType":            job.Type,
		"errorCode":          string(decision.Cause.Code),
		"bpmnErrorCode":      decision.Error.Code,
		"message":            decision.Error.Message,
		"details":            decision.Cause.Details,
		"retryable":          decision.Cause.Retryable,
		"remainingRetries":   decision.Retries,
		"thrown":             decision.Action == ActionThrow,
		"errorCategory":      GetErrorCategory(decision.Cause.Code),
		"processInstanceKey": job.ProcessInstanceKey,
	})
}
