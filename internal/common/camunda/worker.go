// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"funding-match-workers/internal/common/config"
	"funding-match-workers/internal/common/errors"
	"funding-match-workers/internal/common/logger"
	"funding-match-workers/internal/common/metrics"
	"funding-match-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// JobHandler handles one activated job. A returned error has already been reported to the
// engine by the handler; it is only used for instrumentation.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

// HandlerFunc adapts a function to JobHandler.
type HandlerFunc func(client worker.JobClient, job entities.Job) error

func (f HandlerFunc) Handle(client worker.JobClient, job entities.Job) error {
	return f(client, job)
}

// Instrument wraps handler with the active-jobs gauge, a job span, job metrics and error logging.
func Instrument(taskType string, handler JobHandler, obs *observability.Observability, log logger.Logger) worker.JobHandler {
	log = log.WithFields(map[string]interface{}{"taskType": taskType})

	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		active := metrics.WorkerJobsActive.WithLabelValues(taskType)
		active.Inc()
		defer active.Dec()

		ctx, span := obs.StartSpan(context.Background(), taskType,
			attribute.Int64("job.key", job.Key),
			attribute.Int64("process.instance.key", job.ProcessInstanceKey),
		)
		defer span.End()

		status := "success"
		errorCode := ""
		if err := handler.Handle(client, job); err != nil {
			status = "error"
			errorCode = string(errors.Normalize(err).Code)
			span.RecordError(err)
			span.SetStatus(codes.Error, errorCode)
			log.Error("handler returned error", map[string]interface{}{
				"jobKey":    job.Key,
				"errorCode": errorCode,
				"error":     err,
			})
		}

		metrics.ObserveJob(taskType, start, errorCode)
		obs.RecordJobProcessed(ctx, taskType, status)
		obs.RecordJobDuration(ctx, taskType, time.Since(start), status)
	}
}

// StartWorker opens a job worker for taskType using the worker's configured concurrency and timeout.
func StartWorker(
	client zbc.Client,
	taskType string,
	wcfg config.WorkerConfig,
	handler JobHandler,
	obs *observability.Observability,
	log logger.Logger,
) worker.JobWorker {
	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, obs, log)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Name(taskType).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeoutMs":     wcfg.Timeout,
	})
	return jobWorker
}
