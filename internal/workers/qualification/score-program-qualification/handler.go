// internal/workers/qualification/score-program-qualification/handler.go
package scoreprogramqualification

import (
	"context"

	"funding-match-workers/internal/common/errors"
	"funding-match-workers/internal/common/logger"
	"funding-match-workers/internal/common/metrics"
	"funding-match-workers/internal/common/observability"
	"funding-match-workers/internal/common/validation"
	"funding-match-workers/internal/matches"
	"funding-match-workers/internal/models"
	"funding-match-workers/internal/profiles"
	"funding-match-workers/internal/qualification"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "score-program-qualification"
)

type Handler struct {
	config     *Config
	profiles   profiles.Source
	store      matches.Store
	validator  *validation.SchemaValidator
	errHandler *errors.ErrorHandler
	obs        *observability.Observability
	logger     logger.Logger
}

// NewHandler builds the handler. store may be nil, which disables match persistence.
func NewHandler(
	config *Config,
	profileSource profiles.Source,
	store matches.Store,
	validator *validation.SchemaValidator,
	obs *observability.Observability,
	log logger.Logger,
) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		profiles:   profileSource,
		store:      store,
		validator:  validator,
		errHandler: errors.NewErrorHandler(log),
		obs:        obs,
		logger:     log,
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
	if input.Program == nil || input.Program.ID == "" {
		return nil, errors.NewInvalidInputError("program with an id is required")
	}

	profile, err := profiles.Resolve(ctx, h.profiles, input.BusinessID, input.BusinessProfile)
	if err != nil {
		return nil, err
	}

	result := qualification.Score(input.Program, profile)
	metrics.ObserveQualification(TaskType, result.Score, result.Qualifies)
	h.obs.RecordQualification(ctx, result.Score, result.Qualifies)

	output := &Output{
		ProgramID:     input.Program.ID,
		Qualification: result,
	}

	businessID := input.BusinessID
	if businessID == "" && profile != nil {
		businessID = profile.ID
	}

	if h.config.PersistMatches && h.store != nil && profile != nil && businessID != "" {
		record := matches.NewRecord(businessID, input.Program.ID, result, models.MatchSourceRuleBased)
		if err := h.store.Save(ctx, []models.MatchRecord{record}); err != nil {
			return nil, errors.NewMatchPersistFailedError(err)
		}
		output.Persisted = true
	}

	h.logger.Info("program scored", map[string]interface{}{
		"businessId": businessID,
		"programId":  input.Program.ID,
		"score":      result.Score,
		"qualifies":  result.Qualifies,
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
