// internal/workers/qualification/rank-funding-programs/handler.go
package rankfundingprograms

import (
	"context"
	stderrors "errors"

	"funding-match-workers/internal/common/errors"
	"funding-match-workers/internal/common/logger"
	"funding-match-workers/internal/common/metrics"
	"funding-match-workers/internal/common/observability"
	"funding-match-workers/internal/common/validation"
	"funding-match-workers/internal/matches"
	"funding-match-workers/internal/models"
	"funding-match-workers/internal/profiles"
	"funding-match-workers/internal/programs"
	"funding-match-workers/internal/qualification"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "rank-funding-programs"
)

// Dependencies groups the adapters the ranking worker reads from. Searcher and Store may be nil.
type Dependencies struct {
	Profiles profiles.Source
	Catalog  programs.Catalog
	Searcher programs.Searcher
	Store    matches.Store
}

type Handler struct {
	config     *Config
	deps       Dependencies
	validator  *validation.SchemaValidator
	errHandler *errors.ErrorHandler
	obs        *observability.Observability
	logger     logger.Logger
}

func NewHandler(config *Config, deps Dependencies, validator *validation.SchemaValidator, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		deps:       deps,
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
	mode := input.Mode
	if mode == "" {
		mode = ModeQualified
	}
	if mode != ModeQualified && mode != ModeAll {
		return nil, errors.NewInvalidInputError("mode must be one of qualified, all")
	}

	source := input.Source
	if source == "" {
		source = SourceComputed
	}
	if source != SourceComputed && source != SourceStored {
		return nil, errors.NewInvalidInputError("source must be one of computed, stored")
	}

	if source == SourceStored {
		output, err := h.fromStore(ctx, input.BusinessID, mode)
		if err != nil {
			return nil, err
		}
		if output != nil {
			h.capOutput(output, input.MaxItems)
			return output, nil
		}
		h.logger.Info("no stored matches, computing ranking", map[string]interface{}{
			"businessId": input.BusinessID,
		})
	}

	profile, err := profiles.Resolve(ctx, h.deps.Profiles, input.BusinessID, input.BusinessProfile)
	if err != nil {
		return nil, err
	}

	candidates, err := h.candidates(ctx, input, profile)
	if err != nil {
		return nil, err
	}

	scored := qualification.ScoreAll(candidates, profile)
	qualifiedCount := 0
	for _, rp := range scored {
		if rp.Qualification.Qualifies {
			qualifiedCount++
		}
		metrics.ObserveQualification(TaskType, rp.MatchScore, rp.Qualification.Qualifies)
		h.obs.RecordQualification(ctx, rp.MatchScore, rp.Qualification.Qualifies)
	}

	// Mode all keeps candidate order; only qualified output is sorted by score.
	ranked := scored
	if mode == ModeQualified {
		ranked = qualification.FilterQualified(candidates, profile)
	}

	// Every candidate is stored, so a program that stopped qualifying overwrites its old record.
	if err := h.persist(ctx, input.BusinessID, profile, scored); err != nil {
		return nil, err
	}

	output := &Output{
		RankedPrograms:  ranked,
		TotalCandidates: len(candidates),
		QualifiedCount:  qualifiedCount,
		Mode:            mode,
		Source:          SourceComputed,
	}
	h.capOutput(output, input.MaxItems)

	h.logger.Info("programs ranked", map[string]interface{}{
		"businessId":      input.BusinessID,
		"mode":            mode,
		"totalCandidates": output.TotalCandidates,
		"qualifiedCount":  output.QualifiedCount,
		"returned":        len(output.RankedPrograms),
	})
	return output, nil
}

// candidates picks the program list: inline programs, else search hits, else the whole catalog.
func (h *Handler) candidates(ctx context.Context, input *Input, profile *models.BusinessProfile) ([]models.Program, error) {
	if len(input.Programs) > 0 {
		return input.Programs, nil
	}

	if input.UseSearch && h.deps.Searcher != nil && profile != nil {
		found, err := h.deps.Searcher.Candidates(ctx, profile, h.config.SearchCandidates)
		if err != nil {
			if stderrors.Is(err, programs.ErrSearchTimeout) {
				return nil, errors.NewSearchTimeoutError(h.config.SearchIndex)
			}
			return nil, errors.NewSearchQueryFailedError(h.config.SearchIndex, err)
		}
		return found, nil
	}

	if h.deps.Catalog == nil {
		return nil, errors.NewInvalidInputError("programs are required when no catalog is configured")
	}
	all, err := h.deps.Catalog.ListActive(ctx)
	if err != nil {
		return nil, errors.NewCatalogQueryFailedError(err)
	}
	return all, nil
}

// fromStore ranks previously stored records, rule-based or AI-assisted. It returns nil output
// when the business has no stored records.
func (h *Handler) fromStore(ctx context.Context, businessID, mode string) (*Output, error) {
	if businessID == "" {
		return nil, errors.NewInvalidInputError("businessId is required for source stored")
	}
	if h.deps.Store == nil || h.deps.Catalog == nil {
		return nil, nil
	}

	records, err := h.deps.Store.ListForBusiness(ctx, businessID)
	if err != nil {
		return nil, errors.NewMatchQueryFailedError(businessID, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ProgramID)
	}
	found, err := h.deps.Catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.NewCatalogQueryFailedError(err)
	}
	byID := make(map[string]models.Program, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	output := &Output{RankedPrograms: []models.RankedProgram{}, Mode: mode, Source: SourceStored}
	for _, rec := range records {
		program, ok := byID[rec.ProgramID]
		if !ok {
			continue
		}
		output.TotalCandidates++
		if rec.Qualifies {
			output.QualifiedCount++
		} else if mode == ModeQualified {
			continue
		}
		output.RankedPrograms = append(output.RankedPrograms, models.RankedProgram{
			Program: program,
			Qualification: models.QualificationResult{
				Score:     rec.Score,
				MaxScore:  models.MaxQualificationScore,
				Qualifies: rec.Qualifies,
				Reasons:   rec.Reasons,
			},
			MatchScore: rec.Score,
		})
	}
	if output.TotalCandidates == 0 {
		return nil, nil
	}
	return output, nil
}

func (h *Handler) persist(ctx context.Context, businessID string, profile *models.BusinessProfile, scored []models.RankedProgram) error {
	if !h.config.PersistMatches || h.deps.Store == nil || profile == nil || len(scored) == 0 {
		return nil
	}
	if businessID == "" {
		businessID = profile.ID
	}
	if businessID == "" {
		return nil
	}

	records := make([]models.MatchRecord, 0, len(scored))
	for _, rp := range scored {
		records = append(records, matches.NewRecord(businessID, rp.ID, rp.Qualification, models.MatchSourceRuleBased))
	}
	if err := h.deps.Store.Save(ctx, records); err != nil {
		return errors.NewMatchPersistFailedError(err)
	}
	return nil
}

// capOutput truncates the ranking to the smaller positive limit of the job and the config.
func (h *Handler) capOutput(output *Output, requested int) {
	limit := h.config.MaxRankedItems
	if requested > 0 && (limit == 0 || requested < limit) {
		limit = requested
	}
	if limit > 0 && len(output.RankedPrograms) > limit {
		output.RankedPrograms = output.RankedPrograms[:limit]
	}
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
