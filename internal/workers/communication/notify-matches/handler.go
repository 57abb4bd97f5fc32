// internal/workers/communication/notify-matches/handler.go
package notifymatches

import (
	"context"
	"fmt"
	"time"

	"funding-match-workers/internal/common/aws"
	"funding-match-workers/internal/common/errors"
	"funding-match-workers/internal/common/logger"
	"funding-match-workers/internal/common/validation"
	"funding-match-workers/internal/matches"
	"funding-match-workers/internal/models"
	"funding-match-workers/internal/profiles"
	"funding-match-workers/internal/programs"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "notify-matches"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config     *Config
	profiles   profiles.Source
	store      matches.Store
	catalog    programs.Catalog
	sesClient  SESService
	snsClient  SNSService
	validator  *validation.SchemaValidator
	errHandler *errors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

func NewHandler(
	config *Config,
	profileSource profiles.Source,
	store matches.Store,
	catalog programs.Catalog,
	sesClient SESService,
	snsClient SNSService,
	validator *validation.SchemaValidator,
	log logger.Logger,
) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		profiles:   profileSource,
		store:      store,
		catalog:    catalog,
		sesClient:  sesClient,
		snsClient:  snsClient,
		validator:  validator,
		errHandler: errors.NewErrorHandler(log),
		logger:     log,
		now:        func() time.Time { return time.Now().UTC() },
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

	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		Channels:       []string{},
		SentAt:         h.now().Format(time.RFC3339),
	}
	if !h.config.EmailEnabled && !h.config.SMSEnabled {
		h.logger.Info("notifications disabled", map[string]interface{}{"businessId": input.BusinessID})
		return output, nil
	}

	profile, err := profiles.Resolve(ctx, h.profiles, input.BusinessID, nil)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, errors.NewProfileNotFoundError(input.BusinessID)
	}

	email := ""
	if h.config.EmailEnabled && validation.ValidateEmail(profile.ContactEmail) {
		email = profile.ContactEmail
	}
	phone := ""
	if h.config.SMSEnabled && validation.ValidatePhone(profile.ContactPhone) {
		phone = profile.ContactPhone
	}
	if email == "" && phone == "" {
		return nil, errors.NewNoContactChannelError(input.BusinessID)
	}

	digest, err := h.loadDigest(ctx, input)
	if err != nil {
		return nil, err
	}
	if digest == nil {
		output.Status = StatusNoMatches
		h.logger.Info("no qualifying matches to notify", map[string]interface{}{"businessId": input.BusinessID})
		return output, nil
	}

	rendered, err := renderDigest(*digest)
	if err != nil {
		return nil, fmt.Errorf("render digest: %w", err)
	}

	if email != "" {
		in := aws.NewEmailInput(h.config.FromEmail, email, rendered.Subject, rendered.Text, rendered.HTML)
		if _, err := h.sesClient.SendEmail(ctx, in); err != nil {
			return nil, errors.NewNotificationSendFailedError(ChannelEmail, err)
		}
		output.Channels = append(output.Channels, ChannelEmail)
	}

	if phone != "" {
		in := aws.NewSMSInput(phone, rendered.SMS, h.config.SMSSenderID)
		if _, err := h.snsClient.Publish(ctx, in); err != nil {
			// Retrying after a delivered email would send the email twice.
			if len(output.Channels) == 0 {
				return nil, errors.NewNotificationSendFailedError(ChannelSMS, err)
			}
			h.logger.Warn("SMS send failed after email delivery", map[string]interface{}{
				"businessId": input.BusinessID,
				"error":      err,
			})
		} else {
			output.Channels = append(output.Channels, ChannelSMS)
		}
	}

	output.Status = StatusSent
	output.ProgramCount = len(digest.Programs)

	h.logger.Info("match digest sent", map[string]interface{}{
		"businessId":     input.BusinessID,
		"notificationId": output.NotificationID,
		"programCount":   output.ProgramCount,
		"channels":       output.Channels,
	})
	return output, nil
}

// loadDigest collects the best stored qualifying matches still open in the catalog.
// It returns nil when nothing is worth sending.
func (h *Handler) loadDigest(ctx context.Context, input *Input) (*digestData, error) {
	minScore := h.config.DefaultMinScore
	if input.MinScore != nil {
		minScore = *input.MinScore
	}
	maxPrograms := h.config.DefaultMaxPrograms
	if input.MaxPrograms > 0 {
		maxPrograms = input.MaxPrograms
	}

	records, err := h.store.ListForBusiness(ctx, input.BusinessID)
	if err != nil {
		return nil, errors.NewMatchQueryFailedError(input.BusinessID, err)
	}

	var selected []models.MatchRecord
	for _, rec := range records {
		if rec.Qualifies && rec.Score >= minScore {
			selected = append(selected, rec)
		}
	}
	if len(selected) == 0 {
		return nil, nil
	}

	ids := make([]string, len(selected))
	for i, rec := range selected {
		ids[i] = rec.ProgramID
	}
	found, err := h.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.NewCatalogQueryFailedError(err)
	}
	byID := make(map[string]models.Program, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	data := &digestData{BusinessID: input.BusinessID, PortalURL: h.config.PortalURL}
	for _, rec := range selected {
		program, ok := byID[rec.ProgramID]
		if !ok {
			continue
		}
		name := program.Name
		if name == "" {
			name = program.ID
		}
		data.Programs = append(data.Programs, digestProgram{
			Name:          name,
			Provider:      program.Provider,
			FundingAmount: program.FundingAmount,
			Score:         rec.Score,
		})
		if len(data.Programs) == maxPrograms {
			break
		}
	}
	if len(data.Programs) == 0 {
		return nil, nil
	}
	return data, nil
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
