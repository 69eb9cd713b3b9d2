// internal/workers/crm/sync-lead-quote/handler.go
package syncleadquote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"cpq-workers/internal/common/errors"
	"cpq-workers/internal/common/logger"
	"cpq-workers/internal/common/metrics"
	"cpq-workers/internal/common/zoho"
	"cpq-workers/internal/models"
)

const TaskType = "sync-lead-quote"

// Deal stages the quote lifecycle maps onto in the CRM pipeline.
const (
	StageProposal      = "Proposal"
	StageQuoteReview   = "Quote Review"
	StagePricingReview = "Pricing Review"
)

type CRMService interface {
	UpdateDeal(ctx context.Context, dealID string, deal *zoho.Deal) error
	SearchDeals(ctx context.Context, quoteNumber string) ([]zoho.Deal, error)
}

// Handler pushes the latest quote state onto the CRM deal record so the
// sales pipeline reflects pricing outcomes without anyone re-keying numbers.
type Handler struct {
	config *Config
	crm    CRMService
	errs   *errors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) (*Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for sync-lead-quote: %w", err)
	}

	workerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		crm:    zoho.NewCRMClient(config.ZohoAPIKey, config.ZohoOAuthToken),
		errs:   errors.NewErrorHandler(workerLog),
		logger: workerLog,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	if !h.config.Enabled {
		h.completeJob(client, job, &Output{
			Success: false,
			Message: "CRM sync disabled",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job,
			errors.NewQuoteValidationFailedError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.QuoteNumber == "" {
		return nil, errors.NewQuoteValidationFailedError("quoteNumber is required")
	}

	dealID := input.CRMDealID
	if dealID == "" {
		deals, err := h.crm.SearchDeals(ctx, input.QuoteNumber)
		if err != nil {
			return nil, errors.NewCRMSyncFailedError(input.LeadID, fmt.Errorf("search deals: %w", err))
		}
		if len(deals) == 0 {
			h.logger.Warn("no CRM deal for quote, skipping sync", map[string]interface{}{
				"leadId":      input.LeadID,
				"quoteNumber": input.QuoteNumber,
			})
			return &Output{
				Success: false,
				Message: fmt.Sprintf("no CRM deal found for quote %s", input.QuoteNumber),
			}, nil
		}
		dealID = deals[0].ID
	}

	stage := stageFor(input.IntegrityStatus)
	deal := &zoho.Deal{
		Stage:           stage,
		Amount:          input.TotalPrice,
		QuoteNumber:     input.QuoteNumber,
		QuoteVersion:    input.VersionNumber,
		IntegrityStatus: input.IntegrityStatus,
		QuoteURL:        input.QuoteURL,
	}

	if err := h.crm.UpdateDeal(ctx, dealID, deal); err != nil {
		return nil, errors.NewCRMSyncFailedError(input.LeadID, fmt.Errorf("update deal %s: %w", dealID, err))
	}

	return &Output{
		Success:  true,
		DealID:   dealID,
		Stage:    stage,
		SyncedAt: time.Now().UTC(),
	}, nil
}

// stageFor maps integrity outcomes to pipeline stages: passing quotes move
// the deal to proposal, flagged ones park it for review.
func stageFor(integrityStatus string) string {
	switch integrityStatus {
	case models.IntegrityBlocked:
		return StagePricingReview
	case models.IntegrityWarning:
		return StageQuoteReview
	}
	return StageProposal
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

// failJob routes every failure through the standard error pipeline so retry
// counts and BPMN error codes come from one place.
func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errorCode(err))).Inc()
	h.errs.HandleJobError(ctx, client, job, err)
}

func errorCode(err error) errors.ErrorCode {
	if stdErr, ok := err.(*errors.StandardError); ok {
		return stdErr.Code
	}
	return "INTERNAL_ERROR"
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
