// internal/workers/quote/validate-quote-integrity/handler.go
package validatequoteintegrity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"

	"cpq-workers/internal/common/logger"
	"cpq-workers/internal/common/metrics"
	"cpq-workers/internal/models"
)

const (
	TaskType = "validate-quote-integrity"

	latestCacheKeyPrefix = "quote:latest:"
)

var (
	ErrMissingLeadID = errors.New("QUOTE_VALIDATION_FAILED")
	ErrQuoteNotFound = errors.New("QUOTE_NOT_FOUND")
	ErrQuoteBlocked  = errors.New("MARGIN_BELOW_FLOOR")
	ErrLookupFailed  = errors.New("QUERY_EXECUTION_FAILED")
	ErrUnknownStatus = errors.New("QUOTE_VALIDATION_FAILED")
)

// Handler gates proposal issuance on the latest persisted quote version. A
// blocked quote stops the workflow with a BPMN error unless an explicit
// billing adjustment approval is recorded on the process.
type Handler struct {
	config *Config
	db     *sql.DB
	rdb    *redis.Client
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, rdb *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		rdb:    rdb,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "QUERY_EXECUTION_FAILED"
		switch {
		case errors.Is(err, ErrQuoteBlocked):
			errorCode = "MARGIN_BELOW_FLOOR"
		case errors.Is(err, ErrQuoteNotFound):
			errorCode = "QUOTE_NOT_FOUND"
		case errors.Is(err, ErrMissingLeadID), errors.Is(err, ErrUnknownStatus):
			errorCode = "QUOTE_VALIDATION_FAILED"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.LeadID == "" {
		return nil, fmt.Errorf("%w: leadId is required", ErrMissingLeadID)
	}

	version, source, err := h.latestVersion(ctx, input.LeadID)
	if err != nil {
		return nil, err
	}

	output := &Output{
		LeadID:          input.LeadID,
		VersionNumber:   version.VersionNumber,
		QuoteNumber:     version.QuoteNumber,
		TotalPrice:      version.TotalPrice,
		IntegrityStatus: version.IntegrityStatus,
		Source:          source,
	}

	switch version.IntegrityStatus {
	case models.IntegrityPass:
		output.Approved = true
		return output, nil

	case models.IntegrityWarning:
		// Savable but flagged: the proposal flow must show the margin
		// warning for acknowledgment before sending.
		output.Approved = true
		output.RequiresAcknowledgment = true
		return output, nil

	case models.IntegrityBlocked:
		if input.BillingAdjustmentApproved {
			output.Approved = true
			output.BillingOverrideRecorded = true
			h.logger.Warn("blocked quote released by billing adjustment approval", map[string]interface{}{
				"leadId":      input.LeadID,
				"quoteNumber": version.QuoteNumber,
			})
			return output, nil
		}
		return nil, fmt.Errorf("%w: quote %s version %d is blocked below the margin floor",
			ErrQuoteBlocked, version.QuoteNumber, version.VersionNumber)
	}

	return nil, fmt.Errorf("%w: unknown integrity status %q", ErrUnknownStatus, version.IntegrityStatus)
}

// latestVersion reads the cached latest version first and falls back to the
// database on a miss.
func (h *Handler) latestVersion(ctx context.Context, leadID string) (*models.QuoteVersion, string, error) {
	if h.rdb != nil {
		data, err := h.rdb.Get(ctx, latestCacheKeyPrefix+leadID).Result()
		if err == nil {
			var version models.QuoteVersion
			if err := json.Unmarshal([]byte(data), &version); err == nil {
				return &version, "cache", nil
			}
			h.logger.Warn("discarding unreadable cache entry", map[string]interface{}{
				"leadId": leadID,
			})
		} else if err != redis.Nil {
			h.logger.Warn("cache read failed, falling back to database", map[string]interface{}{
				"leadId": leadID,
				"error":  err,
			})
		}
	}

	var version models.QuoteVersion
	err := h.db.QueryRowContext(ctx, `
		SELECT id, version_number, quote_number, total_price, integrity_status
		FROM quote_versions
		WHERE lead_id = $1 AND is_latest = true`, leadID).Scan(
		&version.ID, &version.VersionNumber, &version.QuoteNumber,
		&version.TotalPrice, &version.IntegrityStatus,
	)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("%w: no quote versions for lead %s", ErrQuoteNotFound, leadID)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	version.LeadID = leadID
	version.IsLatest = true

	return &version, "database", nil
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
