// internal/workers/quote/save-quote-version/handler.go
package savequoteversion

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"cpq-workers/internal/common/logger"
	"cpq-workers/internal/common/metrics"
	"cpq-workers/internal/models"
)

const (
	TaskType = "save-quote-version"

	// latestCacheKeyPrefix + leadID holds the most recent persisted version.
	latestCacheKeyPrefix = "quote:latest:"
)

var (
	ErrMissingLeadID   = errors.New("QUOTE_VALIDATION_FAILED")
	ErrMissingSnapshot = errors.New("QUOTE_VALIDATION_FAILED")
	ErrPersistFailed   = errors.New("QUOTE_PERSIST_FAILED")
)

type Handler struct {
	config *Config
	db     *sql.DB
	rdb    *redis.Client
	logger logger.Logger
}

// NewHandler wires the version-save worker. The redis client is optional;
// without it the latest-version cache is simply skipped.
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
		errorCode := "QUOTE_PERSIST_FAILED"
		if errors.Is(err, ErrMissingLeadID) || errors.Is(err, ErrMissingSnapshot) {
			errorCode = "QUOTE_VALIDATION_FAILED"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	metrics.QuoteVersionsSaved.Inc()
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.completeJob(client, job, output)
}

// execute persists a new immutable quote version. The read of the current
// latest row takes a row lock, so two concurrent saves for one lead serialize
// and can never mint the same version number.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.LeadID == "" {
		return nil, fmt.Errorf("%w: leadId is required", ErrMissingLeadID)
	}
	if input.Snapshot == nil {
		return nil, fmt.Errorf("%w: quoteSnapshot is required", ErrMissingSnapshot)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin transaction: %v", ErrPersistFailed, err)
	}
	defer tx.Rollback()

	var currentVersion int
	err = tx.QueryRowContext(ctx, `
		SELECT version_number
		FROM quote_versions
		WHERE lead_id = $1 AND is_latest = true
		FOR UPDATE`, input.LeadID).Scan(&currentVersion)
	switch {
	case err == sql.ErrNoRows:
		currentVersion = 0
	case err != nil:
		return nil, fmt.Errorf("%w: read latest version: %v", ErrPersistFailed, err)
	}

	nextVersion := currentVersion + 1

	if currentVersion > 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE quote_versions
			SET is_latest = false
			WHERE lead_id = $1 AND is_latest = true`, input.LeadID); err != nil {
			return nil, fmt.Errorf("%w: supersede version %d: %v", ErrPersistFailed, currentVersion, err)
		}
	}

	quoteNumber := input.QuoteNumber
	if quoteNumber == "" {
		quoteNumber = fmt.Sprintf("Q-%s-%d", input.LeadID, nextVersion)
	}

	breakdownJSON, err := json.Marshal(input.Snapshot.PricingBreakdown)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal breakdown: %v", ErrPersistFailed, err)
	}
	areasJSON, err := json.Marshal(input.Areas)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal areas: %v", ErrPersistFailed, err)
	}
	risksJSON, err := json.Marshal(input.Risks)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal risks: %v", ErrPersistFailed, err)
	}
	var internalCostsJSON interface{}
	if input.Snapshot.InternalCosts != nil {
		data, err := json.Marshal(input.Snapshot.InternalCosts)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal internal costs: %v", ErrPersistFailed, err)
		}
		internalCostsJSON = data
	}
	var externalURL interface{}
	if input.Snapshot.ExternalQuoteURL != "" {
		externalURL = input.Snapshot.ExternalQuoteURL
	}

	versionID := uuid.NewString()
	savedAt := time.Now().UTC()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO quote_versions (
			id, lead_id, version_number, is_latest, quote_number, total_price,
			pricing_breakdown, areas, risks, internal_costs,
			external_quote_url, engine_version, integrity_status, created_at
		) VALUES ($1, $2, $3, true, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		versionID, input.LeadID, nextVersion, quoteNumber, input.Snapshot.TotalPrice,
		breakdownJSON, areasJSON, risksJSON, internalCostsJSON,
		externalURL, input.Snapshot.EngineVersion, input.Snapshot.IntegrityStatus, savedAt,
	); err != nil {
		return nil, fmt.Errorf("%w: insert version %d: %v", ErrPersistFailed, nextVersion, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", ErrPersistFailed, err)
	}

	h.cacheLatest(ctx, input, versionID, nextVersion, quoteNumber, savedAt)

	return &Output{
		VersionID:       versionID,
		LeadID:          input.LeadID,
		VersionNumber:   nextVersion,
		IsLatest:        true,
		QuoteNumber:     quoteNumber,
		TotalPrice:      input.Snapshot.TotalPrice,
		IntegrityStatus: input.Snapshot.IntegrityStatus,
		SavedAt:         savedAt,
	}, nil
}

// cacheLatest is best-effort: a cache miss only costs the integrity gate a
// database read.
func (h *Handler) cacheLatest(ctx context.Context, input *Input, versionID string, version int, quoteNumber string, savedAt time.Time) {
	if h.rdb == nil {
		return
	}

	entry := models.QuoteVersion{
		ID:               versionID,
		LeadID:           input.LeadID,
		VersionNumber:    version,
		IsLatest:         true,
		QuoteNumber:      quoteNumber,
		TotalPrice:       input.Snapshot.TotalPrice,
		PricingBreakdown: input.Snapshot.PricingBreakdown,
		Areas:            input.Areas,
		Risks:            input.Risks,
		InternalCosts:    input.Snapshot.InternalCosts,
		ExternalQuoteURL: input.Snapshot.ExternalQuoteURL,
		EngineVersion:    input.Snapshot.EngineVersion,
		IntegrityStatus:  input.Snapshot.IntegrityStatus,
		CreatedAt:        savedAt,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		h.logger.Warn("failed to marshal cache entry", map[string]interface{}{"error": err})
		return
	}
	if err := h.rdb.Set(ctx, latestCacheKeyPrefix+input.LeadID, data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("failed to cache latest quote version", map[string]interface{}{
			"leadId": input.LeadID,
			"error":  err,
		})
	}
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
