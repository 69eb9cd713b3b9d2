// internal/workers/quote/calculate-quote/handler.go
package calculatequote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"cpq-workers/internal/common/logger"
	"cpq-workers/internal/common/metrics"
	"cpq-workers/internal/pricing/engine"
	"cpq-workers/internal/pricing/provider"
	"cpq-workers/internal/pricing/rates"
	"cpq-workers/pkg/registry"
)

const (
	TaskType = "calculate-quote"
)

var (
	ErrProviderUnknown = errors.New("PROVIDER_UNKNOWN")
)

type Handler struct {
	config   *Config
	store    *rates.Store
	activity *registry.Activity
	logger   logger.Logger
}

// NewHandler wires the calculate worker. The registry activity is optional;
// without it job variables skip schema pre-validation and rely on the
// engine's own request validation.
func NewHandler(config *Config, store *rates.Store, activity *registry.Activity, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		store:    store,
		activity: activity,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	if h.activity != nil {
		var raw map[string]interface{}
		if err := json.Unmarshal([]byte(job.Variables), &raw); err != nil {
			h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse variables: %v", err))
			return
		}
		if err := h.activity.ValidateInput(raw); err != nil {
			h.completeJob(client, job, &Output{
				Success:      false,
				ErrorCode:    "QUOTE_VALIDATION_FAILED",
				ErrorMessage: err.Error(),
			})
			return
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, "QUOTE_CALCULATION_FAILED", err.Error())
		return
	}

	if output.Success && output.Quote != nil {
		metrics.QuotesCalculated.WithLabelValues(output.Quote.IntegrityStatus).Inc()
		metrics.QuoteValue.Observe(output.Quote.TotalClientPrice)
		if output.Quote.IntegrityStatus == engine.IntegrityBlocked {
			metrics.GuardrailBlocks.Inc()
		}
	}
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("input cannot be nil")
	}

	p, err := h.resolveProvider(input)
	if err != nil {
		return nil, err
	}

	snapshot, result, err := p.Quote(ctx, &input.Request)
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			// Validation failures complete the job with a structured error
			// result so the workflow can route back to the quote form.
			return &Output{
				Success:      false,
				Provider:     p.Name(),
				ErrorCode:    "QUOTE_VALIDATION_FAILED",
				ErrorMessage: verr.Error(),
				FormErrors:   verr.FormErrors,
				FieldErrors:  verr.FieldErrors,
			}, nil
		}
		return nil, err
	}

	return &Output{
		Success:  true,
		Provider: p.Name(),
		Quote:    result,
		Snapshot: snapshot,
	}, nil
}

func (h *Handler) resolveProvider(input *Input) (provider.Provider, error) {
	name := input.Provider
	if name == "" {
		name = h.config.DefaultProvider
	}

	switch name {
	case provider.NameEngine:
		return provider.NewEngineProvider(h.store, engine.Options{AutoAdjust: h.config.AutoAdjust}), nil
	case provider.NameExternal:
		return provider.NewExternalProvider(input.ExternalQuote), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrProviderUnknown, name)
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
