// internal/workers/pricing/compare-dish-prices/handler.go
package comparedishprices

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"dishprice-workers/internal/common/errors"
	"dishprice-workers/internal/common/logger"
	"dishprice-workers/internal/common/metrics"
	"dishprice-workers/internal/common/observability"
	"dishprice-workers/internal/common/validation"
	"dishprice-workers/internal/compare"
	"dishprice-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "compare-dish-prices"
)

// Comparer runs one dish comparison.
type Comparer interface {
	Compare(ctx context.Context, req compare.Request) *models.ComparisonResult
}

type Handler struct {
	config  *Config
	service Comparer
	errors  *errors.ErrorHandler
	obs     *observability.Observability
	logger  logger.Logger
}

func NewHandler(config *Config, service Comparer, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		service: service,
		errors:  errors.NewErrorHandler(l),
		obs:     obs,
		logger:  l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
		"retries":     job.Retries,
	})

	ctx := context.Background()
	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	input, err := h.parseInput(job.Variables)
	if err != nil {
		h.failJob(client, job, err, start)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(client, job, err, start)
		return
	}

	h.completeJob(client, job, output, start)
}

// parseInput decodes the job variables and checks them against the input schema.
func (h *Handler) parseInput(variables string) (*Input, error) {
	vars := map[string]interface{}{}
	if variables != "" {
		if err := json.Unmarshal([]byte(variables), &vars); err != nil {
			return nil, errors.NewInvalidCompareInputError(fmt.Sprintf("parse variables: %v", err))
		}
	}

	result, err := validation.ValidateInput(vars, h.config.InputSchema)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, errors.NewInvalidCompareInputError(result.Error())
	}

	var input Input
	if city, ok := vars["city"]; ok && city != nil {
		s, ok := city.(string)
		if !ok {
			return nil, errors.NewInvalidCompareInputError("city must be a string")
		}
		input.City = s
	}
	if dish, ok := vars["dish"]; ok && dish != nil {
		s, ok := dish.(string)
		if !ok {
			return nil, errors.NewInvalidCompareInputError("dish must be a string")
		}
		input.Dish = s
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	result := h.service.Compare(ctx, compare.Request{City: input.City, Dish: input.Dish})
	if result == nil {
		return nil, stderrors.New("comparison returned no result")
	}

	// A deadline that left nothing priced on either side is worth one more attempt.
	if err := ctx.Err(); err != nil && result.PricedA == 0 && result.PricedB == 0 {
		return nil, errors.NewComparisonTimeoutError(err)
	}

	output := &Output{ComparisonResult: result}
	if err := h.validateOutput(output); err != nil {
		return nil, err
	}
	return output, nil
}

func (h *Handler) validateOutput(output *Output) error {
	if len(h.config.OutputSchema) == 0 {
		return nil
	}
	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode output: %w", err)
	}
	result, err := validation.ValidateInput(doc, h.config.OutputSchema)
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("output does not match schema: %s", result.Error())
	}
	return nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output, start time.Time) {
	ctx := context.Background()
	duration := time.Since(start)

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		h.failJob(client, job, err, start)
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(duration.Seconds())
	h.obs.RecordJobProcessed(ctx, "completed")
	h.obs.RecordJobDuration(ctx, duration, "completed")

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":      job.Key,
		"requestId":   output.RequestID,
		"rows":        len(output.Rows),
		"degraded":    output.SourceBUnavailable,
		"duration_ms": duration.Milliseconds(),
	})
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error, start time.Time) {
	ctx := context.Background()
	duration := time.Since(start)
	code := errors.Normalize(err).Code

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(duration.Seconds())
	h.obs.RecordJobProcessed(ctx, "failed")
	h.obs.RecordJobDuration(ctx, duration, "failed")

	h.errors.HandleJobError(ctx, client, job, err)
}

// Execute runs the comparison without a job client.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// ParseInput exposes variable decoding and validation.
func (h *Handler) ParseInput(variables string) (*Input, error) {
	return h.parseInput(variables)
}
