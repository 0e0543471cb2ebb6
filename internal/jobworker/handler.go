// internal/jobworker/handler.go
package jobworker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"travel-concierge/internal/common/camunda"
	apperrors "travel-concierge/internal/common/errors"
	"travel-concierge/internal/common/logger"
	"travel-concierge/internal/common/validation"
	"travel-concierge/internal/models"
	"travel-concierge/internal/orchestrator"
)

const TaskType = "generate-itinerary"

var ErrInvalidInput = errors.New("INVALID_INPUT")

// Generator is the part of the concierge a job needs.
type Generator interface {
	GenerateItinerary(ctx context.Context, req models.TravelRequirements, opts ...orchestrator.RunOption) *models.OrchestrationResult
}

type Handler struct {
	config    *Config
	generator Generator
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(cfg *Config, generator Generator, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    cfg,
		generator: generator,
		errors:    apperrors.NewErrorHandler(log),
		logger:    log,
	}
}

// Handle runs one job end to end and reports the outcome to the engine.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := ParseInput([]byte(job.Variables))
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return err
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return err
	}
	return h.completeJob(ctx, client, job, output)
}

// ParseInput decodes and schema-checks job variables. Failures are non-retryable.
func ParseInput(variables []byte) (*Input, error) {
	var doc interface{}
	if err := json.Unmarshal(variables, &doc); err != nil {
		return nil, invalidInput([]string{fmt.Sprintf("variables are not JSON: %v", err)})
	}
	result, err := validation.ValidateDocument(inputSchema, doc)
	if err != nil {
		return nil, invalidInput([]string{err.Error()})
	}
	if !result.Valid {
		return nil, invalidInput(result.GetErrorMessages())
	}

	var input Input
	if err := json.Unmarshal(variables, &input); err != nil {
		return nil, invalidInput([]string{err.Error()})
	}
	return &input, nil
}

func invalidInput(problems []string) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, apperrors.NewInvalidRequirementsError(problems))
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	var opts []orchestrator.RunOption
	if input.PersonaHint != nil {
		opts = append(opts, orchestrator.WithPersonaHint(*input.PersonaHint))
	}

	result := h.generator.GenerateItinerary(ctx, input.Requirements, opts...)
	if !result.Success {
		return nil, runFailure(result)
	}

	out := &Output{
		RequestID:  input.RequestID,
		RunID:      result.RunID,
		Success:    true,
		Persona:    result.Persona,
		Itinerary:  result.Itinerary,
		Confidence: result.Confidence,
		Costs:      result.Costs,
	}
	if result.ValidationReport != nil {
		out.Warnings = result.ValidationReport.Warnings
	}
	h.logger.Info("itinerary generated", map[string]interface{}{
		"runId":      result.RunID,
		"confidence": result.Confidence,
		"tokens":     result.Costs.TotalTokens,
	})
	return out, nil
}

// runFailure rebuilds a StandardError from the run's error record. Only cancellation is
// worth another attempt from the engine.
func runFailure(result *models.OrchestrationResult) error {
	if result.Error == nil {
		return apperrors.NewRunFatalError("run "+result.RunID+" failed without an error record", nil)
	}
	code := apperrors.ErrorCode(result.Error.Code)
	return &apperrors.StandardError{
		Code:      code,
		Message:   result.Error.Message,
		Details:   strings.TrimSpace(result.Error.Details),
		Retryable: code == apperrors.ErrCodeRunCancelled,
		Metadata:  map[string]interface{}{"runId": result.RunID, "phase": string(result.Phase)},
		Timestamp: time.Now().UTC(),
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	err := camunda.ExecuteWithRetry(ctx, h.config.Retry, "complete-job", func(ctx context.Context) error {
		cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
		if err != nil {
			return err
		}
		_, err = cmd.Send(ctx)
		return err
	})
	if err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
	return err
}
