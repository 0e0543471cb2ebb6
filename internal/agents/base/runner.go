// internal/agents/base/runner.go
package base

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "travel-concierge/internal/common/errors"
	"travel-concierge/internal/common/logger"
	"travel-concierge/internal/common/metrics"
	"travel-concierge/internal/llm"
	"travel-concierge/internal/models"
)

// FallbackConfidence is the confidence attached to catalog-built responses.
const FallbackConfidence = 0.4

// Worker is the contract every specialized agent implements. BuildPrompt must be pure;
// ParseResponse returns *errors.ParseError when the text holds no usable structure.
type Worker[T any] interface {
	Type() models.WorkerType
	BuildPrompt(task *models.TaskSpecification, actx *models.AgentContext) string
	ParseResponse(text string, task *models.TaskSpecification, actx *models.AgentContext) (*T, error)
	BuildFallback(task *models.TaskSpecification, actx *models.AgentContext, reason string) *T
	Confidence(data *T) float64
}

// Runner carries what every worker invocation shares: the model client, the retry policy
// and a logger.
type Runner struct {
	client llm.Client
	policy Policy
	logger logger.Logger
}

func NewRunner(client llm.Client, policy Policy, log logger.Logger) *Runner {
	return &Runner{client: client, policy: policy.withDefaults(), logger: log}
}

func (r *Runner) Policy() Policy {
	return r.policy
}

type attemptResult[T any] struct {
	data *T
}

// Run executes one worker invocation end to end. It never returns an error: every failure
// is absorbed into a fallback response.
func Run[T any](ctx context.Context, r *Runner, w Worker[T], task *models.TaskSpecification, actx *models.AgentContext) models.AgentResponse[T] {
	start := time.Now()
	worker := string(w.Type())
	log := r.logger.With(map[string]interface{}{"worker": worker, "taskId": task.ID})

	workerCtx, cancel := context.WithTimeout(ctx, r.policy.Timeout)
	defer cancel()

	prompt := w.BuildPrompt(task, actx)
	var usage models.Usage

	result, attempts, err := ExecuteWithRetry(workerCtx, r.policy, func(ctx context.Context, attempt int) (attemptResult[T], error) {
		params := r.policy.Params
		params.Fresh = attempt > 1
		completion, err := r.client.Complete(ctx, prompt, params)
		if err != nil {
			metrics.LLMAttempts.WithLabelValues(worker, attemptOutcome(err)).Inc()
			log.WithError(err).Warn("LLM attempt failed", map[string]interface{}{
				"attempt": attempt,
				"code":    string(apperrors.Code(err)),
			})
			return attemptResult[T]{}, err
		}

		usage.Calls++
		usage.PromptTokens += completion.Usage.PromptTokens
		usage.CompletionTokens += completion.Usage.CompletionTokens
		if completion.Cached {
			usage.CachedCalls++
		}
		metrics.LLMTokens.WithLabelValues(worker, "prompt").Add(float64(completion.Usage.PromptTokens))
		metrics.LLMTokens.WithLabelValues(worker, "completion").Add(float64(completion.Usage.CompletionTokens))

		data, err := w.ParseResponse(completion.Text, task, actx)
		if err != nil {
			metrics.LLMAttempts.WithLabelValues(worker, "parse_error").Inc()
			log.WithError(err).Warn("Model output rejected", map[string]interface{}{
				"attempt": attempt,
			})
			return attemptResult[T]{}, err
		}
		metrics.LLMAttempts.WithLabelValues(worker, "ok").Inc()
		if m, ok := r.client.(llm.Memoizer); ok {
			m.Remember(ctx, prompt, r.policy.Params, completion)
		}
		return attemptResult[T]{data: data}, nil
	})
	usage.Attempts = attempts

	var resp models.AgentResponse[T]
	if err == nil {
		resp = models.AgentResponse[T]{
			Status:     models.StatusSuccess,
			Data:       result.data,
			Confidence: clamp(w.Confidence(result.data), 0, 1),
		}
	} else {
		err = r.classifyFailure(ctx, workerCtx, worker, err)
		reason := fmt.Sprintf("fallback after %d attempt(s): %s", attempts, err.Error())
		resp = BuildFallbackResponse(w.BuildFallback(task, actx, reason), reason, err)
		log.Error("Worker fell back to catalog", map[string]interface{}{
			"attempts": attempts,
			"code":     resp.ErrorCode,
			"reason":   reason,
		})
	}

	resp.ExecutionTime = time.Since(start)
	resp.Usage = usage
	metrics.AgentCalls.WithLabelValues(worker, string(resp.Status)).Inc()
	metrics.AgentDuration.WithLabelValues(worker).Observe(resp.ExecutionTime.Seconds())

	log.Info("Worker settled", map[string]interface{}{
		"status":     resp.Status,
		"confidence": resp.Confidence,
		"attempts":   attempts,
		"durationMs": resp.ExecutionTime.Milliseconds(),
	})
	return resp
}

// classifyFailure distinguishes the worker's own deadline from cancellation of the run.
func (r *Runner) classifyFailure(parent, workerCtx context.Context, worker string, err error) error {
	switch {
	case parent.Err() != nil:
		return apperrors.NewRunCancelledError(parent.Err())
	case errors.Is(workerCtx.Err(), context.DeadlineExceeded):
		return apperrors.NewWorkerTimeoutError(worker, r.policy.Timeout)
	}
	return err
}

// BuildFallbackResponse wraps catalog data as a partial response. A nil payload means
// the fallback itself had nothing to offer and yields a failed response.
func BuildFallbackResponse[T any](data *T, reason string, cause error) models.AgentResponse[T] {
	resp := models.AgentResponse[T]{
		Status:         models.StatusPartial,
		Data:           data,
		Confidence:     FallbackConfidence,
		FallbackReason: reason,
	}
	if data == nil {
		resp.Status = models.StatusFailed
		resp.Confidence = 0
	}
	if cause != nil {
		resp.Error = cause.Error()
		resp.ErrorCode = string(apperrors.Code(cause))
	}
	return resp
}

func attemptOutcome(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "provider_error"
	}
}
