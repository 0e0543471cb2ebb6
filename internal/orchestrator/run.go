// internal/orchestrator/run.go
package orchestrator

import (
	"time"

	apperrors "travel-concierge/internal/common/errors"
	"travel-concierge/internal/common/logger"
	"travel-concierge/internal/models"
)

const orchestratorName = "orchestrator"

// run is the state of one GenerateItinerary call. It is driven from a single goroutine.
type run struct {
	result *models.OrchestrationResult
	start  time.Time
	sink   EventSink
	logger logger.Logger
}

func newRun(id string, sink EventSink, log logger.Logger) *run {
	return &run{
		result: &models.OrchestrationResult{
			RunID:       id,
			Phase:       models.PhaseInitialized,
			RawResearch: map[models.WorkerType]models.AgentResponse[models.ResearchOutput]{},
		},
		start:  time.Now(),
		sink:   sink,
		logger: log.With(map[string]interface{}{"runId": id}),
	}
}

func (r *run) emit(t EventType, message string, percent int) {
	if r.sink == nil {
		return
	}
	r.sink(Event{
		Type:      t,
		RunID:     r.result.RunID,
		Phase:     r.result.Phase,
		Message:   message,
		Percent:   percent,
		Timestamp: time.Now(),
	})
}

func (r *run) enter(phase models.RunPhase, message string, percent int) {
	r.result.Phase = phase
	r.logger.Info("Run phase changed", map[string]interface{}{"phase": phase, "message": message})
	r.note(models.MessageStatus, orchestratorName, message, nil)
	r.emit(EventStatus, message, percent)
}

func (r *run) progress(message string, percent int) {
	r.emit(EventProgress, message, percent)
}

// note appends to the conversation log.
func (r *run) note(kind models.MessageKind, to, summary string, details map[string]interface{}) {
	r.append(models.ConversationMessage{
		From:    orchestratorName,
		To:      to,
		Kind:    kind,
		Summary: summary,
		Details: details,
	})
}

func (r *run) append(msg models.ConversationMessage) {
	msg.Seq = len(r.result.ConversationLog) + 1
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	r.result.ConversationLog = append(r.result.ConversationLog, msg)
}

func (r *run) task(task *models.TaskSpecification) {
	r.note(models.MessageTask, string(task.Worker), task.Description, map[string]interface{}{
		"taskId":   task.ID,
		"priority": task.Priority,
	})
}

func (r *run) response(worker models.WorkerType, status models.AgentStatus, confidence float64, fallbackReason string, warnings []string) {
	msg := models.ConversationMessage{
		From:    string(worker),
		To:      orchestratorName,
		Kind:    models.MessageResponse,
		Status:  status,
		Summary: string(worker) + " responded " + string(status),
		Details: map[string]interface{}{"confidence": confidence},
	}
	if fallbackReason != "" {
		msg.Details["fallbackReason"] = fallbackReason
	}
	r.append(msg)
	for _, w := range warnings {
		r.append(models.ConversationMessage{From: string(worker), To: orchestratorName, Kind: models.MessageWarning, Summary: w})
	}
}

// fail ends the run unsuccessfully. The conversation log is always kept.
func (r *run) fail(err error) *models.OrchestrationResult {
	std := apperrors.Normalize(err)
	r.result.Success = false
	r.result.Phase = models.PhaseFailed
	r.result.Error = &models.RunError{Code: string(std.Code), Message: std.Message, Details: std.Details}
	r.result.TotalExecutionTime = time.Since(r.start)
	r.note(models.MessageError, orchestratorName, std.Message, map[string]interface{}{"code": std.Code})
	r.logger.Error("Run failed", map[string]interface{}{
		"code":    std.Code,
		"message": std.Message,
		"details": std.Details,
	})
	r.emit(EventError, std.Message, 100)
	return r.result
}

func (r *run) complete() *models.OrchestrationResult {
	r.result.Success = true
	r.result.Phase = models.PhaseComplete
	r.result.TotalExecutionTime = time.Since(r.start)
	r.note(models.MessageStatus, orchestratorName, "itinerary complete", nil)
	r.emit(EventComplete, "itinerary complete", 100)
	return r.result
}
