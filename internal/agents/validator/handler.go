// internal/agents/validator/handler.go
package validator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"travel-concierge/internal/agents/base"
	"travel-concierge/internal/common/logger"
	"travel-concierge/internal/llm"
	"travel-concierge/internal/models"
)

const TaskType = "quality-validation"

var ErrNothingToValidate = errors.New("NOTHING_TO_VALIDATE")

var defaultWorkers = []models.WorkerType{models.WorkerDestination, models.WorkerLodging, models.WorkerDining}

type Handler struct {
	config *Config
	runner *base.Runner
	logger logger.Logger
}

func NewHandler(cfg *Config, client llm.Client, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: cfg,
		runner: base.NewRunner(client, cfg.Policy, log),
		logger: log,
	}
}

// Execute cross-checks the recorded findings. The report only annotates what the research
// workers produced.
func (h *Handler) Execute(ctx context.Context, task *models.TaskSpecification, actx *models.AgentContext) models.AgentResponse[models.ValidationReport] {
	if len(collectSubjects(actx, h.workers(task))) == 0 {
		start := time.Now()
		reason := "no recommendations to validate"
		resp := base.BuildFallbackResponse(h.BuildFallback(task, actx, reason), reason, ErrNothingToValidate)
		resp.ExecutionTime = time.Since(start)
		return resp
	}
	return base.Run[models.ValidationReport](ctx, h.runner, h, task, actx)
}

func (h *Handler) Type() models.WorkerType {
	return models.WorkerValidator
}

func (h *Handler) BuildPrompt(task *models.TaskSpecification, actx *models.AgentContext) string {
	var parts []string
	parts = append(parts, "You are a travel quality reviewer. Check each recommendation below for plausibility,")
	parts = append(parts, "fit with the traveler and consistency with the destination.")
	if city := actx.DestinationCity(); city != "" {
		parts = append(parts, fmt.Sprintf("\nDestination: %s", city))
	}
	parts = append(parts, base.PromptHeader(actx)...)

	parts = append(parts, "\nRecommendations:")
	for _, s := range collectSubjects(actx, h.workers(task)) {
		line := fmt.Sprintf("- [%s] %s: %s", s.worker, s.rec.Name, s.rec.Description)
		if s.rec.Source == models.SourceFallback {
			line += " (generic catalog entry)"
		}
		parts = append(parts, line)
	}

	parts = append(parts, `
Assess every recommendation as verified, unverified or flagged. Do not add new recommendations.
Respond with JSON only, shaped as:
{"assessments":[{"worker":"","name":"","status":"verified|unverified|flagged","notes":""}],"warnings":[],"summary":""}`)

	return strings.Join(parts, "\n")
}

// ParseResponse merges the model's assessments with the deterministic checks. Assessments
// naming an unknown recommendation are dropped. Deterministic flags always win and catalog
// entries are never marked verified.
func (h *Handler) ParseResponse(text string, task *models.TaskSpecification, actx *models.AgentContext) (*models.ValidationReport, error) {
	parsed, err := llm.ExtractStructured[llmOutput](text, outputSchema)
	if err != nil {
		return nil, err
	}

	subjects := collectSubjects(actx, h.workers(task))
	items := deterministicItems(subjects)
	index := make(map[string]int, len(subjects))
	byName := make(map[string][]int, len(subjects))
	for i, s := range subjects {
		index[s.key()] = i
		name := strings.ToLower(strings.TrimSpace(s.rec.Name))
		byName[name] = append(byName[name], i)
	}

	assessed := make(map[int]bool, len(subjects))
	ignored := 0
	for _, a := range parsed.Assessments {
		status, ok := normalizeStatus(a.Status)
		if !ok {
			ignored++
			continue
		}
		name := strings.ToLower(strings.TrimSpace(a.Name))
		i, found := index[strings.ToLower(strings.TrimSpace(a.Worker))+"|"+name]
		if !found {
			candidates := byName[name]
			if len(candidates) != 1 {
				ignored++
				continue
			}
			i = candidates[0]
		}
		assessed[i] = true
		if items[i].Status == models.Flagged {
			continue
		}
		if status == models.Verified && subjects[i].rec.Source == models.SourceFallback {
			status = models.Unverified
		}
		items[i].Status = status
		if a.Notes != "" {
			items[i].Notes = a.Notes
		}
	}
	if ignored > 0 {
		h.logger.Debug("Ignored assessments that match no recommendation", map[string]interface{}{"count": ignored})
	}

	report := &models.ValidationReport{Items: items}
	report.Warnings = append(report.Warnings, parsed.Warnings...)
	report.Warnings = append(report.Warnings, h.gaps(actx, subjects)...)
	if len(subjects) > 0 {
		report.Coverage = float64(len(assessed)) / float64(len(subjects))
	}
	report.Summary = summarize(report)
	if parsed.Summary != "" {
		report.Summary += ". " + parsed.Summary
	}
	return report, nil
}

// BuildFallback produces the deterministic-only report.
func (h *Handler) BuildFallback(task *models.TaskSpecification, actx *models.AgentContext, reason string) *models.ValidationReport {
	subjects := collectSubjects(actx, h.workers(task))
	report := &models.ValidationReport{
		Items:    deterministicItems(subjects),
		Warnings: append([]string{reason}, h.gaps(actx, subjects)...),
	}
	report.Summary = summarize(report)
	return report
}

func (h *Handler) Confidence(report *models.ValidationReport) float64 {
	if report == nil {
		return 0
	}
	return report.Coverage
}

func (h *Handler) gaps(actx *models.AgentContext, subjects []subject) []string {
	var warnings []string
	for _, gap := range coverageGaps(actx.Constraints, subjects, h.config.AccessibilityTerms) {
		h.logger.WithError(gap).Warn("Constraint not covered", map[string]interface{}{
			"code": string(gap.Code),
		})
		warnings = append(warnings, gap.Details)
	}
	return warnings
}

func (h *Handler) workers(task *models.TaskSpecification) []models.WorkerType {
	if in, ok := task.Input.(models.ValidationInput); ok && len(in.Workers) > 0 {
		return in.Workers
	}
	return defaultWorkers
}
