// internal/agents/dining/handler.go
package dining

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"travel-concierge/internal/agents/base"
	"travel-concierge/internal/common/logger"
	"travel-concierge/internal/llm"
	"travel-concierge/internal/models"
	"travel-concierge/internal/persona"
	"travel-concierge/pkg/catalog"
)

const TaskType = "dining-research"

var ErrNoDestination = errors.New("NO_DESTINATION_CHOSEN")

type Handler struct {
	config  *Config
	runner  *base.Runner
	catalog *catalog.Catalog
	scorer  *persona.Scorer
	logger  logger.Logger
}

func NewHandler(cfg *Config, client llm.Client, cat *catalog.Catalog, scorer *persona.Scorer, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  cfg,
		runner:  base.NewRunner(client, cfg.Policy, log),
		catalog: cat,
		scorer:  scorer,
		logger:  log,
	}
}

func (h *Handler) Execute(ctx context.Context, task *models.TaskSpecification, actx *models.AgentContext) models.AgentResponse[models.ResearchOutput] {
	if h.input(task, actx).Destination == "" {
		start := time.Now()
		reason := "no destination chosen; serving catalog dining"
		resp := base.BuildFallbackResponse(h.BuildFallback(task, actx, reason), reason, ErrNoDestination)
		resp.ExecutionTime = time.Since(start)
		h.logger.Warn("Dining requested without a destination", nil)
		return resp
	}
	return base.Run[models.ResearchOutput](ctx, h.runner, h, task, actx)
}

func (h *Handler) Type() models.WorkerType {
	return models.WorkerDining
}

func (h *Handler) BuildPrompt(task *models.TaskSpecification, actx *models.AgentContext) string {
	in := h.input(task, actx)
	focus := persona.FocusFor(models.CategoryDining, actx.PersonaProfile.Primary)

	var parts []string
	parts = append(parts, "You are a food and dining expert building a restaurant plan.")
	parts = append(parts, fmt.Sprintf("\nDestination: %s", in.Destination))
	parts = append(parts, fmt.Sprintf("Trip length: %d day(s)", in.Days))
	parts = append(parts, base.PromptHeader(actx)...)
	parts = append(parts, "Emphasize: "+strings.Join(focus.Emphasis, ", "))
	for _, c := range task.Constraints {
		parts = append(parts, "- "+c)
	}

	parts = append(parts, fmt.Sprintf("\nRecommend %d to %d places, including at least %d for breakfast and %d for dinner.",
		h.config.MinResults, h.config.MaxResults, in.MinBreakfast, in.MinDinner))
	parts = append(parts, `Tag each with mealTypes from breakfast, brunch, lunch, dinner, snack.
Respond with JSON only, shaped as:
{"restaurants":[{"name":"","description":"","whyRecommended":"","cuisine":"","neighborhood":"","priceTier":"budget|moderate|upscale","mealTypes":[]}],"reasoning":""}`)

	return strings.Join(parts, "\n")
}

// ParseResponse accepts the JSON shape and, when no JSON is present, a numbered list.
func (h *Handler) ParseResponse(text string, task *models.TaskSpecification, actx *models.AgentContext) (*models.ResearchOutput, error) {
	in := h.input(task, actx)

	var (
		recs      []models.Recommendation
		reasoning string
	)
	parsed, err := llm.ExtractStructured[llmOutput](text, outputSchema)
	if err == nil {
		reasoning = parsed.Reasoning
		for _, r := range parsed.Restaurants {
			recs = append(recs, r.toRecommendation())
		}
	} else {
		recs = ParseNumberedList(text)
		if len(recs) == 0 {
			return nil, err
		}
		reasoning = "Parsed from a numbered list."
		h.logger.Info("Dining output parsed from numbered list", map[string]interface{}{"count": len(recs)})
	}

	for i := range recs {
		if recs[i].Location == "" {
			recs[i].Location = in.Destination
		}
	}
	recs = base.DedupeByName(recs)
	if err := base.RequireRecommendations(recs, text); err != nil {
		return nil, err
	}
	recs = Categorize(recs)
	recs = base.ScoreAll(recs, h.scorer, actx.PersonaProfile)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].PersonaFit > recs[j].PersonaFit })
	if len(recs) > h.config.MaxResults {
		recs = recs[:h.config.MaxResults]
	}

	out := &models.ResearchOutput{Recommendations: recs, Reasoning: reasoning}
	breakfast, dinner, warnings := MealBalance(recs, in.MinBreakfast, in.MinDinner)
	if len(warnings) > 0 {
		h.logger.Warn("Dining recommendations are unbalanced", map[string]interface{}{
			"breakfast": breakfast,
			"dinner":    dinner,
		})
		out.Warnings = append(out.Warnings, warnings...)
	}
	out.Confidence = h.Confidence(out)
	return out, nil
}

func (h *Handler) BuildFallback(task *models.TaskSpecification, actx *models.AgentContext, reason string) *models.ResearchOutput {
	in := h.input(task, actx)
	recs := Categorize(h.catalog.Recommendations(models.CategoryDining))
	for i := range recs {
		recs[i].Location = in.Destination
	}
	out := base.FallbackResearch(recs, h.config.MaxResults, h.scorer, actx.PersonaProfile, reason)
	if out != nil {
		_, _, warnings := MealBalance(out.Recommendations, in.MinBreakfast, in.MinDinner)
		out.Warnings = append(out.Warnings, warnings...)
	}
	return out
}

func (h *Handler) Confidence(out *models.ResearchOutput) float64 {
	if out == nil {
		return 0
	}
	return base.TieredConfidence(len(out.Recommendations), h.config.Tiers)
}

func (h *Handler) input(task *models.TaskSpecification, actx *models.AgentContext) models.DiningInput {
	in, _ := task.Input.(models.DiningInput)
	if in.Destination == "" {
		in.Destination = actx.DestinationCity()
	}
	if in.Days <= 0 {
		in.Days = actx.UserRequirements.TripDays
	}
	if in.Days <= 0 {
		in.Days = 3
	}
	if in.MinBreakfast <= 0 {
		in.MinBreakfast = h.config.MinBreakfast
	}
	if in.MinDinner <= 0 {
		in.MinDinner = h.config.MinDinner
	}
	return in
}

func (r llmRestaurant) toRecommendation() models.Recommendation {
	rec := models.Recommendation{
		Name:           r.Name,
		Category:       models.CategoryDining,
		Description:    r.Description,
		WhyRecommended: r.WhyRecommended,
		Cuisine:        r.Cuisine,
		Neighborhood:   r.Neighborhood,
		PriceTier:      NormalizePriceTier(r.PriceTier),
		Source:         models.SourceLLM,
	}
	if rec.Cuisine == "" {
		rec.Cuisine = InferCuisine(r.Description)
	}
	for _, mt := range r.MealTypes {
		rec.MealTypes = append(rec.MealTypes, models.MealType(mt))
	}
	return rec
}
