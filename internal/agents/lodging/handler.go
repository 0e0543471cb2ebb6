// internal/agents/lodging/handler.go
package lodging

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

const TaskType = "lodging-research"

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

// Execute researches lodging for the chosen destination. Without a destination there is
// nothing to ask the model, so the catalog answers directly.
func (h *Handler) Execute(ctx context.Context, task *models.TaskSpecification, actx *models.AgentContext) models.AgentResponse[models.ResearchOutput] {
	if h.input(task, actx).Destination == "" {
		start := time.Now()
		reason := "no destination chosen; serving catalog lodging"
		resp := base.BuildFallbackResponse(h.BuildFallback(task, actx, reason), reason, ErrNoDestination)
		resp.ExecutionTime = time.Since(start)
		h.logger.Warn("Lodging requested without a destination", nil)
		return resp
	}
	return base.Run[models.ResearchOutput](ctx, h.runner, h, task, actx)
}

func (h *Handler) Type() models.WorkerType {
	return models.WorkerLodging
}

func (h *Handler) BuildPrompt(task *models.TaskSpecification, actx *models.AgentContext) string {
	in := h.input(task, actx)
	focus := persona.FocusFor(models.CategoryLodging, actx.PersonaProfile.Primary)

	var parts []string
	parts = append(parts, "You are a lodging specialist for a trip itinerary.")
	parts = append(parts, fmt.Sprintf("\nDestination: %s", in.Destination))
	parts = append(parts, fmt.Sprintf("Stay: %d night(s) for %d guest(s)", in.Nights, in.PartySize))
	parts = append(parts, base.PromptHeader(actx)...)
	parts = append(parts, "Emphasize: "+strings.Join(focus.Emphasis, ", "))
	if dest, ok := actx.Finding(models.WorkerDestination); ok && dest.Research != nil {
		for _, r := range dest.Research.Recommendations {
			if r.Name == in.Destination && r.Destination != nil && len(r.Destination.Attractions) > 0 {
				parts = append(parts, "Planned sights: "+strings.Join(r.Destination.Attractions, ", "))
			}
		}
	}
	for _, c := range task.Constraints {
		parts = append(parts, "- "+c)
	}

	parts = append(parts, fmt.Sprintf("\nRecommend between %d and %d places to stay across price points.", h.config.MinResults, h.config.MaxResults))
	parts = append(parts, `Respond with JSON only, shaped as:
{"lodging":[{"name":"","description":"","whyRecommended":"","type":"hotel|inn|rental|lodge","neighborhood":"","priceTier":"budget|moderate|luxury","amenities":[]}],"reasoning":""}`)

	return strings.Join(parts, "\n")
}

func (h *Handler) ParseResponse(text string, task *models.TaskSpecification, actx *models.AgentContext) (*models.ResearchOutput, error) {
	parsed, err := llm.ExtractStructured[llmOutput](text, outputSchema)
	if err != nil {
		return nil, err
	}

	in := h.input(task, actx)
	recs := make([]models.Recommendation, 0, len(parsed.Lodging))
	for _, l := range parsed.Lodging {
		recs = append(recs, models.Recommendation{
			Name:           l.Name,
			Category:       models.CategoryLodging,
			Description:    l.Description,
			WhyRecommended: l.WhyRecommended,
			Location:       in.Destination,
			Neighborhood:   l.Neighborhood,
			PriceTier:      strings.ToLower(strings.TrimSpace(l.PriceTier)),
			Amenities:      l.Amenities,
			LodgingType:    strings.ToLower(strings.TrimSpace(l.Type)),
			Source:         models.SourceLLM,
		})
	}
	recs = base.DedupeByName(recs)
	if err := base.RequireRecommendations(recs, text); err != nil {
		return nil, err
	}
	recs = base.ScoreAll(recs, h.scorer, actx.PersonaProfile)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].PersonaFit > recs[j].PersonaFit })
	if len(recs) > h.config.MaxResults {
		recs = recs[:h.config.MaxResults]
	}

	out := &models.ResearchOutput{Recommendations: recs, Reasoning: parsed.Reasoning}
	if len(recs) < h.config.MinResults {
		out.Warnings = append(out.Warnings, fmt.Sprintf("only %d lodging option(s) proposed", len(recs)))
	}
	if budget := actx.Constraints.Budget; budget != models.BudgetUnset && !anyPriceTier(recs, string(budget)) {
		out.Warnings = append(out.Warnings, fmt.Sprintf("no lodging matches the %s budget tier", budget))
	}
	out.Confidence = h.Confidence(out)
	return out, nil
}

func (h *Handler) BuildFallback(task *models.TaskSpecification, actx *models.AgentContext, reason string) *models.ResearchOutput {
	recs := h.catalog.Recommendations(models.CategoryLodging)
	dest := h.input(task, actx).Destination
	for i := range recs {
		recs[i].Location = dest
	}
	return base.FallbackResearch(recs, h.config.MaxResults, h.scorer, actx.PersonaProfile, reason)
}

func (h *Handler) Confidence(out *models.ResearchOutput) float64 {
	if out == nil {
		return 0
	}
	return base.TieredConfidence(len(out.Recommendations), h.config.Tiers)
}

func (h *Handler) input(task *models.TaskSpecification, actx *models.AgentContext) models.LodgingInput {
	in, _ := task.Input.(models.LodgingInput)
	if in.Destination == "" {
		in.Destination = actx.DestinationCity()
	}
	if in.PartySize <= 0 {
		in.PartySize = actx.UserRequirements.PartySize()
	}
	if in.Nights <= 0 {
		in.Nights = 2
	}
	return in
}

func anyPriceTier(recs []models.Recommendation, tier string) bool {
	for _, r := range recs {
		if r.PriceTier == tier {
			return true
		}
	}
	return false
}
