// internal/agents/destination/handler.go
package destination

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"travel-concierge/internal/agents/base"
	"travel-concierge/internal/common/logger"
	"travel-concierge/internal/llm"
	"travel-concierge/internal/models"
	"travel-concierge/internal/persona"
	"travel-concierge/pkg/catalog"
)

const TaskType = "destination-discovery"

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

// Execute proposes destinations and never fails outright; see base.Run.
func (h *Handler) Execute(ctx context.Context, task *models.TaskSpecification, actx *models.AgentContext) models.AgentResponse[models.ResearchOutput] {
	return base.Run[models.ResearchOutput](ctx, h.runner, h, task, actx)
}

func (h *Handler) Type() models.WorkerType {
	return models.WorkerDestination
}

func (h *Handler) BuildPrompt(task *models.TaskSpecification, actx *models.AgentContext) string {
	in := h.input(task, actx)
	focus := persona.FocusFor(models.CategoryDestination, actx.PersonaProfile.Primary)

	var parts []string
	parts = append(parts, "You are a travel researcher planning a short trip.")
	parts = append(parts, fmt.Sprintf("\nOrigin: %s", in.Origin))
	if len(in.TravelModes) > 0 {
		modes := make([]string, 0, len(in.TravelModes))
		for _, m := range in.TravelModes {
			modes = append(modes, string(m))
		}
		parts = append(parts, "Preferred travel modes: "+strings.Join(modes, ", "))
	}
	for _, limit := range sortedLimits(in.MaxTravelTime) {
		parts = append(parts, fmt.Sprintf("Maximum travel time by %s: %d minutes", limit.mode, limit.minutes))
	}
	parts = append(parts, base.PromptHeader(actx)...)
	parts = append(parts, "Emphasize: "+strings.Join(focus.Emphasis, ", "))
	if actx.UserRequirements.HasChildren() {
		parts = append(parts, "Only suggest places that work well for children and tag them \"family\" in perfectFor.")
	}
	for _, c := range task.Constraints {
		parts = append(parts, "- "+c)
	}

	parts = append(parts, fmt.Sprintf("\nPropose between %d and %d destinations.", in.MinResults, in.MaxResults))
	parts = append(parts, `Respond with JSON only, shaped as:
{"destinations":[{"name":"","description":"","whyRecommended":"","location":"","distanceMiles":0,"travelTimeMinutes":0,"travelMode":"","highlights":[],"attractions":[],"vibe":"","perfectFor":[],"familyFriendly":true}],"reasoning":""}`)

	return strings.Join(parts, "\n")
}

func (h *Handler) ParseResponse(text string, task *models.TaskSpecification, actx *models.AgentContext) (*models.ResearchOutput, error) {
	parsed, err := llm.ExtractStructured[llmOutput](text, outputSchema)
	if err != nil {
		return nil, err
	}

	recs := make([]models.Recommendation, 0, len(parsed.Destinations))
	for _, d := range parsed.Destinations {
		recs = append(recs, d.toRecommendation(models.SourceLLM))
	}
	recs = base.DedupeByName(recs)
	if err := base.RequireRecommendations(recs, text); err != nil {
		return nil, err
	}

	out := h.postProcess(recs, task, actx)
	if err := base.RequireRecommendations(out.Recommendations, text); err != nil {
		return nil, err
	}
	out.Reasoning = parsed.Reasoning
	return out, nil
}

func (h *Handler) BuildFallback(task *models.TaskSpecification, actx *models.AgentContext, reason string) *models.ResearchOutput {
	in := h.input(task, actx)
	recs := h.catalog.Recommendations(models.CategoryDestination)
	if actx.UserRequirements.HasChildren() {
		if family, _ := h.filterFamily(recs); len(family) > 0 {
			recs = family
		}
	}
	return base.FallbackResearch(recs, in.MaxResults, h.scorer, actx.PersonaProfile, reason)
}

func (h *Handler) Confidence(out *models.ResearchOutput) float64 {
	if out == nil {
		return 0
	}
	return base.TieredConfidence(len(out.Recommendations), h.config.Tiers)
}

// postProcess applies the travel-time and family filters, ranks by persona fit and
// truncates. A filter that would leave nothing is skipped with a warning.
func (h *Handler) postProcess(recs []models.Recommendation, task *models.TaskSpecification, actx *models.AgentContext) *models.ResearchOutput {
	in := h.input(task, actx)
	out := &models.ResearchOutput{}

	withinLimit, dropped := filterTravelTime(recs, in.MaxTravelTime)
	switch {
	case len(withinLimit) == 0 && dropped > 0:
		out.Warnings = append(out.Warnings, "every destination exceeds the travel time limit; keeping the unfiltered set")
	case dropped > 0:
		recs = withinLimit
		h.logger.Debug("Dropped destinations over travel time limit", map[string]interface{}{"dropped": dropped})
	}

	if actx.UserRequirements.HasChildren() {
		family, removed := h.filterFamily(recs)
		switch {
		case len(family) == 0:
			out.Warnings = append(out.Warnings, "no destination was tagged family-appropriate; keeping the unfiltered set")
		case removed > 0:
			recs = family
		}
	}

	recs = base.ScoreAll(recs, h.scorer, actx.PersonaProfile)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].PersonaFit > recs[j].PersonaFit })

	if len(recs) > in.MaxResults {
		recs = recs[:in.MaxResults]
	}
	if len(recs) < in.MinResults {
		out.Warnings = append(out.Warnings, fmt.Sprintf("only %d destination(s) proposed, expected at least %d", len(recs), in.MinResults))
	}

	out.Recommendations = recs
	out.Confidence = h.Confidence(out)
	return out
}

func (h *Handler) filterFamily(recs []models.Recommendation) ([]models.Recommendation, int) {
	var kept []models.Recommendation
	for _, r := range recs {
		if r.Destination != nil && hasAnyTag(r.Destination.PerfectFor, h.config.FamilyTags) {
			kept = append(kept, r)
		}
	}
	return kept, len(recs) - len(kept)
}

func (h *Handler) input(task *models.TaskSpecification, actx *models.AgentContext) models.DestinationInput {
	in, ok := task.Input.(models.DestinationInput)
	if !ok {
		req := actx.UserRequirements
		in = models.DestinationInput{Origin: req.Origin, TravelModes: req.TravelModes, MaxTravelTime: req.MaxTravelTime}
	}
	if in.MinResults <= 0 {
		in.MinResults = h.config.MinResults
	}
	if in.MaxResults <= 0 {
		in.MaxResults = h.config.MaxResults
	}
	return in
}

func (d llmDestination) toRecommendation(source models.Source) models.Recommendation {
	perfectFor := d.PerfectFor
	if d.FamilyFriendly != nil && *d.FamilyFriendly && !hasAnyTag(perfectFor, []string{"family"}) {
		perfectFor = append(perfectFor, "family")
	}
	return models.Recommendation{
		Name:           d.Name,
		Category:       models.CategoryDestination,
		Description:    d.Description,
		WhyRecommended: d.WhyRecommended,
		Location:       d.Location,
		Source:         source,
		Destination: &models.DestinationDetails{
			DistanceMiles:     d.DistanceMiles,
			TravelTimeMinutes: int(d.TravelTimeMinutes),
			TravelMode:        models.TravelMode(strings.ToLower(d.TravelMode)),
			Highlights:        d.Highlights,
			Attractions:       d.Attractions,
			Vibe:              d.Vibe,
			PerfectFor:        perfectFor,
		},
	}
}

// filterTravelTime drops destinations whose stated time exceeds the limit for their mode.
// Destinations without a stated time or mode are kept.
func filterTravelTime(recs []models.Recommendation, limits map[models.TravelMode]int) ([]models.Recommendation, int) {
	if len(limits) == 0 {
		return recs, 0
	}
	var kept []models.Recommendation
	for _, r := range recs {
		d := r.Destination
		if d != nil && d.TravelTimeMinutes > 0 {
			if limit, ok := limits[d.TravelMode]; ok && d.TravelTimeMinutes > limit {
				continue
			}
		}
		kept = append(kept, r)
	}
	return kept, len(recs) - len(kept)
}

func hasAnyTag(tags, wanted []string) bool {
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		for _, w := range wanted {
			if tag == w || strings.Contains(tag, w) {
				return true
			}
		}
	}
	return false
}

type modeLimit struct {
	mode    models.TravelMode
	minutes int
}

func sortedLimits(limits map[models.TravelMode]int) []modeLimit {
	out := make([]modeLimit, 0, len(limits))
	for mode, minutes := range limits {
		out = append(out, modeLimit{mode: mode, minutes: minutes})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].mode < out[j].mode })
	return out
}
