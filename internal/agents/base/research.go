// internal/agents/base/research.go
package base

import (
	"fmt"
	"strings"

	apperrors "travel-concierge/internal/common/errors"
	"travel-concierge/internal/models"
	"travel-concierge/internal/persona"
)

// RequireRecommendations rejects a parsed reply in which no recommendation survived
// cleanup, so the runner retries and eventually falls back.
func RequireRecommendations(recs []models.Recommendation, text string) error {
	if len(recs) == 0 {
		return apperrors.NewParseError("no usable recommendations", text, nil)
	}
	return nil
}

// FallbackResearch builds the payload of a fallback response from catalog entries. At
// most limit entries are kept (limit <= 0 keeps all) and each is scored for the persona.
func FallbackResearch(recs []models.Recommendation, limit int, scorer *persona.Scorer, profile models.PersonaProfile, reason string) *models.ResearchOutput {
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	if len(recs) == 0 {
		return nil
	}
	return &models.ResearchOutput{
		Recommendations: ScoreAll(recs, scorer, profile),
		Confidence:      FallbackConfidence,
		Reasoning:       "Generic recommendations from the fallback catalog; the model did not return usable results.",
		Warnings:        []string{reason},
	}
}

// ScoreAll sets PersonaFit on every recommendation and returns the slice.
func ScoreAll(recs []models.Recommendation, scorer *persona.Scorer, profile models.PersonaProfile) []models.Recommendation {
	for i := range recs {
		recs[i].PersonaFit = scorer.Fit(recs[i], profile)
	}
	return recs
}

// DedupeByName drops blank and repeated names, keeping the first occurrence.
func DedupeByName(recs []models.Recommendation) []models.Recommendation {
	seen := make(map[string]struct{}, len(recs))
	out := recs[:0]
	for _, r := range recs {
		r.Name = strings.TrimSpace(r.Name)
		key := strings.ToLower(r.Name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// PromptHeader renders the persona and constraint lines every research prompt starts with.
func PromptHeader(actx *models.AgentContext) []string {
	p := actx.PersonaProfile
	req := actx.UserRequirements

	var parts []string
	parts = append(parts, "Traveler persona: "+string(p.Primary))
	parts = append(parts, "Interests: "+strings.Join(p.Interests, ", "))
	parts = append(parts, "Travel style: "+p.TravelStyle+"; activity level: "+p.ActivityLevel)
	if p.SpecialContext != "" {
		parts = append(parts, "Special context: "+p.SpecialContext)
	}
	parts = append(parts, partyLine(req))
	parts = append(parts, actx.Constraints.Describe()...)
	return parts
}

func partyLine(req models.TravelRequirements) string {
	line := fmt.Sprintf("Party: %d adult(s)", req.NumberOfAdults)
	if req.HasChildren() {
		line += fmt.Sprintf(", %d child(ren)", req.NumberOfChildren)
		if len(req.ChildrenAges) > 0 {
			line += fmt.Sprintf(" aged %v", req.ChildrenAges)
		}
	}
	return line
}
