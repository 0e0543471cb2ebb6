// Package persona derives the traveler archetype and constraints from raw requirements and
// builds the per-run AgentContext.
package persona

import (
	"fmt"
	"strings"

	"travel-concierge/internal/models"
)

// Rule maps any of a set of interest tags to a persona. Rules are evaluated in order and
// the first match wins.
type Rule struct {
	Persona models.PersonaType
	AnyOf   []string
}

// DefaultRules is the interest priority order used when the party has no children.
var DefaultRules = []Rule{
	{Persona: models.PersonaPhotographer, AnyOf: []string{models.InterestArchitecture, models.InterestArts}},
	{Persona: models.PersonaFoodie, AnyOf: []string{models.InterestFoodDining}},
	{Persona: models.PersonaAdventurer, AnyOf: []string{models.InterestNatureOutdoors, models.InterestSports}},
	{Persona: models.PersonaCulture, AnyOf: []string{models.InterestHistory}},
}

type traits struct {
	travelStyle   string
	activityLevel string
}

var personaTraits = map[models.PersonaType]traits{
	models.PersonaPhotographer: {"scenic and unhurried, timed around good light", "moderate"},
	models.PersonaFoodie:       {"culinary-focused with long meals", "relaxed"},
	models.PersonaAdventurer:   {"active and outdoors", "high"},
	models.PersonaCulture:      {"immersive and educational", "moderate"},
	models.PersonaFamily:       {"kid-friendly and flexible", "moderate"},
	models.PersonaBalanced:     {"well-rounded mix of sights, food and downtime", "moderate"},
}

const defaultInterest = "sightseeing"

// Builder turns requirements into the persona and context of one run. It holds no
// per-run state and is safe for concurrent use.
type Builder struct {
	rules []Rule
}

func NewBuilder(rules []Rule) *Builder {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Builder{rules: rules}
}

// InferPersona is deterministic: the same requirements always yield the same profile.
func (b *Builder) InferPersona(req models.TravelRequirements) models.PersonaProfile {
	primary := b.primaryFor(req)

	interests := req.NormalizedInterests()
	if len(interests) == 0 {
		interests = []string{defaultInterest}
	}

	t := personaTraits[primary]
	return models.PersonaProfile{
		Primary:        primary,
		Interests:      interests,
		TravelStyle:    t.travelStyle,
		ActivityLevel:  t.activityLevel,
		SpecialContext: specialContext(req),
	}
}

func (b *Builder) primaryFor(req models.TravelRequirements) models.PersonaType {
	if req.HasChildren() {
		return models.PersonaFamily
	}
	for _, rule := range b.rules {
		for _, tag := range rule.AnyOf {
			if req.HasInterest(tag) {
				return rule.Persona
			}
		}
	}
	return models.PersonaBalanced
}

// ApplyHint merges an externally supplied persona signal. Children always force the family
// persona; otherwise a valid hinted primary wins and non-empty hinted fields replace the
// inferred ones.
func (b *Builder) ApplyHint(inferred models.PersonaProfile, req models.TravelRequirements, hint *models.PersonaProfile) models.PersonaProfile {
	if hint == nil {
		return inferred
	}
	out := inferred
	if hint.Primary.Valid() && !req.HasChildren() {
		out.Primary = hint.Primary
		t := personaTraits[hint.Primary]
		out.TravelStyle, out.ActivityLevel = t.travelStyle, t.activityLevel
	}
	if len(hint.Interests) > 0 {
		out.Interests = append([]string(nil), hint.Interests...)
	}
	if hint.TravelStyle != "" {
		out.TravelStyle = hint.TravelStyle
	}
	if hint.ActivityLevel != "" {
		out.ActivityLevel = hint.ActivityLevel
	}
	switch {
	case hint.SpecialContext == "":
	case out.SpecialContext == "":
		out.SpecialContext = hint.SpecialContext
	default:
		out.SpecialContext += "; " + hint.SpecialContext
	}
	return out
}

func BuildConstraints(req models.TravelRequirements) models.TravelConstraints {
	return models.TravelConstraints{
		Dietary:       cleanList(req.DietaryRestrictions),
		Accessibility: cleanList(req.AccessibilityNeeds),
		Budget:        req.Budget,
	}
}

// BuildContext derives persona and constraints and returns a fresh context for one run.
func (b *Builder) BuildContext(req models.TravelRequirements, hint *models.PersonaProfile) *models.AgentContext {
	profile := b.ApplyHint(b.InferPersona(req), req, hint)
	return models.NewAgentContext(req, profile, BuildConstraints(req))
}

func specialContext(req models.TravelRequirements) string {
	var parts []string
	if req.HasChildren() {
		noun := "children"
		if req.NumberOfChildren == 1 {
			noun = "child"
		}
		ctx := fmt.Sprintf("traveling with %d %s", req.NumberOfChildren, noun)
		if len(req.ChildrenAges) > 0 {
			ages := make([]string, 0, len(req.ChildrenAges))
			for _, age := range req.ChildrenAges {
				ages = append(ages, fmt.Sprintf("%d", age))
			}
			ctx += " (ages " + strings.Join(ages, ", ") + ")"
		}
		parts = append(parts, ctx)
	}
	if len(req.AccessibilityNeeds) > 0 {
		parts = append(parts, "accessibility needs: "+strings.Join(cleanList(req.AccessibilityNeeds), ", "))
	}
	return strings.Join(parts, "; ")
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
