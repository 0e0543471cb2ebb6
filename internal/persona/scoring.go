package persona

import (
	"strings"

	"travel-concierge/internal/models"
)

// Weights calibrate personaFit. The defaults are product choices, not derived values.
type Weights struct {
	Base          int
	PerFocusTerm  int
	MaxFocusBonus int
	InterestBonus int
	Cap           int
}

var DefaultWeights = Weights{
	Base:          75,
	PerFocusTerm:  5,
	MaxFocusBonus: 15,
	InterestBonus: 10,
	Cap:           100,
}

type Scorer struct {
	weights Weights
}

func NewScorer(w Weights) *Scorer {
	if w == (Weights{}) {
		w = DefaultWeights
	}
	return &Scorer{weights: w}
}

// Fit scores a recommendation against the persona's focus vocabulary for its category and
// the traveler's interest tags.
func (s *Scorer) Fit(rec models.Recommendation, profile models.PersonaProfile) int {
	focus := FocusFor(rec.Category, profile.Primary)
	return s.Score(recommendationText(rec), focus.Keywords, profile.Interests)
}

// Score is base + per-term focus bonus (capped) + interest bonus, never above Cap.
func (s *Scorer) Score(text string, focusTerms, interests []string) int {
	w := s.weights
	text = strings.ToLower(text)

	bonus := 0
	for _, term := range focusTerms {
		if term != "" && strings.Contains(text, strings.ToLower(term)) {
			bonus += w.PerFocusTerm
		}
	}
	if bonus > w.MaxFocusBonus {
		bonus = w.MaxFocusBonus
	}

	score := w.Base + bonus
	if matchesInterest(text, interests) {
		score += w.InterestBonus
	}
	if score > w.Cap {
		score = w.Cap
	}
	return score
}

// matchesInterest splits tags like "nature-outdoors" into words and matches any of them.
func matchesInterest(text string, interests []string) bool {
	for _, tag := range interests {
		for _, word := range strings.FieldsFunc(strings.ToLower(tag), func(r rune) bool {
			return r == '-' || r == '_' || r == ' '
		}) {
			if len(word) > 2 && strings.Contains(text, word) {
				return true
			}
		}
	}
	return false
}

func recommendationText(rec models.Recommendation) string {
	parts := []string{rec.Name, rec.Description, rec.WhyRecommended, rec.Cuisine, rec.LodgingType}
	parts = append(parts, rec.Amenities...)
	if d := rec.Destination; d != nil {
		parts = append(parts, d.Vibe)
		parts = append(parts, d.Highlights...)
		parts = append(parts, d.Attractions...)
		parts = append(parts, d.PerfectFor...)
	}
	return strings.Join(parts, " ")
}
