package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-concierge/internal/models"
)

func TestInferPersona_RuleTable(t *testing.T) {
	tests := []struct {
		name      string
		children  int
		interests []string
		want      models.PersonaType
	}{
		{"children force family", 2, []string{"food-dining", "architecture"}, models.PersonaFamily},
		{"architecture", 0, []string{"architecture"}, models.PersonaPhotographer},
		{"arts beats food", 0, []string{"food-dining", "arts"}, models.PersonaPhotographer},
		{"food dining", 0, []string{"food-dining"}, models.PersonaFoodie},
		{"food beats nature", 0, []string{"nature-outdoors", "food-dining"}, models.PersonaFoodie},
		{"food beats history", 0, []string{"history", "food-dining"}, models.PersonaFoodie},
		{"nature", 0, []string{"nature-outdoors"}, models.PersonaAdventurer},
		{"sports", 0, []string{"sports"}, models.PersonaAdventurer},
		{"history", 0, []string{"history"}, models.PersonaCulture},
		{"case insensitive", 0, []string{"Food-Dining"}, models.PersonaFoodie},
		{"unknown tags", 0, []string{"shopping"}, models.PersonaBalanced},
		{"no tags", 0, nil, models.PersonaBalanced},
	}

	b := NewBuilder(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := models.TravelRequirements{
				Origin:           "Chicago",
				NumberOfAdults:   2,
				NumberOfChildren: tt.children,
				Interests:        tt.interests,
			}
			got := b.InferPersona(req)
			assert.Equal(t, tt.want, got.Primary)
			assert.NotEmpty(t, got.Interests)
			assert.NotEmpty(t, got.TravelStyle)
			assert.NotEmpty(t, got.ActivityLevel)
		})
	}
}

func TestInferPersona_Deterministic(t *testing.T) {
	b := NewBuilder(nil)
	req := models.TravelRequirements{
		Origin:         "Seattle",
		NumberOfAdults: 2,
		Interests:      []string{"sports", "history", "nature-outdoors"},
	}
	first := b.InferPersona(req)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, b.InferPersona(req))
	}
	assert.Equal(t, []string{"history", "nature-outdoors", "sports"}, first.Interests)
}

func TestInferPersona_SpecialContext(t *testing.T) {
	b := NewBuilder(nil)
	got := b.InferPersona(models.TravelRequirements{
		Origin:             "Boston",
		NumberOfAdults:     2,
		NumberOfChildren:   2,
		ChildrenAges:       []int{5, 9},
		AccessibilityNeeds: []string{"wheelchair access"},
	})
	assert.Equal(t, "traveling with 2 children (ages 5, 9); accessibility needs: wheelchair access", got.SpecialContext)
}

func TestApplyHint(t *testing.T) {
	b := NewBuilder(nil)
	adults := models.TravelRequirements{Origin: "Austin", NumberOfAdults: 2, Interests: []string{"history"}}
	family := models.TravelRequirements{Origin: "Austin", NumberOfAdults: 2, NumberOfChildren: 1}

	hint := &models.PersonaProfile{Primary: models.PersonaFoodie, SpecialContext: "anniversary"}

	got := b.ApplyHint(b.InferPersona(adults), adults, hint)
	assert.Equal(t, models.PersonaFoodie, got.Primary)
	assert.Equal(t, "anniversary", got.SpecialContext)
	assert.Equal(t, []string{"history"}, got.Interests)

	got = b.ApplyHint(b.InferPersona(family), family, hint)
	assert.Equal(t, models.PersonaFamily, got.Primary)
	assert.Equal(t, "traveling with 1 child; anniversary", got.SpecialContext)

	invalid := &models.PersonaProfile{Primary: "pirate"}
	assert.Equal(t, models.PersonaCulture, b.ApplyHint(b.InferPersona(adults), adults, invalid).Primary)
}

func TestBuildContext(t *testing.T) {
	req := models.TravelRequirements{
		Origin:              "Portland",
		NumberOfAdults:      1,
		Interests:           []string{"food-dining"},
		DietaryRestrictions: []string{" vegetarian ", ""},
		Budget:              models.BudgetModerate,
	}
	actx := NewBuilder(nil).BuildContext(req, nil)
	require.NotNil(t, actx)
	assert.Equal(t, models.PersonaFoodie, actx.PersonaProfile.Primary)
	assert.Equal(t, []string{"vegetarian"}, actx.Constraints.Dietary)
	assert.Equal(t, models.BudgetModerate, actx.Constraints.Budget)
	assert.Empty(t, actx.DestinationCity())
	assert.Empty(t, actx.Findings())
}

func TestScorer(t *testing.T) {
	s := NewScorer(Weights{})
	tests := []struct {
		name      string
		text      string
		focus     []string
		interests []string
		want      int
	}{
		{"no matches", "a quiet town", []string{"hiking"}, []string{"history"}, 75},
		{"one focus term", "great hiking", []string{"hiking", "trail"}, nil, 80},
		{"focus bonus capped", "hiking trail park outdoor nature", []string{"hiking", "trail", "park", "outdoor", "nature"}, nil, 90},
		{"interest word", "steeped in history", nil, []string{"history"}, 85},
		{"hyphenated interest", "wild nature everywhere", nil, []string{"nature-outdoors"}, 85},
		{"capped at 100", "hiking trail park nature", []string{"hiking", "trail", "park"}, []string{"nature-outdoors"}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Score(tt.text, tt.focus, tt.interests))
		})
	}
}

func TestScorer_FitUsesCategoryFocus(t *testing.T) {
	s := NewScorer(DefaultWeights)
	profile := models.PersonaProfile{Primary: models.PersonaFoodie, Interests: []string{"food-dining"}}

	market := models.Recommendation{
		Name:        "Ferry Plaza",
		Category:    models.CategoryDining,
		Description: "Chef stalls and a seasonal farmers market",
	}
	plain := models.Recommendation{Name: "Diner", Category: models.CategoryDining, Description: "Open late"}

	assert.Greater(t, s.Fit(market, profile), s.Fit(plain, profile))
	assert.LessOrEqual(t, s.Fit(market, profile), 100)
}

func TestFocusFor_DefaultsToBalanced(t *testing.T) {
	assert.Equal(t, diningFocus[models.PersonaBalanced], FocusFor(models.CategoryDining, "unknown"))
	assert.Contains(t, FocusFor(models.CategoryDining, models.PersonaFamily).Emphasis, "quick service")
}
