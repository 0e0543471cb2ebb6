// internal/orchestrator/assembly_test.go
package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-concierge/internal/common/config"
	"travel-concierge/internal/models"
)

func restaurant(name string, meals ...models.MealType) models.Recommendation {
	return models.Recommendation{Name: name, Category: models.CategoryDining, MealTypes: meals}
}

func TestAssembleItinerary_DistributesActivitiesAndMeals(t *testing.T) {
	dest := models.Recommendation{
		Name: "Carmel",
		Destination: &models.DestinationDetails{
			Attractions:       []string{"Point Lobos", "Carmel Beach", "Mission Ranch", "Ocean Avenue"},
			Highlights:        []string{"carmel beach", "17-Mile Drive"},
			TravelTimeMinutes: 150,
			TravelMode:        models.ModeCar,
		},
	}
	it := assembleItinerary(assemblyInput{
		days:        2,
		destination: dest,
		lodging:     []models.Recommendation{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}},
		dining: []models.Recommendation{
			restaurant("Brunch Spot", models.MealBrunch),
			restaurant("Bakery", models.MealBreakfast),
			restaurant("Grill", models.MealLunch, models.MealDinner),
			restaurant("Bistro", models.MealDinner),
		},
		profile: models.PersonaProfile{Primary: models.PersonaPhotographer, TravelStyle: "unhurried", ActivityLevel: "moderate"},
	})

	require.Len(t, it.Days, 2)
	assert.Equal(t, "Carmel", it.Destination)
	assert.Len(t, it.Days[0].Activities, 3)
	assert.Len(t, it.Days[1].Activities, 2)
	assert.Equal(t, "morning", it.Days[0].Activities[0].TimeOfDay)
	assert.Equal(t, "Point Lobos", it.Days[0].Activities[0].Name)
	assert.Equal(t, "Arrival and Point Lobos", it.Days[0].Theme)
	assert.Equal(t, "Last look at Carmel", it.Days[1].Theme)

	for _, day := range it.Days {
		require.Len(t, day.Meals, 3)
		names := map[string]bool{}
		for _, m := range day.Meals {
			names[m.Name] = true
		}
		assert.Len(t, names, 3, "no place repeats within a day")
	}
	assert.Equal(t, "Brunch Spot", it.Days[0].Meals[0].Name)
	assert.Equal(t, "Bakery", it.Days[1].Meals[0].Name)
	assert.Len(t, it.Lodging, maxLodgingOptions)
	assert.Contains(t, it.PersonaNotes, "About 150 minutes from the origin by car.")
}

func TestAssembleItinerary_NoAttractionsOrDining(t *testing.T) {
	it := assembleItinerary(assemblyInput{
		days:        3,
		destination: models.Recommendation{Name: "Eureka"},
		profile:     models.PersonaProfile{Primary: models.PersonaCulture},
		fallbacks:   []models.WorkerType{models.WorkerDining},
	})

	require.Len(t, it.Days, 3)
	for _, day := range it.Days {
		require.Len(t, day.Activities, 1)
		assert.Equal(t, "Free time in Eureka", day.Activities[0].Name)
		assert.Empty(t, day.Meals)
	}
	assert.Equal(t, "History and heritage: Free time in Eureka", it.Days[1].Theme)
	assert.Contains(t, it.PersonaNotes, "Dining suggestions are generic; verify details before booking.")
}

func TestAggregateConfidence(t *testing.T) {
	cfg := config.Defaults("scripted").Orchestrator

	tests := []struct {
		name     string
		workers  []settled
		warnings int
		want     float64
	}{
		{
			name: "all succeed",
			workers: []settled{
				{worker: models.WorkerDestination, confidence: 0.9},
				{worker: models.WorkerLodging, confidence: 0.8},
				{worker: models.WorkerDining, confidence: 0.9},
				{worker: models.WorkerValidator, confidence: 1},
			},
			want: 0.4*0.9 + 0.2*0.8 + 0.25*0.9 + 0.15*1,
		},
		{
			name: "one fallback",
			workers: []settled{
				{worker: models.WorkerDestination, confidence: 0.9},
				{worker: models.WorkerLodging, confidence: 0.4, fallback: true},
			},
			want: (0.4*0.9+0.2*0.4)/0.6 - 0.1,
		},
		{
			name:     "warning penalty is capped",
			workers:  []settled{{worker: models.WorkerDestination, confidence: 0.9}},
			warnings: 20,
			want:     0.9 - 0.15,
		},
		{
			name: "never negative",
			workers: []settled{
				{worker: models.WorkerDestination, confidence: 0.1, fallback: true},
				{worker: models.WorkerLodging, confidence: 0.1, fallback: true},
			},
			warnings: 5,
			want:     0,
		},
		{name: "nothing ran", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := aggregateConfidence(cfg, tt.workers, tt.warnings)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestSummarizeCosts(t *testing.T) {
	pricing := config.PricingConfig{PromptPer1K: 0.003, CompletionPer1K: 0.015}
	costs := summarizeCosts(pricing, []settled{
		{usage: models.Usage{PromptTokens: 1000, CompletionTokens: 500, Calls: 1}},
		{usage: models.Usage{PromptTokens: 2000, CompletionTokens: 500, Calls: 2, CachedCalls: 1}},
	})

	assert.Equal(t, 3000, costs.PromptTokens)
	assert.Equal(t, 1000, costs.CompletionTokens)
	assert.Equal(t, 4000, costs.TotalTokens)
	assert.Equal(t, 3, costs.Calls)
	assert.Equal(t, 1, costs.CachedCalls)
	assert.InDelta(t, 0.009+0.015, costs.EstimatedCostUSD, 1e-9)
}

func TestPickDestination(t *testing.T) {
	resp := models.AgentResponse[models.ResearchOutput]{Data: &models.ResearchOutput{Recommendations: []models.Recommendation{
		{Name: "A", PersonaFit: 80},
		{Name: "B", PersonaFit: 95},
		{Name: "C", PersonaFit: 95},
	}}}
	got, ok := pickDestination(resp)
	require.True(t, ok)
	assert.Equal(t, "B", got.Name)

	_, ok = pickDestination(models.AgentResponse[models.ResearchOutput]{})
	assert.False(t, ok)
}
