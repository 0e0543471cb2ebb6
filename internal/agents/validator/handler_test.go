// internal/agents/validator/handler_test.go
package validator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-concierge/internal/common/config"
	apperrors "travel-concierge/internal/common/errors"
	"travel-concierge/internal/common/logger"
	"travel-concierge/internal/llm"
	"travel-concierge/internal/models"
	"travel-concierge/internal/persona"
)

func newTestHandler(t *testing.T, client llm.Client) *Handler {
	cfg := LoadConfig(config.AgentConfig{Timeout: 1000, MaxAttempts: 2, InitialBackoff: 1, MaxBackoff: 2})
	return NewHandler(cfg, client, logger.NewTestLogger(t))
}

func researchedContext(t *testing.T) *models.AgentContext {
	t.Helper()
	req := models.TravelRequirements{
		Origin:              "San Jose",
		NumberOfAdults:      2,
		Interests:           []string{"history"},
		DietaryRestrictions: []string{"vegan"},
		AccessibilityNeeds:  []string{"wheelchair access"},
	}
	actx := persona.NewBuilder(nil).BuildContext(req, nil)
	actx.SetDestinationCity("Sonoma")

	record := func(w models.WorkerType, recs ...models.Recommendation) {
		require.True(t, actx.RecordFinding(models.Finding{
			Worker:   w,
			Status:   models.StatusSuccess,
			Research: &models.ResearchOutput{Recommendations: recs},
		}))
	}
	record(models.WorkerDestination,
		models.Recommendation{Name: "Sonoma", Description: "Wine country town", Source: models.SourceLLM})
	record(models.WorkerLodging,
		models.Recommendation{Name: "Mission Inn", Description: "Historic inn", Source: models.SourceLLM},
		models.Recommendation{Name: "Generic Hotel", Description: "A hotel", Source: models.SourceFallback})
	record(models.WorkerDining,
		models.Recommendation{Name: "The Girl and the Fig", Description: "French country bistro", Source: models.SourceLLM},
		models.Recommendation{Name: "Mission Inn", Description: "Dining room at the inn", Source: models.SourceLLM},
		models.Recommendation{Name: "Mystery Spot", Source: models.SourceLLM})
	return actx
}

func assessmentJSON(t *testing.T, out llmOutput) string {
	t.Helper()
	raw, err := json.Marshal(out)
	require.NoError(t, err)
	return string(raw)
}

func itemFor(t *testing.T, r *models.ValidationReport, worker models.WorkerType, name string) models.ValidationItem {
	t.Helper()
	for _, it := range r.Items {
		if it.Worker == worker && it.Name == name {
			return it
		}
	}
	t.Fatalf("no item for %s/%s", worker, name)
	return models.ValidationItem{}
}

func TestExecute_MergesModelAndDeterministicChecks(t *testing.T) {
	reply := assessmentJSON(t, llmOutput{
		Assessments: []llmAssessment{
			{Worker: "destination", Name: "Sonoma", Status: "Verified"},
			{Worker: "lodging", Name: "Generic Hotel", Status: "verified"},
			{Worker: "dining", Name: "The Girl and the Fig", Status: "verified", Notes: "long-running local favorite"},
			{Worker: "dining", Name: "Mystery Spot", Status: "verified"},
			{Worker: "dining", Name: "Invented Place", Status: "verified"},
		},
		Warnings: []string{"check weekend hours"},
		Summary:  "mostly solid",
	})
	client := llm.NewScripted().On("Recommendations:", llm.Reply{Text: reply})

	resp := newTestHandler(t, client).Execute(context.Background(), &models.TaskSpecification{ID: "v-1", Worker: models.WorkerValidator}, researchedContext(t))

	assert.Equal(t, models.StatusSuccess, resp.Status)
	require.NotNil(t, resp.Data)
	report := resp.Data
	require.Len(t, report.Items, 6, "validator never adds recommendations")

	assert.Equal(t, models.Verified, itemFor(t, report, models.WorkerDestination, "Sonoma").Status)
	assert.Equal(t, models.Unverified, itemFor(t, report, models.WorkerLodging, "Generic Hotel").Status)
	fig := itemFor(t, report, models.WorkerDining, "The Girl and the Fig")
	assert.Equal(t, models.Verified, fig.Status)
	assert.Equal(t, "long-running local favorite", fig.Notes)
	assert.Equal(t, models.Flagged, itemFor(t, report, models.WorkerDining, "Mystery Spot").Status)
	assert.Equal(t, models.Flagged, itemFor(t, report, models.WorkerLodging, "Mission Inn").Status)
	assert.Equal(t, models.Flagged, itemFor(t, report, models.WorkerDining, "Mission Inn").Status)

	assert.InDelta(t, 4.0/6.0, report.Coverage, 1e-9)
	assert.InDelta(t, 4.0/6.0, resp.Confidence, 1e-9)
	assert.Contains(t, report.Warnings, "check weekend hours")
	assert.Contains(t, report.Warnings, "dietary coverage gap: no dining option mentions vegan")
	assert.Contains(t, report.Warnings, "accessibility coverage gap: no lodging option mentions wheelchair access")
	assert.Contains(t, report.Summary, "mostly solid")
}

func TestExecute_LLMFailureGivesDeterministicReport(t *testing.T) {
	client := llm.AlwaysFail(apperrors.ProviderServerError)

	resp := newTestHandler(t, client).Execute(context.Background(), &models.TaskSpecification{ID: "v-2"}, researchedContext(t))

	assert.Equal(t, models.StatusPartial, resp.Status)
	assert.LessOrEqual(t, resp.Confidence, 0.5)
	require.NotNil(t, resp.Data)
	assert.Len(t, resp.Data.Items, 6)
	assert.Zero(t, resp.Data.Count(models.Verified))
	assert.Equal(t, 3, resp.Data.Count(models.Flagged))
	assert.Contains(t, resp.Data.Warnings, "dietary coverage gap: no dining option mentions vegan")
}

func TestExecute_NothingToValidate(t *testing.T) {
	client := llm.NewScripted()
	actx := persona.NewBuilder(nil).BuildContext(models.TravelRequirements{Origin: "Reno", NumberOfAdults: 1}, nil)

	resp := newTestHandler(t, client).Execute(context.Background(), &models.TaskSpecification{ID: "v-3"}, actx)

	assert.Equal(t, models.StatusPartial, resp.Status)
	assert.Zero(t, client.Calls())
	require.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data.Items)
}

func TestExecute_RestrictsToRequestedWorkers(t *testing.T) {
	client := llm.NewScripted().Otherwise(llm.Reply{Text: `{"assessments":[]}`})
	task := &models.TaskSpecification{ID: "v-4", Input: models.ValidationInput{Workers: []models.WorkerType{models.WorkerLodging}}}

	resp := newTestHandler(t, client).Execute(context.Background(), task, researchedContext(t))

	require.NotNil(t, resp.Data)
	for _, it := range resp.Data.Items {
		assert.Equal(t, models.WorkerLodging, it.Worker)
	}
	assert.Zero(t, resp.Confidence)
}

func TestCoverageGaps(t *testing.T) {
	subjects := []subject{
		{worker: models.WorkerDining, rec: models.Recommendation{Name: "Green Table", Description: "Fully vegan menu"}},
		{worker: models.WorkerLodging, rec: models.Recommendation{Name: "Plaza Hotel", Amenities: []string{"Wheelchair-accessible rooms"}}},
	}
	tests := []struct {
		name        string
		constraints models.TravelConstraints
		want        int
	}{
		{"covered", models.TravelConstraints{Dietary: []string{"Vegan"}, Accessibility: []string{"step-free entry"}}, 0},
		{"dietary gap", models.TravelConstraints{Dietary: []string{"kosher"}}, 1},
		{"no constraints", models.TravelConstraints{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, coverageGaps(tt.constraints, subjects, LoadConfig(config.AgentConfig{}).AccessibilityTerms), tt.want)
		})
	}
}

func TestCoverageGaps_TypedErrors(t *testing.T) {
	subjects := []subject{
		{worker: models.WorkerLodging, rec: models.Recommendation{Name: "Plaza Hotel", Description: "Rooftop bar"}},
	}
	constraints := models.TravelConstraints{Dietary: []string{"kosher"}, Accessibility: []string{"step-free entry"}}

	gaps := coverageGaps(constraints, subjects, LoadConfig(config.AgentConfig{}).AccessibilityTerms)

	require.Len(t, gaps, 2)
	for _, gap := range gaps {
		assert.Equal(t, apperrors.ErrCodeValidationGap, gap.Code)
		assert.False(t, gap.Retryable)
	}
	assert.Equal(t, "dietary coverage gap: no dining option mentions kosher", gaps[0].Details)
	assert.Equal(t, "accessibility coverage gap: no lodging option mentions step-free entry", gaps[1].Details)
	assert.Equal(t, apperrors.ErrCodeValidationGap, apperrors.Code(gaps[0]))
}

func TestBuildPrompt_ListsFindings(t *testing.T) {
	prompt := newTestHandler(t, llm.NewScripted()).BuildPrompt(&models.TaskSpecification{}, researchedContext(t))

	assert.Contains(t, prompt, "Destination: Sonoma")
	assert.Contains(t, prompt, "- [lodging] Generic Hotel: A hotel (generic catalog entry)")
	assert.Contains(t, prompt, "- [dining] The Girl and the Fig: French country bistro")
	assert.Contains(t, prompt, "Do not add new recommendations")
}
