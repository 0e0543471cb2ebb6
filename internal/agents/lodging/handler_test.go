// internal/agents/lodging/handler_test.go
package lodging

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
	"travel-concierge/pkg/catalog"
)

func newTestHandler(t *testing.T, client llm.Client) *Handler {
	cfg := LoadConfig(config.AgentConfig{Timeout: 1000, MaxAttempts: 2, InitialBackoff: 1, MaxBackoff: 2})
	return NewHandler(cfg, client, catalog.Default(), persona.NewScorer(persona.DefaultWeights), logger.NewTestLogger(t))
}

func familyContext(city string) *models.AgentContext {
	req := models.TravelRequirements{Origin: "Fresno", NumberOfAdults: 2, NumberOfChildren: 2, Budget: models.BudgetModerate}
	actx := persona.NewBuilder(nil).BuildContext(req, nil)
	actx.SetDestinationCity(city)
	return actx
}

func lodgingJSON(t *testing.T, items ...llmLodging) string {
	t.Helper()
	raw, err := json.Marshal(llmOutput{Lodging: items, Reasoning: "near the park"})
	require.NoError(t, err)
	return string(raw)
}

func TestExecute_Success(t *testing.T) {
	reply := lodgingJSON(t,
		llmLodging{Name: "Cliffside Lodge", Type: "Lodge", PriceTier: "Luxury", Amenities: []string{"spa"}},
		llmLodging{Name: "Harbor Family Suites", Type: "hotel", PriceTier: "moderate", Amenities: []string{"pool", "kitchenette", "family rooms"}},
		llmLodging{Name: "harbor family suites", Type: "hotel"},
	)
	client := llm.NewScripted().On("Destination: Monterey", llm.Reply{Text: "Sure. " + reply})
	actx := familyContext("Monterey")

	resp := newTestHandler(t, client).Execute(context.Background(), &models.TaskSpecification{ID: "l-1", Worker: models.WorkerLodging}, actx)

	assert.Equal(t, models.StatusSuccess, resp.Status)
	require.NotNil(t, resp.Data)
	recs := resp.Data.Recommendations
	require.Len(t, recs, 2)
	assert.Equal(t, "Harbor Family Suites", recs[0].Name)
	assert.Greater(t, recs[0].PersonaFit, recs[1].PersonaFit)
	assert.Equal(t, "Monterey", recs[0].Location)
	assert.Equal(t, "luxury", recs[1].PriceTier)
	assert.Empty(t, resp.Data.Warnings)
	assert.InDelta(t, 0.7, resp.Confidence, 1e-9)
}

func TestExecute_BudgetWarning(t *testing.T) {
	client := llm.NewScripted().Otherwise(llm.Reply{Text: lodgingJSON(t,
		llmLodging{Name: "Grand Palace", PriceTier: "luxury"},
		llmLodging{Name: "Ritz", PriceTier: "luxury"},
	)})

	resp := newTestHandler(t, client).Execute(context.Background(), &models.TaskSpecification{ID: "l-2"}, familyContext("Carmel"))
	assert.Equal(t, models.StatusSuccess, resp.Status)
	assert.Contains(t, resp.Data.Warnings, "no lodging matches the moderate budget tier")
}

func TestExecute_NoDestinationSkipsModel(t *testing.T) {
	client := llm.NewScripted().Otherwise(llm.Reply{Text: lodgingJSON(t, llmLodging{Name: "x"})})
	actx := familyContext("")

	resp := newTestHandler(t, client).Execute(context.Background(), &models.TaskSpecification{ID: "l-3"}, actx)

	assert.Equal(t, models.StatusPartial, resp.Status)
	assert.NotEmpty(t, resp.FallbackReason)
	assert.Zero(t, client.Calls())
	require.NotNil(t, resp.Data)
	assert.NotEmpty(t, resp.Data.Recommendations)
}

func TestExecute_AlwaysFailingClient(t *testing.T) {
	client := llm.AlwaysFail(apperrors.ProviderRateLimit)

	resp := newTestHandler(t, client).Execute(context.Background(), &models.TaskSpecification{ID: "l-4"}, familyContext("Santa Cruz"))

	assert.Equal(t, models.StatusPartial, resp.Status)
	assert.LessOrEqual(t, resp.Confidence, 0.5)
	require.NotNil(t, resp.Data)
	for _, r := range resp.Data.Recommendations {
		assert.Equal(t, "Santa Cruz", r.Location)
		assert.Equal(t, models.SourceFallback, r.Source)
	}
}

func TestBuildPrompt_UsesDestinationFindings(t *testing.T) {
	actx := familyContext("Monterey")
	actx.RecordFinding(models.Finding{
		Worker: models.WorkerDestination,
		Status: models.StatusSuccess,
		Research: &models.ResearchOutput{Recommendations: []models.Recommendation{{
			Name:        "Monterey",
			Destination: &models.DestinationDetails{Attractions: []string{"Aquarium", "Cannery Row"}},
		}}},
	})

	prompt := newTestHandler(t, llm.NewScripted()).BuildPrompt(&models.TaskSpecification{
		Input: models.LodgingInput{Nights: 3},
	}, actx)

	assert.Contains(t, prompt, "Destination: Monterey")
	assert.Contains(t, prompt, "Stay: 3 night(s) for 4 guest(s)")
	assert.Contains(t, prompt, "Planned sights: Aquarium, Cannery Row")
	assert.Contains(t, prompt, "suites or connecting rooms")
}

func TestExecute_BlankNamesRetryThenFallBack(t *testing.T) {
	client := llm.NewScripted().Otherwise(llm.Reply{Text: `{"lodging":[{"name":" "},{"name":"\t"}]}`})

	resp := newTestHandler(t, client).Execute(context.Background(), &models.TaskSpecification{ID: "l-5"}, familyContext("Monterey"))

	assert.Equal(t, models.StatusPartial, resp.Status)
	assert.Equal(t, string(apperrors.ErrCodeParseFailed), resp.ErrorCode)
	assert.Equal(t, 2, client.Calls())
	require.NotNil(t, resp.Data)
	require.NotEmpty(t, resp.Data.Recommendations)
	for _, r := range resp.Data.Recommendations {
		assert.Equal(t, models.SourceFallback, r.Source)
	}
}

func TestParseResponse_NothingSurvivesCleanup(t *testing.T) {
	h := newTestHandler(t, llm.NewScripted())

	_, err := h.ParseResponse(`{"lodging":[{"name":"\u00a0"}]}`, &models.TaskSpecification{ID: "l-6"}, familyContext("Monterey"))

	var parseErr *apperrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "no usable recommendations", parseErr.Reason)
}
