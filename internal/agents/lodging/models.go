// internal/agents/lodging/models.go
package lodging

import "travel-concierge/internal/common/validation"

type llmLodging struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	WhyRecommended string   `json:"whyRecommended"`
	Type           string   `json:"type"`
	Neighborhood   string   `json:"neighborhood"`
	PriceTier      string   `json:"priceTier"`
	Amenities      []string `json:"amenities"`
}

type llmOutput struct {
	Lodging   []llmLodging `json:"lodging"`
	Reasoning string       `json:"reasoning"`
}

var outputSchema = validation.Object([]string{"lodging"}, map[string]interface{}{
	"lodging": validation.ArrayOf(validation.Object([]string{"name"}, map[string]interface{}{
		"name":      validation.NonEmptyString(),
		"amenities": validation.OptionalStringArray(),
	}), 1),
	"reasoning": validation.String(),
})
