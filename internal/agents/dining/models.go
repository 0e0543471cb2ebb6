// internal/agents/dining/models.go
package dining

import "travel-concierge/internal/common/validation"

type llmRestaurant struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	WhyRecommended string   `json:"whyRecommended"`
	Cuisine        string   `json:"cuisine"`
	Neighborhood   string   `json:"neighborhood"`
	PriceTier      string   `json:"priceTier"`
	MealTypes      []string `json:"mealTypes"`
}

type llmOutput struct {
	Restaurants []llmRestaurant `json:"restaurants"`
	Reasoning   string          `json:"reasoning"`
}

var outputSchema = validation.Object([]string{"restaurants"}, map[string]interface{}{
	"restaurants": validation.ArrayOf(validation.Object([]string{"name"}, map[string]interface{}{
		"name":      validation.NonEmptyString(),
		"mealTypes": validation.OptionalStringArray(),
	}), 1),
	"reasoning": validation.String(),
})
