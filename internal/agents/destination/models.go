// internal/agents/destination/models.go
package destination

import "travel-concierge/internal/common/validation"

type llmDestination struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	WhyRecommended    string   `json:"whyRecommended"`
	Location          string   `json:"location"`
	DistanceMiles     float64  `json:"distanceMiles"`
	TravelTimeMinutes float64  `json:"travelTimeMinutes"`
	TravelMode        string   `json:"travelMode"`
	Highlights        []string `json:"highlights"`
	Attractions       []string `json:"attractions"`
	Vibe              string   `json:"vibe"`
	PerfectFor        []string `json:"perfectFor"`
	FamilyFriendly    *bool    `json:"familyFriendly"`
}

type llmOutput struct {
	Destinations []llmDestination `json:"destinations"`
	Reasoning    string           `json:"reasoning"`
}

var outputSchema = validation.Object([]string{"destinations"}, map[string]interface{}{
	"destinations": validation.ArrayOf(validation.Object([]string{"name"}, map[string]interface{}{
		"name":        validation.NonEmptyString(),
		"highlights":  validation.OptionalStringArray(),
		"attractions": validation.OptionalStringArray(),
		"perfectFor":  validation.OptionalStringArray(),
	}), 1),
	"reasoning": validation.String(),
})
