// internal/jobworker/models.go
package jobworker

import (
	"travel-concierge/internal/common/validation"
	"travel-concierge/internal/models"
)

// Input is the process-variable payload of a generate-itinerary job.
type Input struct {
	RequestID    string                    `json:"requestId,omitempty"`
	Requirements models.TravelRequirements `json:"requirements"`
	PersonaHint  *models.PersonaProfile    `json:"personaHint,omitempty"`
}

// Output is written back as process variables on completion.
type Output struct {
	RequestID  string                 `json:"requestId,omitempty"`
	RunID      string                 `json:"runId"`
	Success    bool                   `json:"success"`
	Persona    *models.PersonaProfile `json:"persona,omitempty"`
	Itinerary  *models.Itinerary      `json:"itinerary,omitempty"`
	Confidence float64                `json:"confidence"`
	Costs      models.CostSummary     `json:"costs"`
	Warnings   []string               `json:"warnings,omitempty"`
}

var inputSchema = validation.Object([]string{"requirements"}, map[string]interface{}{
	"requestId": validation.String(),
	"requirements": validation.Object([]string{"origin"}, map[string]interface{}{
		"origin":           validation.NonEmptyString(),
		"numberOfAdults":   validation.Number(),
		"numberOfChildren": validation.Number(),
		"interests":        validation.OptionalStringArray(),
		"travelModes":      validation.OptionalStringArray(),
	}),
	"personaHint": map[string]interface{}{"type": []string{"object", "null"}},
})
