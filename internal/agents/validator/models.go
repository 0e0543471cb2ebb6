// internal/agents/validator/models.go
package validator

import "travel-concierge/internal/common/validation"

type llmAssessment struct {
	Worker string `json:"worker"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type llmOutput struct {
	Assessments []llmAssessment `json:"assessments"`
	Warnings    []string        `json:"warnings"`
	Summary     string          `json:"summary"`
}

var outputSchema = validation.Object([]string{"assessments"}, map[string]interface{}{
	"assessments": validation.ArrayOf(validation.Object([]string{"name", "status"}, map[string]interface{}{
		"name":   validation.NonEmptyString(),
		"status": validation.NonEmptyString(),
	}), 0),
	"warnings": validation.OptionalStringArray(),
	"summary":  validation.String(),
})
