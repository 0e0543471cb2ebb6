// internal/agents/validator/config.go
package validator

import (
	"travel-concierge/internal/agents/base"
	"travel-concierge/internal/common/config"
)

type Config struct {
	Policy base.Policy
	// AccessibilityTerms count as evidence that a lodging option addresses accessibility needs.
	AccessibilityTerms []string
}

func LoadConfig(agent config.AgentConfig) *Config {
	return &Config{
		Policy:             base.PolicyFromConfig(agent),
		AccessibilityTerms: []string{"accessible", "accessibility", "wheelchair", "ada", "elevator", "elevators"},
	}
}
