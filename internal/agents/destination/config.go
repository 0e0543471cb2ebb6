// internal/agents/destination/config.go
package destination

import (
	"travel-concierge/internal/agents/base"
	"travel-concierge/internal/common/config"
)

type Config struct {
	Policy     base.Policy
	MinResults int
	MaxResults int
	// FamilyTags mark a destination as suitable for children when found in perfectFor.
	FamilyTags []string
	Tiers      []base.Tier
}

func LoadConfig(agent config.AgentConfig) *Config {
	return &Config{
		Policy:     base.PolicyFromConfig(agent),
		MinResults: 3,
		MaxResults: 7,
		FamilyTags: []string{"family", "families", "kids", "children", "family-friendly", "all ages"},
		Tiers:      base.DefaultTiers,
	}
}
