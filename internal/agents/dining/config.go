// internal/agents/dining/config.go
package dining

import (
	"travel-concierge/internal/agents/base"
	"travel-concierge/internal/common/config"
)

type Config struct {
	Policy       base.Policy
	MinResults   int
	MaxResults   int
	MinBreakfast int
	MinDinner    int
	Tiers        []base.Tier
}

func LoadConfig(agent config.AgentConfig) *Config {
	return &Config{
		Policy:       base.PolicyFromConfig(agent),
		MinResults:   5,
		MaxResults:   12,
		MinBreakfast: 2,
		MinDinner:    3,
		Tiers:        base.DefaultTiers,
	}
}
