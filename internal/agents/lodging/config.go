// internal/agents/lodging/config.go
package lodging

import (
	"travel-concierge/internal/agents/base"
	"travel-concierge/internal/common/config"
)

type Config struct {
	Policy     base.Policy
	MinResults int
	MaxResults int
	Tiers      []base.Tier
}

func LoadConfig(agent config.AgentConfig) *Config {
	return &Config{
		Policy:     base.PolicyFromConfig(agent),
		MinResults: 2,
		MaxResults: 5,
		Tiers:      base.DefaultTiers,
	}
}
