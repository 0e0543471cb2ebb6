// internal/agents/base/policy.go
package base

import (
	"time"

	"travel-concierge/internal/common/config"
	"travel-concierge/internal/llm"
)

// Policy bounds one worker invocation.
type Policy struct {
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Params         llm.Params
}

var DefaultPolicy = Policy{
	Timeout:        15 * time.Second,
	MaxAttempts:    2,
	InitialBackoff: 250 * time.Millisecond,
	MaxBackoff:     2 * time.Second,
	Params:         llm.Params{Temperature: 0.7, MaxTokens: 4000},
}

func PolicyFromConfig(cfg config.AgentConfig) Policy {
	p := Policy{
		Timeout:        config.GetDuration(cfg.Timeout),
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: config.GetDuration(cfg.InitialBackoff),
		MaxBackoff:     config.GetDuration(cfg.MaxBackoff),
		Params: llm.Params{
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		},
	}
	return p.withDefaults()
}

func (p Policy) withDefaults() Policy {
	if p.Timeout <= 0 {
		p.Timeout = DefaultPolicy.Timeout
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if p.InitialBackoff < 0 {
		p.InitialBackoff = 0
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	if p.Params.MaxTokens == 0 {
		p.Params.MaxTokens = DefaultPolicy.Params.MaxTokens
	}
	return p
}

// Backoff is InitialBackoff doubled per prior retry, capped at MaxBackoff.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt <= 1 || p.InitialBackoff == 0 {
		return 0
	}
	d := p.InitialBackoff << (attempt - 2)
	if d > p.MaxBackoff || d <= 0 {
		d = p.MaxBackoff
	}
	return d
}
