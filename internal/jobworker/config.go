// internal/jobworker/config.go
package jobworker

import (
	"time"

	"travel-concierge/internal/common/camunda"
	"travel-concierge/internal/common/config"
)

type Config struct {
	MaxJobsActive int
	Timeout       time.Duration
	Retry         *camunda.RetryConfig
}

func LoadConfig(cfg config.CamundaConfig) *Config {
	out := &Config{
		MaxJobsActive: cfg.MaxJobsActive,
		Timeout:       time.Duration(cfg.Timeout) * time.Millisecond,
		Retry:         camunda.DefaultRetryConfig,
	}
	if out.MaxJobsActive <= 0 {
		out.MaxJobsActive = 4
	}
	if out.Timeout <= 0 {
		out.Timeout = 3 * time.Minute
	}
	return out
}
