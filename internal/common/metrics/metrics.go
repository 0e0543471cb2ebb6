// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AgentCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_agent_calls_total",
			Help: "Agent invocations by worker and response status",
		},
		[]string{"worker", "status"},
	)

	AgentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "concierge_agent_duration_seconds",
			Help:    "Wall-clock duration of one agent invocation",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 15, 30},
		},
		[]string{"worker"},
	)

	LLMAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_llm_attempts_total",
			Help: "LLM attempts by worker and outcome (ok, provider_error, parse_error, timeout)",
		},
		[]string{"worker", "outcome"},
	)

	LLMTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_llm_tokens_total",
			Help: "Tokens consumed by kind (prompt, completion)",
		},
		[]string{"worker", "kind"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_llm_cache_lookups_total",
			Help: "Completion cache lookups by result (hit, miss, bypass, error)",
		},
		[]string{"result"},
	)

	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_runs_total",
			Help: "Orchestration runs by final phase",
		},
		[]string{"phase"},
	)

	RunConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "concierge_run_confidence",
			Help:    "Aggregate confidence of completed runs",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	RunsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "concierge_runs_active",
			Help: "Orchestration runs currently in flight",
		},
	)
)
