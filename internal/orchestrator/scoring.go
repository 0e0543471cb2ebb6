// internal/orchestrator/scoring.go
package orchestrator

import (
	"math"

	"travel-concierge/internal/common/config"
	"travel-concierge/internal/models"
)

// settled is the part of a worker response that aggregation reads.
type settled struct {
	worker     models.WorkerType
	confidence float64
	fallback   bool
	usage      models.Usage
}

// aggregateConfidence is the weighted mean of per-worker confidence, minus a penalty per
// fallback worker and a capped penalty per validator warning, clamped to [0, 1].
func aggregateConfidence(cfg config.OrchestratorConfig, workers []settled, validatorWarnings int) float64 {
	var sum, weights float64
	fallbacks := 0
	for _, w := range workers {
		weight, ok := cfg.WorkerWeights[string(w.worker)]
		if !ok {
			weight = 1.0 / float64(len(workers))
		}
		sum += weight * w.confidence
		weights += weight
		if w.fallback {
			fallbacks++
		}
	}
	if weights == 0 {
		return 0
	}

	score := sum / weights
	score -= float64(fallbacks) * cfg.FallbackPenalty
	score -= math.Min(float64(validatorWarnings)*cfg.WarningPenalty, cfg.MaxWarningPenalty)
	return math.Max(0, math.Min(1, score))
}

func summarizeCosts(pricing config.PricingConfig, workers []settled) models.CostSummary {
	var total models.Usage
	for _, w := range workers {
		total.Add(w.usage)
	}
	cost := float64(total.PromptTokens)/1000*pricing.PromptPer1K +
		float64(total.CompletionTokens)/1000*pricing.CompletionPer1K
	return models.CostSummary{
		PromptTokens:     total.PromptTokens,
		CompletionTokens: total.CompletionTokens,
		TotalTokens:      total.TotalTokens(),
		Calls:            total.Calls,
		CachedCalls:      total.CachedCalls,
		EstimatedCostUSD: math.Round(cost*1e6) / 1e6,
	}
}
