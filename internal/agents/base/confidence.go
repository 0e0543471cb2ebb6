// internal/agents/base/confidence.go
package base

import "travel-concierge/internal/models"

// Tier awards Score once a worker returns at least MinCount recommendations.
type Tier struct {
	MinCount int
	Score    float64
}

// DefaultTiers must be ordered by descending MinCount.
var DefaultTiers = []Tier{
	{MinCount: 5, Score: 0.9},
	{MinCount: 3, Score: 0.8},
	{MinCount: 1, Score: 0.7},
}

const (
	MinConfidence = 0.3
	MaxConfidence = 0.95
)

// TieredConfidence scores a recommendation count against tiers, clamped to
// [MinConfidence, MaxConfidence]. No recommendations scores MinConfidence.
func TieredConfidence(count int, tiers []Tier) float64 {
	if len(tiers) == 0 {
		tiers = DefaultTiers
	}
	for _, t := range tiers {
		if count >= t.MinCount && t.MinCount > 0 {
			return clamp(t.Score, MinConfidence, MaxConfidence)
		}
	}
	return MinConfidence
}

// ResearchConfidence is the default heuristic for research workers.
func ResearchConfidence(out *models.ResearchOutput) float64 {
	if out == nil {
		return 0
	}
	return TieredConfidence(len(out.Recommendations), DefaultTiers)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
