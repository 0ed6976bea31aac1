package formula

import (
	"math"

	"fantasy-value-lab/internal/domain"
)

// formMultiplier computes the recent-form multiplier: a weighted average of
// the last L realized-points observations divided by the blended baseline,
// clamped to the configured bound.
//
// Fewer than 2 observations is insufficient data, not an error: the
// multiplier degrades to neutral.
func formMultiplier(h *domain.PlayerHistory, p *domain.ParameterSet, baseline float64, log *fallbackLog) float64 {
	recent := h.RecentPoints(p.LookbackWindow)
	if len(recent) < 2 {
		return log.neutral(domain.NeutralInsufficientForm)
	}

	var score float64
	switch p.FormStrategy {
	case domain.FormStrategyFixedWindow:
		score = fixedWindowScore(recent)
	default:
		score = decayedScore(recent, p.Alpha)
	}

	return p.FormBound.Clamp(score / baseline)
}

// decayedScore is the canonical EWMA variant: observation i (most recent
// first) is weighted by alpha^i, weights normalized to sum to 1.
func decayedScore(recent []float64, alpha float64) float64 {
	weightSum := 0.0
	weighted := 0.0
	for i, points := range recent {
		w := math.Pow(alpha, float64(i))
		weightSum += w
		weighted += w * points
	}
	return weighted / weightSum
}

// fixedWindowScore is the deprecated legacy variant: a plain average over
// the window, kept only for backward comparison runs.
func fixedWindowScore(recent []float64) float64 {
	sum := 0.0
	for _, points := range recent {
		sum += points
	}
	return sum / float64(len(recent))
}
