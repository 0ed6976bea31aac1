package formula

import "fantasy-value-lab/internal/domain"

// BlendWeight returns the baseline blending weight for period index n and
// adaptation horizon k.
//
// w = 0 when n <= 1, else min(1, (n-1)/(k-1)). Non-decreasing in n and
// exactly 1.0 at n = k. Callers guarantee k >= 2 via ParameterSet.Validate.
func BlendWeight(n, k int) float64 {
	if n <= 1 {
		return 0
	}
	w := float64(n-1) / float64(k-1)
	if w > 1 {
		return 1
	}
	return w
}

// blendedBaseline combines the prior baseline with the season-to-date
// average using the time-varying weight, then applies the configured floor
// so downstream ratios never divide by zero.
func blendedBaseline(h *domain.PlayerHistory, p *domain.ParameterSet, asOf int) float64 {
	w := BlendWeight(asOf, p.AdaptationHorizon)

	prior := 0.0
	if latest := h.Latest(); latest != nil {
		prior = latest.PointsBaseline
	}
	blended := w*h.SeasonAverage() + (1-w)*prior

	if blended < p.BaselineFloor {
		return p.BaselineFloor
	}
	return blended
}
