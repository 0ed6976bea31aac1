package validation

import (
	"sort"

	"fantasy-value-lab/internal/domain"
)

// Stratum dimension names.
const (
	DimensionPosition   = "position"
	DimensionDifficulty = "difficulty"
	DimensionPriceTier  = "price_tier"
)

// Difficulty bucket labels. Negative difficulty means an easier fixture.
const (
	DifficultyEasy    = "easy"
	DifficultyNeutral = "neutral"
	DifficultyHard    = "hard"
	DifficultyUnknown = "unknown"
)

// Price tier labels and cut points.
const (
	PriceTierBudget  = "budget"  // price < 6.0
	PriceTierMid     = "mid"     // 6.0 <= price < 9.0
	PriceTierPremium = "premium" // price >= 9.0
)

// ComputeStrata recomputes metrics within each subgroup along every
// dimension. Each stratum carries its own sample size; strata with no pairs
// are omitted rather than reported as zeros.
func ComputeStrata(pairs []Pair, k int) []domain.StratumMetrics {
	var strata []domain.StratumMetrics
	strata = append(strata, computeDimension(pairs, k, DimensionPosition, positionLabel)...)
	strata = append(strata, computeDimension(pairs, k, DimensionDifficulty, difficultyLabel)...)
	strata = append(strata, computeDimension(pairs, k, DimensionPriceTier, priceTierLabel)...)
	return strata
}

func computeDimension(pairs []Pair, k int, dimension string, label func(Pair) string) []domain.StratumMetrics {
	groups := make(map[string][]Pair)
	for _, p := range pairs {
		l := label(p)
		groups[l] = append(groups[l], p)
	}

	labels := make([]string, 0, len(groups))
	for l := range groups {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	strata := make([]domain.StratumMetrics, 0, len(labels))
	for _, l := range labels {
		group := groups[l]
		groupK := k
		if groupK > len(group) {
			groupK = len(group)
		}
		strata = append(strata, domain.StratumMetrics{
			Dimension: dimension,
			Label:     l,
			Metrics:   ComputeMetrics(group, groupK),
		})
	}
	return strata
}

func positionLabel(p Pair) string {
	return string(p.Position)
}

func difficultyLabel(p Pair) string {
	switch {
	case p.Difficulty == nil:
		return DifficultyUnknown
	case *p.Difficulty < 0:
		return DifficultyEasy
	case *p.Difficulty == 0:
		return DifficultyNeutral
	default:
		return DifficultyHard
	}
}

func priceTierLabel(p Pair) string {
	switch {
	case p.Price < 6.0:
		return PriceTierBudget
	case p.Price < 9.0:
		return PriceTierMid
	default:
		return PriceTierPremium
	}
}
