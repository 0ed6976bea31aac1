package formula

import (
	"math"

	"fantasy-value-lab/internal/domain"
)

// fixtureMultiplier transforms the signed fixture difficulty (negative =
// easier) into a multiplier. Missing difficulty data degrades to neutral.
func fixtureMultiplier(s *domain.RawSnapshot, p *domain.ParameterSet, log *fallbackLog) float64 {
	if s == nil || s.FixtureDifficulty == nil {
		return log.neutral(domain.NeutralMissingDifficulty)
	}
	difficulty := *s.FixtureDifficulty
	weight := p.FixtureWeight(s.Position)

	var m float64
	switch p.FixtureStrategy {
	case domain.FixtureStrategyTiered:
		m = tieredFixture(difficulty)
	default:
		m = math.Pow(p.FixtureBase, -difficulty*weight/10)
	}

	return p.FixtureBound.Clamp(m)
}

// tieredFixture is the deprecated legacy variant: a stepwise linear table
// keyed on whole difficulty tiers, kept for backward comparison runs.
func tieredFixture(difficulty float64) float64 {
	switch tier := math.Round(difficulty); {
	case tier <= -3:
		return 1.15
	case tier == -2:
		return 1.10
	case tier == -1:
		return 1.05
	case tier == 0:
		return 1.0
	case tier == 1:
		return 0.95
	case tier == 2:
		return 0.90
	default:
		return 0.85
	}
}
