package formula

import "fantasy-value-lab/internal/domain"

// ratioMultiplier compares the current-period shot-creation rate against its
// historical baseline. Positions where the signal is structurally small get
// the deviation from 1.0 dampened by their impact factor; positions where it
// is not meaningful at all are forced neutral. A baseline below the minimum
// threshold also goes neutral, so noise never explodes the ratio.
func ratioMultiplier(s *domain.RawSnapshot, p *domain.ParameterSet, log *fallbackLog) float64 {
	if s == nil {
		return log.neutral(domain.NeutralMissingThreatRate)
	}

	impact := p.RatioImpactFor(s.Position)
	if impact == 0 {
		return log.neutral(domain.NeutralRatioNotMeaningful)
	}

	if s.ThreatRate == nil || s.ThreatRateBaseline == nil {
		return log.neutral(domain.NeutralMissingThreatRate)
	}
	baseline := *s.ThreatRateBaseline
	if baseline < p.RatioMinBaseline {
		return log.neutral(domain.NeutralLowThreatBaseline)
	}

	ratio := *s.ThreatRate / baseline
	dampened := 1 + (ratio-1)*impact

	return p.RatioBound.Clamp(dampened)
}
