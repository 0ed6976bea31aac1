package formula

import "fantasy-value-lab/internal/domain"

// starterMultiplier maps starter status to a categorical multiplier. A
// manual override takes precedence over any computed or imported status.
// Absent any signal the rotation-risk penalty applies: the formula never
// silently assumes a player starts.
func starterMultiplier(s *domain.RawSnapshot, p *domain.ParameterSet) float64 {
	status := domain.StarterUnknown
	if s != nil {
		status = s.StarterStatus
		if s.StarterOverride != nil {
			status = *s.StarterOverride
		}
	}

	switch status {
	case domain.StarterConfirmed:
		return 1.0
	case domain.StarterBench:
		return p.BenchPenalty
	case domain.StarterOut:
		return 0.0
	default: // ROTATION and UNKNOWN
		return p.RotationPenalty
	}
}
