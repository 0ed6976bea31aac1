package formula

// NeutralMultiplier is the value every multiplier degrades to when its
// input signal is missing or structurally meaningless. Missing data is a
// data-quality event, never a failure.
const NeutralMultiplier = 1.0

// fallbackLog collects neutral-fallback reason codes during one evaluation.
// Centralizing the policy here keeps the neutral-on-missing-data contract
// uniform across multipliers and testable in isolation.
type fallbackLog struct {
	reasons []string
}

// neutral records a reason and returns the neutral multiplier.
func (l *fallbackLog) neutral(reason string) float64 {
	l.reasons = append(l.reasons, reason)
	return NeutralMultiplier
}
