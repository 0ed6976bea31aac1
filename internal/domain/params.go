package domain

import "fmt"

// Multiplier strategy tags. Legacy variants are preserved so old production
// behavior stays expressible as ParameterSet values for comparison runs.
const (
	FormStrategyDecayed     = "DECAYED"      // exponentially weighted recent form (canonical)
	FormStrategyFixedWindow = "FIXED_WINDOW" // plain average over the lookback window (legacy)

	FixtureStrategyExponential = "EXPONENTIAL" // base^(-difficulty*weight/10) (canonical)
	FixtureStrategyTiered      = "TIERED"      // linear per-tier table (legacy)
)

// Bound is a [Min, Max] clamp applied to a multiplier.
// Invariant: Min <= 1 <= Max, so the neutral multiplier is always representable.
type Bound struct {
	Min float64
	Max float64
}

// Clamp returns v limited to [Min, Max].
func (b Bound) Clamp(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// Contains reports whether v lies within [Min, Max].
func (b Bound) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// ParameterSet is a named, versioned bundle of formula coefficients.
// Pure data: every evaluation receives an explicit ParameterSet, there is no
// process-wide mutable configuration.
// Corresponds to the parameter_sets table.
type ParameterSet struct {
	ParamSetID string // PRIMARY KEY, deterministic hash
	Name       string
	Version    int

	// Baseline blending
	Alpha             float64 // decay rate, exclusive (0,1)
	LookbackWindow    int     // L: observations feeding the form multiplier
	AdaptationHorizon int     // K: gameweek at which blending weight reaches 1.0
	BaselineFloor     float64 // lower bound on the blended baseline

	// Multiplier clamps
	FormBound    Bound
	FixtureBound Bound
	RatioBound   Bound
	GlobalCap    float64 // final value <= blended baseline * GlobalCap

	// Fixture transform
	FixtureStrategy string               // EXPONENTIAL | TIERED
	FixtureBase     float64              // exponent base for EXPONENTIAL
	FixtureWeights  map[Position]float64 // per-position difficulty weight

	// Ratio adjustment
	RatioImpact      map[Position]float64 // 1 = full, fractional = dampened, 0 = forced neutral
	RatioMinBaseline float64              // baseline rates below this go neutral

	// Form strategy
	FormStrategy string // DECAYED | FIXED_WINDOW

	// Starter penalties
	RotationPenalty float64 // multiplier for rotation-risk players
	BenchPenalty    float64 // multiplier for expected bench players

	// Value-per-price
	PriceFloor float64 // denominator floor for value-per-price
}

// Validate checks every ParameterSet invariant. A non-nil error wraps
// ErrInvalidParameterSet and names the first violated constraint.
func (p *ParameterSet) Validate() error {
	if p.ParamSetID == "" {
		return fmt.Errorf("%w: empty param set id", ErrInvalidParameterSet)
	}
	if p.Alpha <= 0 || p.Alpha >= 1 {
		return fmt.Errorf("%w: alpha %v outside (0,1)", ErrInvalidParameterSet, p.Alpha)
	}
	if p.LookbackWindow < 1 {
		return fmt.Errorf("%w: lookback window %d < 1", ErrInvalidParameterSet, p.LookbackWindow)
	}
	// K >= 2 keeps the blending weight denominator (K-1) positive.
	if p.AdaptationHorizon < 2 {
		return fmt.Errorf("%w: adaptation horizon %d < 2", ErrInvalidParameterSet, p.AdaptationHorizon)
	}
	if p.BaselineFloor <= 0 {
		return fmt.Errorf("%w: baseline floor %v must be positive", ErrInvalidParameterSet, p.BaselineFloor)
	}
	for _, b := range []struct {
		name  string
		bound Bound
	}{
		{"form", p.FormBound},
		{"fixture", p.FixtureBound},
		{"ratio", p.RatioBound},
	} {
		if b.bound.Min > 1 || b.bound.Max < 1 {
			return fmt.Errorf("%w: %s bound [%v,%v] must contain 1.0",
				ErrInvalidParameterSet, b.name, b.bound.Min, b.bound.Max)
		}
	}
	if p.GlobalCap < 1 {
		return fmt.Errorf("%w: global cap %v < 1", ErrInvalidParameterSet, p.GlobalCap)
	}
	switch p.FormStrategy {
	case FormStrategyDecayed, FormStrategyFixedWindow:
	default:
		return fmt.Errorf("%w: unknown form strategy %q", ErrInvalidParameterSet, p.FormStrategy)
	}
	switch p.FixtureStrategy {
	case FixtureStrategyExponential, FixtureStrategyTiered:
	default:
		return fmt.Errorf("%w: unknown fixture strategy %q", ErrInvalidParameterSet, p.FixtureStrategy)
	}
	if p.FixtureStrategy == FixtureStrategyExponential && p.FixtureBase <= 1 {
		return fmt.Errorf("%w: fixture base %v must exceed 1", ErrInvalidParameterSet, p.FixtureBase)
	}
	for pos, impact := range p.RatioImpact {
		if impact < 0 || impact > 1 {
			return fmt.Errorf("%w: ratio impact %v for %s outside [0,1]",
				ErrInvalidParameterSet, impact, pos)
		}
	}
	if p.RatioMinBaseline <= 0 {
		return fmt.Errorf("%w: ratio min baseline %v must be positive", ErrInvalidParameterSet, p.RatioMinBaseline)
	}
	if p.RotationPenalty <= 0 || p.RotationPenalty > 1 {
		return fmt.Errorf("%w: rotation penalty %v outside (0,1]", ErrInvalidParameterSet, p.RotationPenalty)
	}
	if p.BenchPenalty <= 0 || p.BenchPenalty > p.RotationPenalty {
		return fmt.Errorf("%w: bench penalty %v must be in (0, rotation penalty]", ErrInvalidParameterSet, p.BenchPenalty)
	}
	if p.PriceFloor <= 0 {
		return fmt.Errorf("%w: price floor %v must be positive", ErrInvalidParameterSet, p.PriceFloor)
	}
	return nil
}

// FixtureWeight returns the difficulty weight for pos, defaulting to 1.0
// when no position-specific weight is configured.
func (p *ParameterSet) FixtureWeight(pos Position) float64 {
	if w, ok := p.FixtureWeights[pos]; ok {
		return w
	}
	return 1.0
}

// RatioImpactFor returns the ratio impact factor for pos, defaulting to
// full impact when no position-specific factor is configured.
func (p *ParameterSet) RatioImpactFor(pos Position) float64 {
	if f, ok := p.RatioImpact[pos]; ok {
		return f
	}
	return 1.0
}

// DefaultParameterSet returns the canonical production parameter set:
// decayed form, exponential fixture transform, dampened ratio impact for
// defensive roles.
func DefaultParameterSet() *ParameterSet {
	return &ParameterSet{
		ParamSetID:        "default-v1",
		Name:              "default",
		Version:           1,
		Alpha:             0.87,
		LookbackWindow:    5,
		AdaptationHorizon: 16,
		BaselineFloor:     0.1,
		FormBound:         Bound{Min: 0.5, Max: 2.0},
		FixtureBound:      Bound{Min: 0.8, Max: 1.3},
		RatioBound:        Bound{Min: 0.5, Max: 2.5},
		GlobalCap:         3.0,
		FixtureStrategy:   FixtureStrategyExponential,
		FixtureBase:       1.05,
		FixtureWeights: map[Position]float64{
			PositionGoalkeeper: 1.10,
			PositionDefender:   1.10,
			PositionMidfielder: 1.00,
			PositionForward:    1.05,
		},
		RatioImpact: map[Position]float64{
			PositionGoalkeeper: 0.0,
			PositionDefender:   0.3,
			PositionMidfielder: 1.0,
			PositionForward:    1.0,
		},
		RatioMinBaseline: 0.2,
		FormStrategy:     FormStrategyDecayed,
		RotationPenalty:  0.75,
		BenchPenalty:     0.4,
		PriceFloor:       4.0,
	}
}
