package domain

import "errors"

// Contract errors.
var (
	// ErrInvalidParameterSet is returned when a ParameterSet violates its
	// invariants. Fatal at construction time; no evaluation may run with an
	// invalid set.
	ErrInvalidParameterSet = errors.New("invalid parameter set")

	// ErrLookaheadViolation is returned when an evaluation observes data
	// from a period after the evaluation period. This is a programming
	// contract violation: silently ignoring it would corrupt the
	// reproducibility guarantee, so the evaluation that raised it aborts.
	ErrLookaheadViolation = errors.New("lookahead violation")
)
