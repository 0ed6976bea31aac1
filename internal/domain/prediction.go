package domain

// Neutral fallback reason codes. Every missing-data path in the formula
// degrades to a neutral multiplier and records one of these, never an error.
const (
	NeutralInsufficientForm   = "INSUFFICIENT_FORM_OBSERVATIONS"
	NeutralMissingDifficulty  = "MISSING_FIXTURE_DIFFICULTY"
	NeutralMissingThreatRate  = "MISSING_THREAT_RATE"
	NeutralLowThreatBaseline  = "THREAT_BASELINE_BELOW_MINIMUM"
	NeutralRatioNotMeaningful = "RATIO_NOT_MEANINGFUL_FOR_POSITION"
)

// Prediction is the formula output for one (player, gameweek, parameter set)
// triple. Computed on demand and never mutated.
// Corresponds to the predictions table.
type Prediction struct {
	PredictionID string // PRIMARY KEY, deterministic hash
	PlayerID     string
	Gameweek     int
	ParamSetID   string
	Position     Position

	// Formula components
	BlendedBaseline   float64
	FormMultiplier    float64
	FixtureMultiplier float64
	StarterMultiplier float64
	RatioMultiplier   float64

	// Outputs
	FinalValue    float64 // capped at BlendedBaseline * GlobalCap
	ValuePerPrice float64 // FinalValue / max(price, price floor)
	Price         float64 // price used for the denominator, pre-floor

	// Data quality: neutral-fallback reasons recorded during evaluation.
	NeutralReasons []string

	ComputedAt int64 // Unix timestamp in milliseconds
}
