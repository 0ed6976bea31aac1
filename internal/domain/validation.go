package domain

// ValidationMetrics aggregates prediction accuracy over a collection of
// (prediction, realized outcome) pairs. Created once per backtest run and
// never mutated. SampleSize always accompanies the statistics so callers can
// judge the reliability of small-N runs.
// Corresponds to the validation_metrics columns of optimization_entries.
type ValidationMetrics struct {
	RMSE           float64 // root mean squared error
	MAE            float64 // mean absolute error
	SpearmanRho    float64 // rank correlation; NaN inputs normalize to 0
	SpearmanPValue float64 // two-tailed significance; NaN normalizes to 1
	PrecisionAtK   float64 // fraction of predicted top-K present in actual top-K
	KUsed          int     // K after reduction to the sample size
	SampleSize     int
}

// StratumMetrics is ValidationMetrics recomputed within one subgroup
// (position, difficulty bucket, or price tier). SampleSize travels with each
// stratum: small strata must not be read with aggregate-level confidence.
type StratumMetrics struct {
	Dimension string // "position" | "difficulty" | "price_tier"
	Label     string
	Metrics   ValidationMetrics
}

// OptimizationEntry records the outcome of one tested parameter combination.
// Entries are append-only; a combination's result is never rewritten.
type OptimizationEntry struct {
	RunID      string
	ParamSetID string
	Params     *ParameterSet
	Metrics    ValidationMetrics

	// Backtest window this entry was measured over.
	TrainFrom    int
	TrainTo      int
	TestGameweek int

	ComputedAt int64 // Unix timestamp in milliseconds
}

// OptimizationRun maps tested parameter sets to their metrics and designates
// the best-found set by the primary metric (lowest RMSE). Grows
// monotonically during a grid search; a partial run still yields usable
// entries.
// Corresponds to the optimization_runs table.
type OptimizationRun struct {
	RunID         string // PRIMARY KEY, deterministic hash
	Seed          int64  // recorded sampling seed, for replayable searches
	PrimaryMetric string // "rmse"
	Entries       []*OptimizationEntry
	BestParamSet  *ParameterSet // lowest-RMSE combination seen so far
	BestMetrics   *ValidationMetrics
	StartedAt     int64 // Unix timestamp in milliseconds
}

// CrossValidationResult reports per-fold metrics plus their mean and
// standard deviation: stability, not just a point estimate.
type CrossValidationResult struct {
	ParamSetID   string
	Folds        []ValidationMetrics
	MeanRMSE     float64
	StddevRMSE   float64
	MeanMAE      float64
	StddevMAE    float64
	MeanRho      float64
	StddevRho    float64
	TotalPairs   int
	FoldsSkipped int // folds with too few pairs for meaningful metrics
}
