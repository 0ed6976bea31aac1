package reporting

import "time"

// Report represents a validation report for one backtest or one
// optimization run.
type Report struct {
	// Metadata
	GeneratedAt  time.Time
	Title        string
	TrainFrom    int
	TrainTo      int
	TestGameweek int

	// Data Summary
	DataSummary DataSummary

	// Data Quality (sufficiency checks)
	DataQuality DataQualitySection

	// Per-parameter-set metrics (sorted by RMSE ascending)
	MetricRows []MetricRow

	// Subgroup metrics (sorted by dimension, label)
	StrataRows []StratumRow
}

// DataQualitySection contains data sufficiency checks and neutral-value
// fallback counts.
type DataQualitySection struct {
	SufficiencyChecks   []SufficiencyCheckRow
	NeutralReasonCounts []NeutralReasonRow
	AllChecksPassed     bool
}

// SufficiencyCheckRow represents one sufficiency criterion.
type SufficiencyCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// NeutralReasonRow counts how often one multiplier fell back to neutral.
type NeutralReasonRow struct {
	Reason string
	Count  int
}

// DataSummary describes the data backing the report.
type DataSummary struct {
	TotalPlayers   int
	PairCount      int
	ExcludedAbsent int
	DateRangeStart int64 // Unix ms, earliest snapshot
	DateRangeEnd   int64 // Unix ms, latest snapshot
}

// MetricRow represents one parameter set's aggregate metrics.
type MetricRow struct {
	ParamSetID     string
	Name           string
	Version        int
	SampleSize     int
	RMSE           float64
	MAE            float64
	SpearmanRho    float64
	SpearmanPValue float64
	PrecisionAtK   float64
	KUsed          int
	Best           bool
}

// StratumRow represents metrics recomputed within one subgroup.
type StratumRow struct {
	Dimension    string
	Label        string
	SampleSize   int
	RMSE         float64
	MAE          float64
	SpearmanRho  float64
	PrecisionAtK float64
}
