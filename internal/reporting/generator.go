package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/storage"
	"fantasy-value-lab/internal/validation"
)

// Sufficiency thresholds. A report whose data falls below these is flagged
// so its metrics are not read with more confidence than the sample supports.
const (
	MinPairs          = 30  // minimum prediction/outcome pairs overall
	MinStratumSamples = 5   // minimum pairs per reported stratum
	MaxExcludedShare  = 0.2 // tolerated fraction of absent outcomes
)

// Generator produces reports from backtest and optimization results.
type Generator struct {
	snapshotStore storage.SnapshotStore
	now           func() time.Time // injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(snapshotStore storage.SnapshotStore) *Generator {
	return &Generator{
		snapshotStore: snapshotStore,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// FromBacktest builds a report for a single backtest result.
func (g *Generator) FromBacktest(ctx context.Context, result *validation.BacktestResult) (*Report, error) {
	summary, err := g.dataSummary(ctx, len(result.Pairs), result.ExcludedAbsent)
	if err != nil {
		return nil, err
	}

	metricRow := metricRowFrom(result.Params, result.Metrics)
	metricRow.Best = true

	return &Report{
		GeneratedAt:  g.now(),
		Title:        fmt.Sprintf("Backtest %s", result.Params.ParamSetID),
		TrainFrom:    result.TrainFrom,
		TrainTo:      result.TrainTo,
		TestGameweek: result.TestGameweek,
		DataSummary:  *summary,
		DataQuality:  g.dataQuality(summary, result.Strata),
		MetricRows:   []MetricRow{metricRow},
		StrataRows:   strataRows(result.Strata),
	}, nil
}

// FromRun builds a report for an optimization run. Entries are ranked by
// RMSE ascending and the run's best entry is marked.
func (g *Generator) FromRun(ctx context.Context, run *domain.OptimizationRun) (*Report, error) {
	rows := make([]MetricRow, 0, len(run.Entries))
	pairCount := 0
	trainFrom, trainTo, testGW := 0, 0, 0

	for _, entry := range run.Entries {
		row := metricRowFrom(entry.Params, entry.Metrics)
		if run.BestParamSet != nil && entry.ParamSetID == run.BestParamSet.ParamSetID {
			row.Best = true
		}
		rows = append(rows, row)

		if entry.Metrics.SampleSize > pairCount {
			pairCount = entry.Metrics.SampleSize
		}
		trainFrom, trainTo, testGW = entry.TrainFrom, entry.TrainTo, entry.TestGameweek
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].RMSE != rows[j].RMSE {
			return rows[i].RMSE < rows[j].RMSE
		}
		return rows[i].ParamSetID < rows[j].ParamSetID
	})

	summary, err := g.dataSummary(ctx, pairCount, 0)
	if err != nil {
		return nil, err
	}

	return &Report{
		GeneratedAt:  g.now(),
		Title:        fmt.Sprintf("Optimization run %s", run.RunID),
		TrainFrom:    trainFrom,
		TrainTo:      trainTo,
		TestGameweek: testGW,
		DataSummary:  *summary,
		DataQuality:  g.dataQuality(summary, nil),
		MetricRows:   rows,
	}, nil
}

// CountNeutralReasons tallies neutral-value fallbacks across predictions,
// sorted by count descending then reason.
func CountNeutralReasons(predictions []*domain.Prediction) []NeutralReasonRow {
	counts := make(map[string]int)
	for _, p := range predictions {
		for _, reason := range p.NeutralReasons {
			counts[reason]++
		}
	}

	rows := make([]NeutralReasonRow, 0, len(counts))
	for reason, count := range counts {
		rows = append(rows, NeutralReasonRow{Reason: reason, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Reason < rows[j].Reason
	})
	return rows
}

// dataSummary describes the snapshot data and pairing outcome.
func (g *Generator) dataSummary(ctx context.Context, pairCount, excludedAbsent int) (*DataSummary, error) {
	players, err := g.snapshotStore.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}

	var start, end int64
	for _, playerID := range players {
		snapshots, err := g.snapshotStore.GetByPlayer(ctx, playerID)
		if err != nil {
			return nil, err
		}
		for _, s := range snapshots {
			if start == 0 || s.RecordedAt < start {
				start = s.RecordedAt
			}
			if s.RecordedAt > end {
				end = s.RecordedAt
			}
		}
	}

	return &DataSummary{
		TotalPlayers:   len(players),
		PairCount:      pairCount,
		ExcludedAbsent: excludedAbsent,
		DateRangeStart: start,
		DateRangeEnd:   end,
	}, nil
}

// dataQuality evaluates sufficiency checks against the summary and strata.
func (g *Generator) dataQuality(summary *DataSummary, strata []domain.StratumMetrics) DataQualitySection {
	var checks []SufficiencyCheckRow

	checks = append(checks, SufficiencyCheckRow{
		Name:      "min_pairs",
		Threshold: fmt.Sprintf(">= %d", MinPairs),
		Actual:    fmt.Sprintf("%d", summary.PairCount),
		Pass:      summary.PairCount >= MinPairs,
	})

	total := summary.PairCount + summary.ExcludedAbsent
	excludedShare := 0.0
	if total > 0 {
		excludedShare = float64(summary.ExcludedAbsent) / float64(total)
	}
	checks = append(checks, SufficiencyCheckRow{
		Name:      "excluded_absent_share",
		Threshold: fmt.Sprintf("<= %.2f", MaxExcludedShare),
		Actual:    fmt.Sprintf("%.2f", excludedShare),
		Pass:      excludedShare <= MaxExcludedShare,
	})

	for _, s := range strata {
		checks = append(checks, SufficiencyCheckRow{
			Name:      fmt.Sprintf("stratum_%s_%s", s.Dimension, s.Label),
			Threshold: fmt.Sprintf(">= %d", MinStratumSamples),
			Actual:    fmt.Sprintf("%d", s.Metrics.SampleSize),
			Pass:      s.Metrics.SampleSize >= MinStratumSamples,
		})
	}

	allPassed := true
	for _, c := range checks {
		if !c.Pass {
			allPassed = false
			break
		}
	}

	return DataQualitySection{
		SufficiencyChecks: checks,
		AllChecksPassed:   allPassed,
	}
}

// metricRowFrom flattens one parameter set's metrics into a table row.
func metricRowFrom(params *domain.ParameterSet, m domain.ValidationMetrics) MetricRow {
	row := MetricRow{
		SampleSize:     m.SampleSize,
		RMSE:           m.RMSE,
		MAE:            m.MAE,
		SpearmanRho:    m.SpearmanRho,
		SpearmanPValue: m.SpearmanPValue,
		PrecisionAtK:   m.PrecisionAtK,
		KUsed:          m.KUsed,
	}
	if params != nil {
		row.ParamSetID = params.ParamSetID
		row.Name = params.Name
		row.Version = params.Version
	}
	return row
}

// strataRows sorts subgroup metrics by (dimension, label).
func strataRows(strata []domain.StratumMetrics) []StratumRow {
	rows := make([]StratumRow, len(strata))
	for i, s := range strata {
		rows[i] = StratumRow{
			Dimension:    s.Dimension,
			Label:        s.Label,
			SampleSize:   s.Metrics.SampleSize,
			RMSE:         s.Metrics.RMSE,
			MAE:          s.Metrics.MAE,
			SpearmanRho:  s.Metrics.SpearmanRho,
			PrecisionAtK: s.Metrics.PrecisionAtK,
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Dimension != rows[j].Dimension {
			return rows[i].Dimension < rows[j].Dimension
		}
		return rows[i].Label < rows[j].Label
	})
	return rows
}
