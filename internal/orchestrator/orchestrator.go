// Package orchestrator coordinates the end-to-end flows: series
// recomputation, backtesting, grid optimization, and verification.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"fantasy-value-lab/internal/config"
	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/observability"
	"fantasy-value-lab/internal/reporting"
	"fantasy-value-lab/internal/storage"
	"fantasy-value-lab/internal/trend"
	"fantasy-value-lab/internal/validation"
	"fantasy-value-lab/internal/verification"
)

// Orchestrator wires stores and engines into complete flows.
type Orchestrator struct {
	snapshots     storage.SnapshotStore
	paramSets     storage.ParameterSetStore
	predictions   storage.PredictionStore
	optimizations storage.OptimizationStore
	series        storage.PredictionSeriesStore // optional analytical copy

	workers int
	verbose bool
	logger  *log.Logger
	now     func() time.Time
}

// Options for creating an Orchestrator.
type Options struct {
	// Required stores
	SnapshotStore     storage.SnapshotStore
	ParamSetStore     storage.ParameterSetStore
	PredictionStore   storage.PredictionStore
	OptimizationStore storage.OptimizationStore

	// Optional analytical write-through
	SeriesStore storage.PredictionSeriesStore

	Workers int // 0 means one worker per CPU
	Verbose bool
	Logger  *log.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		snapshots:     opts.SnapshotStore,
		paramSets:     opts.ParamSetStore,
		predictions:   opts.PredictionStore,
		optimizations: opts.OptimizationStore,
		series:        opts.SeriesStore,
		workers:       opts.Workers,
		verbose:       opts.Verbose,
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock sets a custom clock function for deterministic timestamps.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// RecomputeResult contains results from one recomputation flow.
type RecomputeResult struct {
	PredictionsComputed int
	PredictionsStored   int
	DuplicatesSkipped   int
}

// Recompute evaluates the full prediction series for one parameter set over
// [from, to] gameweeks and persists it. Predictions already stored under the
// same deterministic id are skipped, so re-running a window is safe.
func (o *Orchestrator) Recompute(ctx context.Context, paramSetID string, from, to int) (*RecomputeResult, error) {
	params, err := o.paramSets.GetByID(ctx, paramSetID)
	if err != nil {
		return nil, fmt.Errorf("load parameter set %s: %w", paramSetID, err)
	}

	o.log("Recomputing series for %s over GW%d-GW%d...", paramSetID, from, to)
	engine := trend.NewEngine(o.snapshots, o.workers)
	predictions, err := engine.ComputeAll(ctx, params, from, to)
	if err != nil {
		return nil, fmt.Errorf("compute series: %w", err)
	}

	result := &RecomputeResult{PredictionsComputed: len(predictions)}
	computedAt := o.now().UnixMilli()
	stored := make([]*domain.Prediction, 0, len(predictions))

	for _, p := range predictions {
		p.ComputedAt = computedAt
		observability.RecordEvaluation(p.NeutralReasons)

		if err := o.predictions.Insert(ctx, p); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				result.DuplicatesSkipped++
				continue
			}
			return nil, fmt.Errorf("store prediction %s: %w", p.PredictionID, err)
		}
		stored = append(stored, p)
	}
	result.PredictionsStored = len(stored)

	if o.series != nil && len(stored) > 0 {
		if err := o.series.InsertBulk(ctx, stored); err != nil {
			return nil, fmt.Errorf("store analytical series: %w", err)
		}
	}

	observability.DefaultMetrics.SeriesRecomputed.Inc()
	observability.DefaultMetrics.PredictionsComputed.Add(float64(result.PredictionsStored))
	observability.DefaultMetrics.LastSuccessfulRecompute.Set(float64(o.now().Unix()))
	o.log("Recompute done: %d computed, %d stored, %d duplicates",
		result.PredictionsComputed, result.PredictionsStored, result.DuplicatesSkipped)
	return result, nil
}

// Backtest runs one train/test evaluation for a stored parameter set and
// builds its report.
func (o *Orchestrator) Backtest(ctx context.Context, cfg config.BacktestConfig) (*validation.BacktestResult, *reporting.Report, error) {
	params, err := o.paramSets.GetByID(ctx, cfg.ParamSetID)
	if err != nil {
		return nil, nil, fmt.Errorf("load parameter set %s: %w", cfg.ParamSetID, err)
	}

	players, err := o.snapshots.ListPlayers(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list players: %w", err)
	}

	o.log("Backtesting %s: train GW%d-GW%d, test GW%d, %d players...",
		cfg.ParamSetID, cfg.TrainFrom, cfg.TrainTo, cfg.TestGameweek, len(players))

	started := o.now()
	backtester := validation.NewBacktester(o.snapshots)
	result, err := backtester.Run(ctx, params, players, cfg.TrainFrom, cfg.TrainTo, cfg.TestGameweek, cfg.PrecisionK)
	if err != nil {
		observability.DefaultMetrics.BacktestsRun.WithLabelValues("error").Inc()
		return nil, nil, fmt.Errorf("backtest: %w", err)
	}
	observability.DefaultMetrics.BacktestsRun.WithLabelValues("ok").Inc()
	observability.DefaultMetrics.BacktestDuration.Observe(o.now().Sub(started).Seconds())
	observability.DefaultMetrics.LastSuccessfulBacktest.Set(float64(o.now().Unix()))

	report, err := reporting.NewGenerator(o.snapshots).FromBacktest(ctx, result)
	if err != nil {
		return nil, nil, fmt.Errorf("build report: %w", err)
	}
	observability.DefaultMetrics.ReportsGenerated.Inc()
	return result, report, nil
}

// Optimize runs a grid search over the configured parameter space. The base
// parameter set is loaded from the store when configured, otherwise the
// default set is used.
func (o *Orchestrator) Optimize(ctx context.Context, gridCfg config.GridConfig, btCfg config.BacktestConfig) (*domain.OptimizationRun, *reporting.Report, error) {
	base := domain.DefaultParameterSet()
	if gridCfg.BaseParamSetID != "" {
		loaded, err := o.paramSets.GetByID(ctx, gridCfg.BaseParamSetID)
		if err != nil {
			return nil, nil, fmt.Errorf("load base parameter set %s: %w", gridCfg.BaseParamSetID, err)
		}
		base = loaded
	}

	grid := &validation.Grid{
		Base:               base,
		Alphas:             gridCfg.Alphas,
		AdaptationHorizons: gridCfg.AdaptationHorizons,
		FixtureBases:       gridCfg.FixtureBases,
		RotationPenalties:  gridCfg.RotationPenalties,
		MaxCombinations:    gridCfg.MaxCombinations,
	}

	players, err := o.snapshots.ListPlayers(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list players: %w", err)
	}

	o.log("Optimizing: train GW%d-GW%d, test GW%d, seed %d...",
		btCfg.TrainFrom, btCfg.TrainTo, btCfg.TestGameweek, gridCfg.Seed)

	searcher := validation.NewSearcher(validation.NewBacktester(o.snapshots), o.optimizations, o.logger)
	run, err := searcher.Run(ctx, grid, players, btCfg.TrainFrom, btCfg.TrainTo, btCfg.TestGameweek, gridCfg.Seed, btCfg.PrecisionK)
	if err != nil {
		return nil, nil, fmt.Errorf("grid search: %w", err)
	}
	observability.DefaultMetrics.CombinationsEvaluated.Add(float64(len(run.Entries)))

	report, err := reporting.NewGenerator(o.snapshots).FromRun(ctx, run)
	if err != nil {
		return nil, nil, fmt.Errorf("build report: %w", err)
	}
	observability.DefaultMetrics.ReportsGenerated.Inc()
	return run, report, nil
}

// Verify recomputes every stored prediction for one parameter set across
// [from, to] gameweeks and reports divergences.
func (o *Orchestrator) Verify(ctx context.Context, paramSetID string, from, to int) (*verification.VerificationReport, error) {
	verifier := verification.NewRecomputeVerifier(verification.RecomputeVerifierOptions{
		Predictions: o.predictions,
		Snapshots:   o.snapshots,
		ParamSets:   o.paramSets,
	})

	o.log("Verifying series for %s over GW%d-GW%d...", paramSetID, from, to)
	report, err := verifier.VerifySeries(ctx, paramSetID, from, to)
	if err != nil {
		return nil, fmt.Errorf("verify series: %w", err)
	}

	for _, r := range report.Results {
		observability.RecordVerification(r.Match)
	}
	o.log("Verification done: %d total, %d matched, %d divergent",
		report.TotalPredictions, report.MatchedPredictions, report.DivergentPredictions)
	return report, nil
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		o.logger.Printf("[orchestrator] "+format, args...)
	}
}
