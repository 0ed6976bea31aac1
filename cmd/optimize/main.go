// Package main runs a parameter grid search over a backtest window.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"fantasy-value-lab/internal/config"
	"fantasy-value-lab/internal/orchestrator"
	"fantasy-value-lab/internal/reporting"
	"fantasy-value-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	seed := flag.Int64("seed", 0, "Sampling seed (overrides config)")
	outputDir := flag.String("output-dir", "output", "Output directory for reports")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := log.New(os.Stdout, "[optimize] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *seed != 0 {
		cfg.Grid.Seed = *seed
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	orch := orchestrator.New(orchestrator.Options{
		SnapshotStore:     postgres.NewSnapshotStore(pool),
		ParamSetStore:     postgres.NewParameterSetStore(pool),
		PredictionStore:   postgres.NewPredictionStore(pool),
		OptimizationStore: postgres.NewOptimizationStore(pool),
		Verbose:           *verbose,
		Logger:            logger,
	})

	run, report, err := orch.Optimize(ctx, cfg.Grid, cfg.Backtest)
	if err != nil {
		logger.Fatalf("optimize: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatalf("create output dir: %v", err)
	}
	mdPath := filepath.Join(*outputDir, "OPTIMIZATION_REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		logger.Fatalf("write report: %v", err)
	}
	csvPath := filepath.Join(*outputDir, "optimization_entries.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.MetricRows)), 0o644); err != nil {
		logger.Fatalf("write csv: %v", err)
	}

	fmt.Printf("Run %s: %d combinations evaluated\n", run.RunID, len(run.Entries))
	if run.BestParamSet != nil && run.BestMetrics != nil {
		fmt.Printf("Best: %s (alpha=%.3f, horizon=%d) RMSE %.4f\n",
			run.BestParamSet.ParamSetID, run.BestParamSet.Alpha,
			run.BestParamSet.AdaptationHorizon, run.BestMetrics.RMSE)
	}
	fmt.Printf("Report: %s\n", mdPath)
}
