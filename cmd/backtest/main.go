// Package main runs one train/test backtest and writes its report.
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
	paramSetID := flag.String("param-set", "", "Parameter set to evaluate")
	trainFrom := flag.Int("train-from", 0, "First gameweek of the training window")
	trainTo := flag.Int("train-to", 0, "Last gameweek of the training window")
	testGW := flag.Int("test-gw", 0, "Held-out gameweek to score against")
	outputDir := flag.String("output-dir", "output", "Output directory for reports")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := log.New(os.Stdout, "[backtest] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	btCfg := cfg.Backtest
	if *paramSetID != "" {
		btCfg.ParamSetID = *paramSetID
	}
	if *trainFrom != 0 {
		btCfg.TrainFrom = *trainFrom
	}
	if *trainTo != 0 {
		btCfg.TrainTo = *trainTo
	}
	if *testGW != 0 {
		btCfg.TestGameweek = *testGW
	}
	if btCfg.ParamSetID == "" {
		logger.Fatal("--param-set is required")
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

	result, report, err := orch.Backtest(ctx, btCfg)
	if err != nil {
		logger.Fatalf("backtest: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatalf("create output dir: %v", err)
	}
	mdPath := filepath.Join(*outputDir, "BACKTEST_REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		logger.Fatalf("write report: %v", err)
	}
	csvPath := filepath.Join(*outputDir, "backtest_metrics.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.MetricRows)), 0o644); err != nil {
		logger.Fatalf("write csv: %v", err)
	}

	m := result.Metrics
	fmt.Printf("Backtest %s (train GW%d-GW%d, test GW%d):\n",
		btCfg.ParamSetID, result.TrainFrom, result.TrainTo, result.TestGameweek)
	fmt.Printf("  RMSE %.4f  MAE %.4f  Spearman %.4f (p=%.4f)  P@%d %.4f  n=%d\n",
		m.RMSE, m.MAE, m.SpearmanRho, m.SpearmanPValue, m.KUsed, m.PrecisionAtK, m.SampleSize)
	fmt.Printf("  Excluded (absent outcome): %d\n", result.ExcludedAbsent)
	fmt.Printf("  Report: %s\n", mdPath)
}
