// Package main regenerates reports for a stored optimization run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"fantasy-value-lab/internal/config"
	"fantasy-value-lab/internal/reporting"
	"fantasy-value-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	runID := flag.String("run-id", "", "Optimization run to report on")
	outputDir := flag.String("output-dir", "output", "Output directory for reports")
	flag.Parse()

	logger := log.New(os.Stdout, "[report] ", log.LstdFlags)

	if *runID == "" {
		logger.Fatal("--run-id is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	run, err := postgres.NewOptimizationStore(pool).GetRun(ctx, *runID)
	if err != nil {
		logger.Fatalf("load run %s: %v", *runID, err)
	}

	report, err := reporting.NewGenerator(postgres.NewSnapshotStore(pool)).FromRun(ctx, run)
	if err != nil {
		logger.Fatalf("build report: %v", err)
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

	fmt.Printf("Report for run %s (%d entries):\n", run.RunID, len(run.Entries))
	fmt.Printf("  - %s\n", mdPath)
	fmt.Printf("  - %s\n", csvPath)
}
