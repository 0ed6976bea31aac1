// Package main verifies stored predictions by recomputing them from the
// snapshot history. Exits nonzero when any prediction diverges.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fantasy-value-lab/internal/config"
	"fantasy-value-lab/internal/orchestrator"
	"fantasy-value-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	paramSetID := flag.String("param-set", "", "Parameter set whose series to verify")
	from := flag.Int("from", 0, "First gameweek of the window")
	to := flag.Int("to", 0, "Last gameweek of the window")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := log.New(os.Stdout, "[verify] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *paramSetID == "" || *from < 1 || *to < *from {
		logger.Fatal("--param-set, --from and --to are required")
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

	report, err := orch.Verify(ctx, *paramSetID, *from, *to)
	if err != nil {
		logger.Fatalf("verify: %v", err)
	}

	fmt.Printf("Verified %d predictions: %d matched, %d divergent\n",
		report.TotalPredictions, report.MatchedPredictions, report.DivergentPredictions)

	for _, result := range report.Results {
		if result.Match {
			continue
		}
		fmt.Printf("  %s: stored %.6f, recomputed %.6f\n",
			result.PredictionID, result.StoredValue, result.RecomputedVal)
		for _, d := range result.Divergences {
			fmt.Printf("    %s: %v -> %v\n", d.Field, d.Expected, d.Actual)
		}
	}

	if report.DivergentPredictions > 0 {
		os.Exit(1)
	}
}
