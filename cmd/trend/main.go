// Package main recomputes prediction series and compares parameter sets.
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
	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/orchestrator"
	"fantasy-value-lab/internal/storage/clickhouse"
	"fantasy-value-lab/internal/storage/postgres"
	"fantasy-value-lab/internal/trend"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	paramSetID := flag.String("param-set", "", "Parameter set to recompute")
	compareWith := flag.String("compare-with", "", "Second parameter set to diff against (optional)")
	from := flag.Int("from", 0, "First gameweek of the window")
	to := flag.Int("to", 0, "Last gameweek of the window")
	maxDivergences := flag.Int("max-divergences", 20, "Divergence rows to print")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := log.New(os.Stdout, "[trend] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *paramSetID == "" {
		*paramSetID = cfg.Trend.ParamSetID
	}
	if *from == 0 {
		*from = cfg.Trend.FromGameweek
	}
	if *to == 0 {
		*to = cfg.Trend.ToGameweek
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

	snapshots := postgres.NewSnapshotStore(pool)
	paramSets := postgres.NewParameterSetStore(pool)

	opts := orchestrator.Options{
		SnapshotStore:     snapshots,
		ParamSetStore:     paramSets,
		PredictionStore:   postgres.NewPredictionStore(pool),
		OptimizationStore: postgres.NewOptimizationStore(pool),
		Workers:           cfg.Trend.Workers,
		Verbose:           *verbose,
		Logger:            logger,
	}
	if cfg.ClickHouse.DSN != "" {
		conn, err := clickhouse.NewConn(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			logger.Fatalf("connect clickhouse: %v", err)
		}
		defer conn.Close()
		opts.SeriesStore = clickhouse.NewPredictionSeriesStore(conn)
	}

	result, err := orchestrator.New(opts).Recompute(ctx, *paramSetID, *from, *to)
	if err != nil {
		logger.Fatalf("recompute: %v", err)
	}
	fmt.Printf("Recomputed %s over GW%d-GW%d: %d predictions (%d stored, %d duplicates)\n",
		*paramSetID, *from, *to,
		result.PredictionsComputed, result.PredictionsStored, result.DuplicatesSkipped)

	if *compareWith == "" {
		return
	}

	base, err := paramSets.GetByID(ctx, *paramSetID)
	if err != nil {
		logger.Fatalf("load parameter set %s: %v", *paramSetID, err)
	}
	other, err := paramSets.GetByID(ctx, *compareWith)
	if err != nil {
		logger.Fatalf("load parameter set %s: %v", *compareWith, err)
	}

	players, err := snapshots.ListPlayers(ctx)
	if err != nil {
		logger.Fatalf("list players: %v", err)
	}

	engine := trend.NewEngine(snapshots, cfg.Trend.Workers)
	comparisons, err := engine.Compare(ctx, []*domain.ParameterSet{base, other}, players, *from, *to)
	if err != nil {
		logger.Fatalf("compare: %v", err)
	}

	divergences := trend.Diverge(comparisons[0], comparisons[1])
	fmt.Printf("\n%d diverging predictions between %s and %s:\n",
		len(divergences), *paramSetID, *compareWith)
	for i, d := range divergences {
		if i >= *maxDivergences {
			fmt.Printf("  ... and %d more\n", len(divergences)-i)
			break
		}
		fmt.Printf("  %s GW%d: %.4f vs %.4f (delta %+.4f)\n",
			d.PlayerID, d.Gameweek, d.Base, d.Other, d.Delta)
	}
}
