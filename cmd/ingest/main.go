// Package main imports raw snapshot CSV exports into PostgreSQL.
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
	"fantasy-value-lab/internal/ingestion"
	"fantasy-value-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	inputPath := flag.String("file", "", "Path to snapshot CSV file")
	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags)

	if *inputPath == "" {
		logger.Fatal("--file is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
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

	f, err := os.Open(*inputPath)
	if err != nil {
		logger.Fatalf("open input: %v", err)
	}
	defer f.Close()

	loader := ingestion.NewLoader(ingestion.LoaderOptions{
		Snapshots: postgres.NewSnapshotStore(pool),
		Logger:    logger,
	})

	result, err := loader.Load(ctx, f)
	if err != nil {
		logger.Fatalf("import: %v", err)
	}

	fmt.Printf("Imported %d snapshots (%d duplicates skipped, %d rows rejected)\n",
		result.SnapshotsIngested, result.DuplicatesSkipped, result.RowsRejected)
	for _, e := range result.Errors {
		fmt.Printf("  - %s\n", e)
	}
	if result.RowsRejected > 0 {
		os.Exit(1)
	}
}
