// Package main runs the long-lived service: scheduled series recomputation,
// Prometheus metrics, and HTTP query endpoints over the stored predictions.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"fantasy-value-lab/internal/config"
	"fantasy-value-lab/internal/observability"
	"fantasy-value-lab/internal/orchestrator"
	"fantasy-value-lab/internal/storage"
	"fantasy-value-lab/internal/storage/clickhouse"
	"fantasy-value-lab/internal/storage/postgres"
)

// Server holds the long-running components.
type Server struct {
	cfg    *config.Config
	orch   *orchestrator.Orchestrator
	series storage.PredictionSeriesStore
	logger *log.Logger

	mu            sync.Mutex
	started       time.Time
	lastRecompute time.Time
	recomputeRuns int
	lastError     string
}

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	listenAddr := flag.String("listen-addr", "", "HTTP listen address (overrides config)")
	recomputeInterval := flag.Duration("recompute-interval", 1*time.Hour, "Series recomputation interval")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}
	if cfg.Trend.ParamSetID == "" || cfg.Trend.FromGameweek < 1 ||
		cfg.Trend.ToGameweek < cfg.Trend.FromGameweek {
		logger.Fatal("trend.param_set_id, trend.from_gameweek and trend.to_gameweek must be configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("received signal %v, shutting down", sig)
		cancel()
	}()

	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	opts := orchestrator.Options{
		SnapshotStore:     postgres.NewSnapshotStore(pool),
		ParamSetStore:     postgres.NewParameterSetStore(pool),
		PredictionStore:   postgres.NewPredictionStore(pool),
		OptimizationStore: postgres.NewOptimizationStore(pool),
		Workers:           cfg.Trend.Workers,
		Verbose:           *verbose,
		Logger:            logger,
	}

	var series storage.PredictionSeriesStore
	if cfg.ClickHouse.DSN != "" {
		conn, err := clickhouse.NewConn(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			logger.Fatalf("connect clickhouse: %v", err)
		}
		defer conn.Close()
		series = clickhouse.NewPredictionSeriesStore(conn)
		opts.SeriesStore = series
	}

	s := &Server{
		cfg:     cfg,
		orch:    orchestrator.New(opts),
		series:  series,
		logger:  logger,
		started: time.Now(),
	}

	go s.recomputeLoop(ctx, *recomputeInterval)
	go s.uptimeLoop(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/top", s.handleTop)

	httpServer := &http.Server{Addr: cfg.Server.ListenAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Printf("listening on %s", cfg.Server.ListenAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("http server: %v", err)
	}
}

// recomputeLoop recomputes the configured series once at startup and then on
// every tick.
func (s *Server) recomputeLoop(ctx context.Context, interval time.Duration) {
	s.runRecompute(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runRecompute(ctx)
		}
	}
}

func (s *Server) runRecompute(ctx context.Context) {
	result, err := s.orch.Recompute(ctx,
		s.cfg.Trend.ParamSetID, s.cfg.Trend.FromGameweek, s.cfg.Trend.ToGameweek)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = err.Error()
		s.logger.Printf("recompute failed: %v", err)
		return
	}
	s.lastError = ""
	s.lastRecompute = time.Now()
	s.recomputeRuns++
	s.logger.Printf("recompute run %d: %d stored, %d duplicates",
		s.recomputeRuns, result.PredictionsStored, result.DuplicatesSkipped)
}

func (s *Server) uptimeLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			observability.DefaultMetrics.UptimeSeconds.Inc()
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	status := map[string]interface{}{
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"param_set_id":   s.cfg.Trend.ParamSetID,
		"recompute_runs": s.recomputeRuns,
		"last_recompute": s.lastRecompute.Format(time.RFC3339),
		"last_error":     s.lastError,
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

// handleTop serves the highest value-per-price predictions for one gameweek
// from the analytical store.
func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	if s.series == nil {
		http.Error(w, "analytical store not configured", http.StatusServiceUnavailable)
		return
	}

	gameweek, err := strconv.Atoi(r.URL.Query().Get("gw"))
	if err != nil || gameweek < 1 {
		http.Error(w, "gw query parameter is required", http.StatusBadRequest)
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
	}
	paramSetID := r.URL.Query().Get("param_set")
	if paramSetID == "" {
		paramSetID = s.cfg.Trend.ParamSetID
	}

	predictions, err := s.series.TopByValuePerPrice(r.Context(), paramSetID, gameweek, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type pick struct {
		PlayerID      string  `json:"player_id"`
		Gameweek      int     `json:"gameweek"`
		Position      string  `json:"position"`
		FinalValue    float64 `json:"final_value"`
		Price         float64 `json:"price"`
		ValuePerPrice float64 `json:"value_per_price"`
	}
	picks := make([]pick, len(predictions))
	for i, p := range predictions {
		picks[i] = pick{
			PlayerID:      p.PlayerID,
			Gameweek:      p.Gameweek,
			Position:      string(p.Position),
			FinalValue:    p.FinalValue,
			Price:         p.Price,
			ValuePerPrice: p.ValuePerPrice,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(picks)
}
