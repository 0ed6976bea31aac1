package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/storage"
)

// OptimizationStore implements storage.OptimizationStore using PostgreSQL.
//
// Run metadata and tested entries live in separate tables. Entries carry the
// full parameter record as JSONB so a run remains self-describing even when
// the referenced parameter sets were never persisted individually.
type OptimizationStore struct {
	pool *Pool
}

// NewOptimizationStore creates a new Postgres-backed optimization store.
func NewOptimizationStore(pool *Pool) *OptimizationStore {
	return &OptimizationStore{pool: pool}
}

// InsertRun stores run metadata. Entries are persisted separately via
// InsertEntry as the search progresses.
func (s *OptimizationStore) InsertRun(ctx context.Context, run *domain.OptimizationRun) error {
	if run == nil || run.RunID == "" {
		return fmt.Errorf("%w: run missing id", storage.ErrInvalidInput)
	}

	query := `
		INSERT INTO optimization_runs (run_id, seed, primary_metric, started_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, run.RunID, run.Seed, run.PrimaryMetric, run.StartedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: run %s", storage.ErrDuplicateKey, run.RunID)
		}
		return fmt.Errorf("insert optimization run: %w", err)
	}
	return nil
}

// InsertEntry records one tested parameter combination. Returns
// ErrDuplicateKey for a (run_id, param_set_id) pair that was already
// recorded by an earlier interrupted search; callers treat that as
// already-recorded.
func (s *OptimizationStore) InsertEntry(ctx context.Context, entry *domain.OptimizationEntry) error {
	if entry == nil || entry.RunID == "" || entry.ParamSetID == "" {
		return fmt.Errorf("%w: entry missing run or param set id", storage.ErrInvalidInput)
	}

	query := `
		INSERT INTO optimization_entries (
			run_id, param_set_id, params,
			rmse, mae, spearman_rho, spearman_p_value,
			precision_at_k, k_used, sample_size,
			train_from, train_to, test_gameweek, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	var params domain.Record
	if entry.Params != nil {
		params = entry.Params.ToRecord()
	}

	_, err := s.pool.Exec(ctx, query,
		entry.RunID,
		entry.ParamSetID,
		params,
		entry.Metrics.RMSE,
		entry.Metrics.MAE,
		entry.Metrics.SpearmanRho,
		entry.Metrics.SpearmanPValue,
		entry.Metrics.PrecisionAtK,
		entry.Metrics.KUsed,
		entry.Metrics.SampleSize,
		entry.TrainFrom,
		entry.TrainTo,
		entry.TestGameweek,
		entry.ComputedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: entry (%s, %s)", storage.ErrDuplicateKey, entry.RunID, entry.ParamSetID)
		}
		return fmt.Errorf("insert optimization entry: %w", err)
	}
	return nil
}

// GetRun returns run metadata with its entries attached, entries ordered by
// param_set_id for deterministic reads.
func (s *OptimizationStore) GetRun(ctx context.Context, runID string) (*domain.OptimizationRun, error) {
	query := `
		SELECT run_id, seed, primary_metric, started_at
		FROM optimization_runs
		WHERE run_id = $1
	`

	var run domain.OptimizationRun
	err := s.pool.QueryRow(ctx, query, runID).Scan(
		&run.RunID, &run.Seed, &run.PrimaryMetric, &run.StartedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: run %s", storage.ErrNotFound, runID)
		}
		return nil, fmt.Errorf("get optimization run: %w", err)
	}

	entries, err := s.GetEntries(ctx, runID)
	if err != nil {
		return nil, err
	}
	run.Entries = entries

	for _, e := range entries {
		if run.BestMetrics == nil || e.Metrics.RMSE < run.BestMetrics.RMSE {
			metrics := e.Metrics
			run.BestMetrics = &metrics
			run.BestParamSet = e.Params
		}
	}
	return &run, nil
}

// GetEntries returns all entries recorded for a run, ordered by param_set_id.
func (s *OptimizationStore) GetEntries(ctx context.Context, runID string) ([]*domain.OptimizationEntry, error) {
	query := `
		SELECT run_id, param_set_id, params,
		       rmse, mae, spearman_rho, spearman_p_value,
		       precision_at_k, k_used, sample_size,
		       train_from, train_to, test_gameweek, computed_at
		FROM optimization_entries
		WHERE run_id = $1
		ORDER BY param_set_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get optimization entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.OptimizationEntry
	for rows.Next() {
		var (
			entry  domain.OptimizationEntry
			params domain.Record
		)
		err := rows.Scan(
			&entry.RunID,
			&entry.ParamSetID,
			&params,
			&entry.Metrics.RMSE,
			&entry.Metrics.MAE,
			&entry.Metrics.SpearmanRho,
			&entry.Metrics.SpearmanPValue,
			&entry.Metrics.PrecisionAtK,
			&entry.Metrics.KUsed,
			&entry.Metrics.SampleSize,
			&entry.TrainFrom,
			&entry.TrainTo,
			&entry.TestGameweek,
			&entry.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan optimization entry: %w", err)
		}
		if len(params) > 0 {
			ps, err := domain.ParameterSetFromRecord(params)
			if err != nil {
				return nil, fmt.Errorf("decode entry params: %w", err)
			}
			entry.Params = ps
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate optimization entries: %w", err)
	}
	return entries, nil
}

var _ storage.OptimizationStore = (*OptimizationStore)(nil)
