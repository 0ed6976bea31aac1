// Package storage defines the append-only store contracts the engines read
// from and write to. Concrete backends live in the memory, postgres and
// clickhouse subpackages.
package storage

import (
	"context"

	"fantasy-value-lab/internal/domain"
)

// SnapshotStore provides access to raw_snapshots storage. Records are
// append-only: corrections are new records with a later recorded_at, never
// updates, so retrospective recomputation always sees the same bytes.
type SnapshotStore interface {
	// Insert adds a new snapshot. Returns ErrDuplicateKey if snapshot_id exists.
	Insert(ctx context.Context, s *domain.RawSnapshot) error

	// InsertBulk adds multiple snapshots atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, snapshots []*domain.RawSnapshot) error

	// GetByPlayer retrieves all records for a player, corrections included,
	// ordered by (gameweek ASC, recorded_at ASC).
	GetByPlayer(ctx context.Context, playerID string) ([]*domain.RawSnapshot, error)

	// GetByPlayerAsOf retrieves records with gameweek <= asOf only, ordered
	// by (gameweek ASC, recorded_at ASC). The no-look-ahead read path.
	GetByPlayerAsOf(ctx context.Context, playerID string, asOf int) ([]*domain.RawSnapshot, error)

	// GetRealizedPoints returns the realized outcome for a player-gameweek
	// pair after correction resolution. Returns (nil, nil) when absent:
	// absent means excluded from metrics, never zero.
	GetRealizedPoints(ctx context.Context, playerID string, gameweek int) (*float64, error)

	// ListPlayers returns the distinct player ids with any stored snapshot,
	// sorted ascending.
	ListPlayers(ctx context.Context) ([]string, error)
}

// ParameterSetStore provides access to parameter_sets storage.
type ParameterSetStore interface {
	// Insert adds a new parameter set. Returns ErrDuplicateKey if param_set_id exists.
	Insert(ctx context.Context, p *domain.ParameterSet) error

	// GetByID retrieves a parameter set by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, paramSetID string) (*domain.ParameterSet, error)

	// List retrieves all parameter sets ordered by (name ASC, version ASC).
	List(ctx context.Context) ([]*domain.ParameterSet, error)
}

// PredictionStore provides access to predictions storage.
type PredictionStore interface {
	// Insert adds a new prediction. Returns ErrDuplicateKey if prediction_id exists.
	Insert(ctx context.Context, p *domain.Prediction) error

	// InsertBulk adds multiple predictions atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, predictions []*domain.Prediction) error

	// GetByID retrieves a prediction by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, predictionID string) (*domain.Prediction, error)

	// GetSeries retrieves predictions for one parameter set within
	// [from, to] gameweeks (inclusive), ordered by (gameweek ASC, player_id ASC).
	GetSeries(ctx context.Context, paramSetID string, from, to int) ([]*domain.Prediction, error)
}

// PredictionSeriesStore is the analytical copy of prediction series, backed
// by ClickHouse. Written in bulk after recomputation passes; read for trend
// and ranking queries that would be too heavy on the transactional store.
type PredictionSeriesStore interface {
	// InsertBulk appends a batch of predictions to the series table. Fails
	// the entire batch on duplicate prediction ids.
	InsertBulk(ctx context.Context, predictions []*domain.Prediction) error

	// GetByPlayer retrieves one player's series for a parameter set, ordered
	// by gameweek ASC.
	GetByPlayer(ctx context.Context, paramSetID, playerID string) ([]*domain.Prediction, error)

	// GetByGameweekRange retrieves predictions for one parameter set within
	// [from, to] gameweeks (inclusive), ordered by (gameweek ASC, player_id ASC).
	GetByGameweekRange(ctx context.Context, paramSetID string, from, to int) ([]*domain.Prediction, error)

	// TopByValuePerPrice retrieves the highest value-per-price predictions
	// for one gameweek, descending, capped at limit.
	TopByValuePerPrice(ctx context.Context, paramSetID string, gameweek, limit int) ([]*domain.Prediction, error)
}

// OptimizationStore provides access to optimization run storage. Entries
// are persisted independently per parameter combination, so an interrupted
// grid search resumes from whatever was already recorded.
type OptimizationStore interface {
	// InsertRun records run metadata. Returns ErrDuplicateKey if run_id exists.
	InsertRun(ctx context.Context, run *domain.OptimizationRun) error

	// InsertEntry records one combination's result. Returns ErrDuplicateKey
	// if (run_id, param_set_id) exists — callers treat that as
	// already-recorded, which makes persistence idempotent.
	InsertEntry(ctx context.Context, e *domain.OptimizationEntry) error

	// GetRun retrieves run metadata with recorded entries attached and the
	// lowest-RMSE combination designated best. Returns ErrNotFound if not
	// exists.
	GetRun(ctx context.Context, runID string) (*domain.OptimizationRun, error)

	// GetEntries retrieves all recorded entries for a run, ordered by
	// (param_set_id ASC).
	GetEntries(ctx context.Context, runID string) ([]*domain.OptimizationEntry, error)
}
