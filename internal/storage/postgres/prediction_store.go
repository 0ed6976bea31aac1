package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/storage"
)

// PredictionStore implements storage.PredictionStore using PostgreSQL.
type PredictionStore struct {
	pool *Pool
}

// NewPredictionStore creates a new Postgres-backed prediction store.
func NewPredictionStore(pool *Pool) *PredictionStore {
	return &PredictionStore{pool: pool}
}

const insertPrediction = `
	INSERT INTO predictions (
		prediction_id, player_id, gameweek, param_set_id, position,
		blended_baseline, form_multiplier, fixture_multiplier,
		starter_multiplier, ratio_multiplier,
		final_value, value_per_price, price, neutral_reasons, computed_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`

// Insert stores a prediction. Returns ErrDuplicateKey if the prediction ID
// exists: retrospective recomputation must replace whole series, not
// overwrite single rows.
func (s *PredictionStore) Insert(ctx context.Context, p *domain.Prediction) error {
	if p == nil || p.PredictionID == "" {
		return fmt.Errorf("%w: prediction missing id", storage.ErrInvalidInput)
	}

	_, err := s.pool.Exec(ctx, insertPrediction, predictionArgs(p)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: prediction %s", storage.ErrDuplicateKey, p.PredictionID)
		}
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// InsertBulk stores multiple predictions in a single transaction.
func (s *PredictionStore) InsertBulk(ctx context.Context, preds []*domain.Prediction) error {
	if len(preds) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range preds {
		if p == nil || p.PredictionID == "" {
			return fmt.Errorf("%w: prediction missing id", storage.ErrInvalidInput)
		}
		if _, err := tx.Exec(ctx, insertPrediction, predictionArgs(p)...); err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("%w: prediction %s", storage.ErrDuplicateKey, p.PredictionID)
			}
			return fmt.Errorf("insert prediction %s: %w", p.PredictionID, err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID returns the prediction with the given ID.
func (s *PredictionStore) GetByID(ctx context.Context, predictionID string) (*domain.Prediction, error) {
	query := selectPrediction + ` WHERE prediction_id = $1`

	rows, err := s.pool.Query(ctx, query, predictionID)
	if err != nil {
		return nil, fmt.Errorf("get prediction: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get prediction: %w", err)
		}
		return nil, fmt.Errorf("%w: prediction %s", storage.ErrNotFound, predictionID)
	}
	return scanPrediction(rows)
}

// GetSeries returns all predictions for a parameter set across a gameweek
// range, ordered by gameweek, then player.
func (s *PredictionStore) GetSeries(ctx context.Context, paramSetID string, fromGameweek, toGameweek int) ([]*domain.Prediction, error) {
	query := selectPrediction + `
		WHERE param_set_id = $1 AND gameweek >= $2 AND gameweek <= $3
		ORDER BY gameweek ASC, player_id ASC
	`

	rows, err := s.pool.Query(ctx, query, paramSetID, fromGameweek, toGameweek)
	if err != nil {
		return nil, fmt.Errorf("get prediction series: %w", err)
	}
	defer rows.Close()

	var preds []*domain.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate predictions: %w", err)
	}
	return preds, nil
}

const selectPrediction = `
	SELECT prediction_id, player_id, gameweek, param_set_id, position,
	       blended_baseline, form_multiplier, fixture_multiplier,
	       starter_multiplier, ratio_multiplier,
	       final_value, value_per_price, price, neutral_reasons, computed_at
	FROM predictions`

func predictionArgs(p *domain.Prediction) []any {
	return []any{
		p.PredictionID,
		p.PlayerID,
		p.Gameweek,
		p.ParamSetID,
		string(p.Position),
		p.BlendedBaseline,
		p.FormMultiplier,
		p.FixtureMultiplier,
		p.StarterMultiplier,
		p.RatioMultiplier,
		p.FinalValue,
		p.ValuePerPrice,
		p.Price,
		p.NeutralReasons,
		p.ComputedAt,
	}
}

func scanPrediction(rows pgx.Rows) (*domain.Prediction, error) {
	var (
		p        domain.Prediction
		position string
	)

	err := rows.Scan(
		&p.PredictionID,
		&p.PlayerID,
		&p.Gameweek,
		&p.ParamSetID,
		&position,
		&p.BlendedBaseline,
		&p.FormMultiplier,
		&p.FixtureMultiplier,
		&p.StarterMultiplier,
		&p.RatioMultiplier,
		&p.FinalValue,
		&p.ValuePerPrice,
		&p.Price,
		&p.NeutralReasons,
		&p.ComputedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan prediction: %w", err)
	}

	p.Position = domain.Position(position)
	return &p, nil
}

var _ storage.PredictionStore = (*PredictionStore)(nil)
