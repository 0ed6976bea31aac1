package clickhouse

import (
	"context"
	"fmt"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/storage"
)

// PredictionSeriesStore implements storage.PredictionSeriesStore using ClickHouse.
type PredictionSeriesStore struct {
	conn *Conn
}

// NewPredictionSeriesStore creates a new PredictionSeriesStore.
func NewPredictionSeriesStore(conn *Conn) *PredictionSeriesStore {
	return &PredictionSeriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PredictionSeriesStore = (*PredictionSeriesStore)(nil)

// InsertBulk appends a batch of predictions. Fails the entire batch on
// duplicate prediction ids, either within the batch or against stored rows.
func (s *PredictionSeriesStore) InsertBulk(ctx context.Context, predictions []*domain.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(predictions))
	for _, p := range predictions {
		if _, exists := seen[p.PredictionID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[p.PredictionID] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, p := range predictions {
		exists, err := s.exists(ctx, p.PredictionID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO prediction_series (
			prediction_id, player_id, gameweek, param_set_id, position,
			blended_baseline, form_multiplier, fixture_multiplier,
			starter_multiplier, ratio_multiplier,
			final_value, value_per_price, price, neutral_reasons, computed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range predictions {
		err = batch.Append(
			p.PredictionID, p.PlayerID, int32(p.Gameweek), p.ParamSetID,
			string(p.Position),
			p.BlendedBaseline, p.FormMultiplier, p.FixtureMultiplier,
			p.StarterMultiplier, p.RatioMultiplier,
			p.FinalValue, p.ValuePerPrice, p.Price,
			p.NeutralReasons, p.ComputedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPlayer retrieves one player's series for a parameter set, ordered by gameweek ASC.
func (s *PredictionSeriesStore) GetByPlayer(ctx context.Context, paramSetID, playerID string) ([]*domain.Prediction, error) {
	query := selectSeries + `
		WHERE param_set_id = ? AND player_id = ?
		ORDER BY gameweek ASC
	`

	rows, err := s.conn.Query(ctx, query, paramSetID, playerID)
	if err != nil {
		return nil, fmt.Errorf("query by player: %w", err)
	}
	defer rows.Close()

	return scanPredictionSeries(rows)
}

// GetByGameweekRange retrieves predictions within [from, to] (inclusive).
func (s *PredictionSeriesStore) GetByGameweekRange(ctx context.Context, paramSetID string, from, to int) ([]*domain.Prediction, error) {
	query := selectSeries + `
		WHERE param_set_id = ? AND gameweek >= ? AND gameweek <= ?
		ORDER BY gameweek ASC, player_id ASC
	`

	rows, err := s.conn.Query(ctx, query, paramSetID, int32(from), int32(to))
	if err != nil {
		return nil, fmt.Errorf("query by gameweek range: %w", err)
	}
	defer rows.Close()

	return scanPredictionSeries(rows)
}

// TopByValuePerPrice retrieves the best value-per-price rows for one gameweek.
func (s *PredictionSeriesStore) TopByValuePerPrice(ctx context.Context, paramSetID string, gameweek, limit int) ([]*domain.Prediction, error) {
	query := selectSeries + `
		WHERE param_set_id = ? AND gameweek = ?
		ORDER BY value_per_price DESC, player_id ASC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, paramSetID, int32(gameweek), uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("query top by value per price: %w", err)
	}
	defer rows.Close()

	return scanPredictionSeries(rows)
}

// exists checks if a prediction with the given id exists.
func (s *PredictionSeriesStore) exists(ctx context.Context, predictionID string) (bool, error) {
	query := `
		SELECT count(*) FROM prediction_series
		WHERE prediction_id = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, predictionID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

const selectSeries = `
	SELECT prediction_id, player_id, gameweek, param_set_id, position,
	       blended_baseline, form_multiplier, fixture_multiplier,
	       starter_multiplier, ratio_multiplier,
	       final_value, value_per_price, price, neutral_reasons, computed_at
	FROM prediction_series`

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanPredictionSeries scans multiple rows into a slice.
func scanPredictionSeries(rows chRows) ([]*domain.Prediction, error) {
	var predictions []*domain.Prediction

	for rows.Next() {
		var (
			p        domain.Prediction
			gameweek int32
			position string
		)

		err := rows.Scan(
			&p.PredictionID, &p.PlayerID, &gameweek, &p.ParamSetID, &position,
			&p.BlendedBaseline, &p.FormMultiplier, &p.FixtureMultiplier,
			&p.StarterMultiplier, &p.RatioMultiplier,
			&p.FinalValue, &p.ValuePerPrice, &p.Price,
			&p.NeutralReasons, &p.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan prediction series row: %w", err)
		}

		p.Gameweek = int(gameweek)
		p.Position = domain.Position(position)
		predictions = append(predictions, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prediction series rows: %w", err)
	}

	return predictions, nil
}
