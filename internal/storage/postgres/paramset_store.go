package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/storage"
)

// ParameterSetStore implements storage.ParameterSetStore using PostgreSQL.
//
// The scalar knobs live in explicit columns so they can be filtered in SQL;
// the per-position maps are stored as JSONB.
type ParameterSetStore struct {
	pool *Pool
}

// NewParameterSetStore creates a new Postgres-backed parameter set store.
func NewParameterSetStore(pool *Pool) *ParameterSetStore {
	return &ParameterSetStore{pool: pool}
}

// Insert stores a parameter set. The set is validated before writing so the
// table only ever holds evaluable configurations.
func (s *ParameterSetStore) Insert(ctx context.Context, p *domain.ParameterSet) error {
	if p == nil {
		return fmt.Errorf("%w: parameter set is nil", storage.ErrInvalidInput)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO parameter_sets (
			param_set_id, name, version,
			alpha, lookback_window, adaptation_horizon, baseline_floor,
			form_bound_min, form_bound_max,
			fixture_bound_min, fixture_bound_max,
			ratio_bound_min, ratio_bound_max,
			global_cap,
			fixture_strategy, fixture_base, fixture_weights,
			ratio_impact, ratio_min_baseline,
			form_strategy, rotation_penalty, bench_penalty, price_floor
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23
		)
	`

	_, err := s.pool.Exec(ctx, query,
		p.ParamSetID,
		p.Name,
		p.Version,
		p.Alpha,
		p.LookbackWindow,
		p.AdaptationHorizon,
		p.BaselineFloor,
		p.FormBound.Min,
		p.FormBound.Max,
		p.FixtureBound.Min,
		p.FixtureBound.Max,
		p.RatioBound.Min,
		p.RatioBound.Max,
		p.GlobalCap,
		p.FixtureStrategy,
		p.FixtureBase,
		p.FixtureWeights,
		p.RatioImpact,
		p.RatioMinBaseline,
		p.FormStrategy,
		p.RotationPenalty,
		p.BenchPenalty,
		p.PriceFloor,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: parameter set %s", storage.ErrDuplicateKey, p.ParamSetID)
		}
		return fmt.Errorf("insert parameter set: %w", err)
	}
	return nil
}

// GetByID returns the parameter set with the given ID.
func (s *ParameterSetStore) GetByID(ctx context.Context, paramSetID string) (*domain.ParameterSet, error) {
	query := selectParameterSet + ` WHERE param_set_id = $1`

	rows, err := s.pool.Query(ctx, query, paramSetID)
	if err != nil {
		return nil, fmt.Errorf("get parameter set: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get parameter set: %w", err)
		}
		return nil, fmt.Errorf("%w: parameter set %s", storage.ErrNotFound, paramSetID)
	}
	return scanParameterSet(rows)
}

// List returns all stored parameter sets ordered by (name ASC, version ASC).
func (s *ParameterSetStore) List(ctx context.Context) ([]*domain.ParameterSet, error) {
	query := selectParameterSet + ` ORDER BY name ASC, version ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list parameter sets: %w", err)
	}
	defer rows.Close()

	var sets []*domain.ParameterSet
	for rows.Next() {
		p, err := scanParameterSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parameter sets: %w", err)
	}
	return sets, nil
}

const selectParameterSet = `
	SELECT param_set_id, name, version,
	       alpha, lookback_window, adaptation_horizon, baseline_floor,
	       form_bound_min, form_bound_max,
	       fixture_bound_min, fixture_bound_max,
	       ratio_bound_min, ratio_bound_max,
	       global_cap,
	       fixture_strategy, fixture_base, fixture_weights,
	       ratio_impact, ratio_min_baseline,
	       form_strategy, rotation_penalty, bench_penalty, price_floor
	FROM parameter_sets`

func scanParameterSet(rows pgx.Rows) (*domain.ParameterSet, error) {
	var p domain.ParameterSet

	err := rows.Scan(
		&p.ParamSetID,
		&p.Name,
		&p.Version,
		&p.Alpha,
		&p.LookbackWindow,
		&p.AdaptationHorizon,
		&p.BaselineFloor,
		&p.FormBound.Min,
		&p.FormBound.Max,
		&p.FixtureBound.Min,
		&p.FixtureBound.Max,
		&p.RatioBound.Min,
		&p.RatioBound.Max,
		&p.GlobalCap,
		&p.FixtureStrategy,
		&p.FixtureBase,
		&p.FixtureWeights,
		&p.RatioImpact,
		&p.RatioMinBaseline,
		&p.FormStrategy,
		&p.RotationPenalty,
		&p.BenchPenalty,
		&p.PriceFloor,
	)
	if err != nil {
		return nil, fmt.Errorf("scan parameter set: %w", err)
	}
	return &p, nil
}

var _ storage.ParameterSetStore = (*ParameterSetStore)(nil)
