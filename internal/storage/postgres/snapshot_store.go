package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new Postgres-backed snapshot store.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Insert stores a raw snapshot. Returns ErrDuplicateKey if the snapshot ID exists.
func (s *SnapshotStore) Insert(ctx context.Context, snap *domain.RawSnapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: snapshot is nil", storage.ErrInvalidInput)
	}
	if snap.SnapshotID == "" {
		return fmt.Errorf("%w: snapshot_id is empty", storage.ErrInvalidInput)
	}

	query := `
		INSERT INTO raw_snapshots (
			snapshot_id, player_id, gameweek, position, points, minutes,
			points_baseline, threat_rate, threat_rate_baseline, price,
			fixture_difficulty, starter_status, starter_override, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := s.pool.Exec(ctx, query,
		snap.SnapshotID,
		snap.PlayerID,
		snap.Gameweek,
		string(snap.Position),
		snap.Points,
		snap.Minutes,
		snap.PointsBaseline,
		snap.ThreatRate,
		snap.ThreatRateBaseline,
		snap.Price,
		snap.FixtureDifficulty,
		string(snap.StarterStatus),
		starterOverrideValue(snap.StarterOverride),
		snap.RecordedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: snapshot %s", storage.ErrDuplicateKey, snap.SnapshotID)
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// InsertBulk stores multiple snapshots in a single transaction.
// The whole batch is rolled back on the first failure.
func (s *SnapshotStore) InsertBulk(ctx context.Context, snaps []*domain.RawSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO raw_snapshots (
			snapshot_id, player_id, gameweek, position, points, minutes,
			points_baseline, threat_rate, threat_rate_baseline, price,
			fixture_difficulty, starter_status, starter_override, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	for _, snap := range snaps {
		if snap == nil || snap.SnapshotID == "" {
			return fmt.Errorf("%w: snapshot missing id", storage.ErrInvalidInput)
		}
		_, err := tx.Exec(ctx, query,
			snap.SnapshotID,
			snap.PlayerID,
			snap.Gameweek,
			string(snap.Position),
			snap.Points,
			snap.Minutes,
			snap.PointsBaseline,
			snap.ThreatRate,
			snap.ThreatRateBaseline,
			snap.Price,
			snap.FixtureDifficulty,
			string(snap.StarterStatus),
			starterOverrideValue(snap.StarterOverride),
			snap.RecordedAt,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("%w: snapshot %s", storage.ErrDuplicateKey, snap.SnapshotID)
			}
			return fmt.Errorf("insert snapshot %s: %w", snap.SnapshotID, err)
		}
	}

	return tx.Commit(ctx)
}

// GetByPlayer returns all snapshots for a player ordered by gameweek, then recorded_at.
func (s *SnapshotStore) GetByPlayer(ctx context.Context, playerID string) ([]*domain.RawSnapshot, error) {
	query := `
		SELECT snapshot_id, player_id, gameweek, position, points, minutes,
		       points_baseline, threat_rate, threat_rate_baseline, price,
		       fixture_difficulty, starter_status, starter_override, recorded_at
		FROM raw_snapshots
		WHERE player_id = $1
		ORDER BY gameweek ASC, recorded_at ASC, snapshot_id ASC
	`
	return s.querySnapshots(ctx, query, playerID)
}

// GetByPlayerAsOf returns a player's snapshots up to and including the given
// gameweek. Later gameweeks are excluded at the query level so callers cannot
// observe them.
func (s *SnapshotStore) GetByPlayerAsOf(ctx context.Context, playerID string, asOfGameweek int) ([]*domain.RawSnapshot, error) {
	query := `
		SELECT snapshot_id, player_id, gameweek, position, points, minutes,
		       points_baseline, threat_rate, threat_rate_baseline, price,
		       fixture_difficulty, starter_status, starter_override, recorded_at
		FROM raw_snapshots
		WHERE player_id = $1 AND gameweek <= $2
		ORDER BY gameweek ASC, recorded_at ASC, snapshot_id ASC
	`
	return s.querySnapshots(ctx, query, playerID, asOfGameweek)
}

// GetRealizedPoints returns the realized points for a player in a gameweek,
// or (nil, nil) when no snapshot for that gameweek exists. When corrections
// were recorded, the latest recording wins.
func (s *SnapshotStore) GetRealizedPoints(ctx context.Context, playerID string, gameweek int) (*float64, error) {
	query := `
		SELECT points
		FROM raw_snapshots
		WHERE player_id = $1 AND gameweek = $2
		ORDER BY recorded_at DESC, snapshot_id DESC
		LIMIT 1
	`

	var points float64
	err := s.pool.QueryRow(ctx, query, playerID, gameweek).Scan(&points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get realized points: %w", err)
	}
	return &points, nil
}

// ListPlayers returns the distinct player IDs present in the store, sorted.
func (s *SnapshotStore) ListPlayers(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT player_id FROM raw_snapshots ORDER BY player_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan player id: %w", err)
		}
		players = append(players, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}

func (s *SnapshotStore) querySnapshots(ctx context.Context, query string, args ...any) ([]*domain.RawSnapshot, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.RawSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}

func scanSnapshot(rows pgx.Rows) (*domain.RawSnapshot, error) {
	var (
		snap            domain.RawSnapshot
		position        string
		starterStatus   string
		starterOverride *string
	)

	err := rows.Scan(
		&snap.SnapshotID,
		&snap.PlayerID,
		&snap.Gameweek,
		&position,
		&snap.Points,
		&snap.Minutes,
		&snap.PointsBaseline,
		&snap.ThreatRate,
		&snap.ThreatRateBaseline,
		&snap.Price,
		&snap.FixtureDifficulty,
		&starterStatus,
		&starterOverride,
		&snap.RecordedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}

	snap.Position = domain.Position(position)
	snap.StarterStatus = domain.StarterStatus(starterStatus)
	if starterOverride != nil {
		override := domain.StarterStatus(*starterOverride)
		snap.StarterOverride = &override
	}
	return &snap, nil
}

func starterOverrideValue(override *domain.StarterStatus) *string {
	if override == nil {
		return nil
	}
	s := string(*override)
	return &s
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
