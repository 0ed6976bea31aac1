// Package ingestion imports raw snapshots from CSV exports. Rows append to
// the snapshot store; a re-imported row with the same recorded timestamp is
// skipped as a duplicate, never overwritten.
package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/idhash"
	"fantasy-value-lab/internal/observability"
	"fantasy-value-lab/internal/storage"
)

// Required CSV columns. snapshot_id is optional and derived when absent.
var requiredColumns = []string{
	"player_id", "gameweek", "position", "points", "minutes",
	"points_baseline", "price", "starter_status", "recorded_at",
}

// Loader imports snapshot CSV files into a snapshot store.
type Loader struct {
	snapshots storage.SnapshotStore
	logger    *log.Logger
}

// LoaderOptions contains configuration for creating a Loader.
type LoaderOptions struct {
	Snapshots storage.SnapshotStore
	Logger    *log.Logger
}

// NewLoader creates a new CSV snapshot loader.
func NewLoader(opts LoaderOptions) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{snapshots: opts.Snapshots, logger: logger}
}

// LoadResult contains statistics from one import.
type LoadResult struct {
	SnapshotsIngested int
	DuplicatesSkipped int
	RowsRejected      int
	Errors            []string
}

// Load reads CSV rows from r and stores them. Malformed rows are rejected
// and recorded in the result; the import continues.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*LoadResult, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	result := &LoadResult{}
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.RowsRejected++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		snapshot, err := parseRow(columns, row)
		if err != nil {
			result.RowsRejected++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			observability.DefaultMetrics.SnapshotsRejected.WithLabelValues("parse").Inc()
			continue
		}

		if err := l.snapshots.Insert(ctx, snapshot); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				result.DuplicatesSkipped++
				continue
			}
			return result, fmt.Errorf("store snapshot %s: %w", snapshot.SnapshotID, err)
		}
		result.SnapshotsIngested++
		observability.DefaultMetrics.SnapshotsIngested.Inc()
	}

	l.logger.Printf("[ingestion] imported %d snapshots (%d duplicates, %d rejected)",
		result.SnapshotsIngested, result.DuplicatesSkipped, result.RowsRejected)
	return result, nil
}

// parseRow converts one CSV row into a validated RawSnapshot.
func parseRow(columns map[string]int, row []string) (*domain.RawSnapshot, error) {
	get := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	gameweek, err := strconv.Atoi(get("gameweek"))
	if err != nil {
		return nil, fmt.Errorf("gameweek: %w", err)
	}
	if gameweek < 1 {
		return nil, fmt.Errorf("gameweek %d out of range", gameweek)
	}

	playerID := get("player_id")
	if playerID == "" {
		return nil, fmt.Errorf("player_id is empty")
	}

	position := domain.Position(get("position"))
	if !position.Valid() {
		return nil, fmt.Errorf("unknown position %q", get("position"))
	}

	status := domain.StarterStatus(get("starter_status"))
	if !status.Valid() {
		return nil, fmt.Errorf("unknown starter_status %q", get("starter_status"))
	}

	points, err := strconv.ParseFloat(get("points"), 64)
	if err != nil {
		return nil, fmt.Errorf("points: %w", err)
	}
	minutes, err := strconv.Atoi(get("minutes"))
	if err != nil {
		return nil, fmt.Errorf("minutes: %w", err)
	}
	baseline, err := strconv.ParseFloat(get("points_baseline"), 64)
	if err != nil {
		return nil, fmt.Errorf("points_baseline: %w", err)
	}
	price, err := strconv.ParseFloat(get("price"), 64)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	recordedAt, err := strconv.ParseInt(get("recorded_at"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("recorded_at: %w", err)
	}

	threatRate, err := optionalFloat(get("threat_rate"))
	if err != nil {
		return nil, fmt.Errorf("threat_rate: %w", err)
	}
	threatBaseline, err := optionalFloat(get("threat_rate_baseline"))
	if err != nil {
		return nil, fmt.Errorf("threat_rate_baseline: %w", err)
	}
	difficulty, err := optionalFloat(get("fixture_difficulty"))
	if err != nil {
		return nil, fmt.Errorf("fixture_difficulty: %w", err)
	}

	var override *domain.StarterStatus
	if raw := get("starter_override"); raw != "" {
		s := domain.StarterStatus(raw)
		if !s.Valid() {
			return nil, fmt.Errorf("unknown starter_override %q", raw)
		}
		override = &s
	}

	snapshotID := get("snapshot_id")
	if snapshotID == "" {
		snapshotID = idhash.ComputeSnapshotID(playerID, gameweek, recordedAt)
	}

	return &domain.RawSnapshot{
		SnapshotID:         snapshotID,
		PlayerID:           playerID,
		Gameweek:           gameweek,
		Position:           position,
		Points:             points,
		Minutes:            minutes,
		PointsBaseline:     baseline,
		ThreatRate:         threatRate,
		ThreatRateBaseline: threatBaseline,
		Price:              price,
		FixtureDifficulty:  difficulty,
		StarterStatus:      status,
		StarterOverride:    override,
		RecordedAt:         recordedAt,
	}, nil
}

func optionalFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
