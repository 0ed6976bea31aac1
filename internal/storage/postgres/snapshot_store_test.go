package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/storage"
)

func createTestSnapshot(snapshotID, playerID string, gameweek int) *domain.RawSnapshot {
	return &domain.RawSnapshot{
		SnapshotID:         snapshotID,
		PlayerID:           playerID,
		Gameweek:           gameweek,
		Position:           domain.PositionMidfielder,
		Points:             6.0,
		Minutes:            90,
		PointsBaseline:     5.2,
		ThreatRate:         ptr(0.45),
		ThreatRateBaseline: ptr(0.40),
		Price:              8.5,
		FixtureDifficulty:  ptr(-1.0),
		StarterStatus:      domain.StarterConfirmed,
		RecordedAt:         1756000000000,
	}
}

func TestSnapshotStore_InsertAndGetByPlayer(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSnapshotStore(pool)

	snap := createTestSnapshot("snap-001", "player-1", 3)
	snap.StarterOverride = ptr(domain.StarterBench)

	require.NoError(t, store.Insert(ctx, snap))

	retrieved, err := store.GetByPlayer(ctx, "player-1")
	require.NoError(t, err)
	require.Len(t, retrieved, 1)

	got := retrieved[0]
	assert.Equal(t, snap.SnapshotID, got.SnapshotID)
	assert.Equal(t, snap.PlayerID, got.PlayerID)
	assert.Equal(t, snap.Gameweek, got.Gameweek)
	assert.Equal(t, snap.Position, got.Position)
	assert.InDelta(t, snap.Points, got.Points, 0.0001)
	assert.Equal(t, snap.Minutes, got.Minutes)
	assert.InDelta(t, snap.PointsBaseline, got.PointsBaseline, 0.0001)
	require.NotNil(t, got.ThreatRate)
	assert.InDelta(t, *snap.ThreatRate, *got.ThreatRate, 0.0001)
	require.NotNil(t, got.FixtureDifficulty)
	assert.InDelta(t, *snap.FixtureDifficulty, *got.FixtureDifficulty, 0.0001)
	assert.Equal(t, snap.StarterStatus, got.StarterStatus)
	require.NotNil(t, got.StarterOverride)
	assert.Equal(t, domain.StarterBench, *got.StarterOverride)
	assert.Equal(t, snap.RecordedAt, got.RecordedAt)
}

func TestSnapshotStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSnapshotStore(pool)

	snap := createTestSnapshot("snap-dup", "player-1", 1)
	require.NoError(t, store.Insert(ctx, snap))

	err := store.Insert(ctx, snap)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSnapshotStore_InsertBulkAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSnapshotStore(pool)

	require.NoError(t, store.Insert(ctx, createTestSnapshot("snap-existing", "player-1", 1)))

	batch := []*domain.RawSnapshot{
		createTestSnapshot("snap-new-1", "player-1", 2),
		createTestSnapshot("snap-existing", "player-1", 3), // collides
		createTestSnapshot("snap-new-2", "player-1", 4),
	}
	err := store.InsertBulk(ctx, batch)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Nothing from the failed batch was committed
	snaps, err := store.GetByPlayer(ctx, "player-1")
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestSnapshotStore_GetByPlayerAsOf(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSnapshotStore(pool)

	for gw := 1; gw <= 6; gw++ {
		snap := createTestSnapshot(fmt.Sprintf("snap-gw-%d", gw), "player-1", gw)
		require.NoError(t, store.Insert(ctx, snap))
	}

	snaps, err := store.GetByPlayerAsOf(ctx, "player-1", 4)
	require.NoError(t, err)
	require.Len(t, snaps, 4)
	for i, s := range snaps {
		assert.Equal(t, i+1, s.Gameweek)
	}
}

func TestSnapshotStore_GetRealizedPoints(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSnapshotStore(pool)

	snap := createTestSnapshot("snap-rp-1", "player-1", 7)
	snap.Points = 9.0
	require.NoError(t, store.Insert(ctx, snap))

	points, err := store.GetRealizedPoints(ctx, "player-1", 7)
	require.NoError(t, err)
	require.NotNil(t, points)
	assert.InDelta(t, 9.0, *points, 0.0001)

	// Absent gameweek yields (nil, nil), not an error
	points, err = store.GetRealizedPoints(ctx, "player-1", 20)
	require.NoError(t, err)
	assert.Nil(t, points)
}

func TestSnapshotStore_GetRealizedPoints_CorrectionWins(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSnapshotStore(pool)

	original := createTestSnapshot("snap-orig", "player-1", 5)
	original.Points = 4.0
	require.NoError(t, store.Insert(ctx, original))

	correction := createTestSnapshot("snap-corr", "player-1", 5)
	correction.Points = 6.0
	correction.RecordedAt = original.RecordedAt + 7200000
	require.NoError(t, store.Insert(ctx, correction))

	points, err := store.GetRealizedPoints(ctx, "player-1", 5)
	require.NoError(t, err)
	require.NotNil(t, points)
	assert.InDelta(t, 6.0, *points, 0.0001)
}

func TestSnapshotStore_ListPlayers(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSnapshotStore(pool)

	require.NoError(t, store.Insert(ctx, createTestSnapshot("snap-b", "player-b", 1)))
	require.NoError(t, store.Insert(ctx, createTestSnapshot("snap-a", "player-a", 1)))
	require.NoError(t, store.Insert(ctx, createTestSnapshot("snap-a2", "player-a", 2)))

	players, err := store.ListPlayers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"player-a", "player-b"}, players)
}
