package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/storage"
)

func testSnapshot(id, playerID string, gw int, points float64, recordedAt int64) *domain.RawSnapshot {
	return &domain.RawSnapshot{
		SnapshotID:    id,
		PlayerID:      playerID,
		Gameweek:      gw,
		Position:      domain.PositionMidfielder,
		Points:        points,
		Minutes:       90,
		Price:         8.0,
		StarterStatus: domain.StarterConfirmed,
		RecordedAt:    recordedAt,
	}
}

func TestSnapshotStore_InsertAndGetByPlayer(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testSnapshot("s2", "player-1", 2, 6, 200)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, testSnapshot("s1", "player-1", 1, 4, 100)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, testSnapshot("s3", "player-2", 1, 9, 100)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByPlayer(ctx, "player-1")
	if err != nil {
		t.Fatalf("GetByPlayer failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(got))
	}
	if got[0].Gameweek != 1 || got[1].Gameweek != 2 {
		t.Errorf("expected gameweek ASC ordering, got %d then %d", got[0].Gameweek, got[1].Gameweek)
	}
}

func TestSnapshotStore_DuplicateKey(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	s := testSnapshot("s1", "player-1", 1, 4, 100)
	if err := store.Insert(ctx, s); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	err := store.Insert(ctx, s)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestSnapshotStore_InsertBulkAtomic(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	batch := []*domain.RawSnapshot{
		testSnapshot("s1", "player-1", 1, 4, 100),
		testSnapshot("s1", "player-1", 2, 6, 200), // intra-batch duplicate id
	}
	err := store.InsertBulk(ctx, batch)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	// Nothing from the failed batch may land.
	got, err := store.GetByPlayer(ctx, "player-1")
	if err != nil {
		t.Fatalf("GetByPlayer failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("failed batch must insert nothing, got %d records", len(got))
	}
}

func TestSnapshotStore_GetByPlayerAsOf_NoLookahead(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	for gw := 1; gw <= 6; gw++ {
		s := testSnapshot("s"+string(rune('0'+gw)), "player-1", gw, float64(gw), int64(gw)*100)
		if err := store.Insert(ctx, s); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetByPlayerAsOf(ctx, "player-1", 4)
	if err != nil {
		t.Fatalf("GetByPlayerAsOf failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 snapshots as of gameweek 4, got %d", len(got))
	}
	for _, s := range got {
		if s.Gameweek > 4 {
			t.Errorf("lookahead: gameweek %d returned for asOf=4", s.Gameweek)
		}
	}
}

func TestSnapshotStore_GetRealizedPoints_CorrectionWins(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testSnapshot("orig", "player-1", 3, 2, 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, testSnapshot("fix", "player-1", 3, 5, 2000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	points, err := store.GetRealizedPoints(ctx, "player-1", 3)
	if err != nil {
		t.Fatalf("GetRealizedPoints failed: %v", err)
	}
	if points == nil || *points != 5 {
		t.Errorf("expected corrected points 5, got %v", points)
	}
}

func TestSnapshotStore_GetRealizedPoints_AbsentIsNil(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	points, err := store.GetRealizedPoints(ctx, "player-1", 1)
	if err != nil {
		t.Fatalf("GetRealizedPoints failed: %v", err)
	}
	if points != nil {
		t.Errorf("absent outcome must be nil, not %v", *points)
	}
}

func TestSnapshotStore_ListPlayers(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	for _, s := range []*domain.RawSnapshot{
		testSnapshot("s1", "player-b", 1, 4, 100),
		testSnapshot("s2", "player-a", 1, 6, 100),
		testSnapshot("s3", "player-a", 2, 3, 200),
	} {
		if err := store.Insert(ctx, s); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	players, err := store.ListPlayers(ctx)
	if err != nil {
		t.Fatalf("ListPlayers failed: %v", err)
	}
	if len(players) != 2 || players[0] != "player-a" || players[1] != "player-b" {
		t.Errorf("expected sorted distinct players, got %v", players)
	}
}

func TestSnapshotStore_InsertIsolatesCaller(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	s := testSnapshot("s1", "player-1", 1, 4, 100)
	if err := store.Insert(ctx, s); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	s.Points = 99 // caller mutation must not reach the store

	got, err := store.GetByPlayer(ctx, "player-1")
	if err != nil {
		t.Fatalf("GetByPlayer failed: %v", err)
	}
	if got[0].Points != 4 {
		t.Errorf("store leaked caller mutation: points %v", got[0].Points)
	}
}

func TestSnapshotStore_ConcurrentInserts(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "snap-" + string(rune('a'+i%26)) + string(rune('0'+i/26))
			_ = store.Insert(ctx, testSnapshot(id, "player-1", i+1, 1, int64(i)))
		}(i)
	}
	wg.Wait()

	got, err := store.GetByPlayer(ctx, "player-1")
	if err != nil {
		t.Fatalf("GetByPlayer failed: %v", err)
	}
	if len(got) != 50 {
		t.Errorf("expected 50 snapshots, got %d", len(got))
	}
}
