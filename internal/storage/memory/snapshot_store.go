package memory

import (
	"context"
	"sort"
	"sync"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RawSnapshot // keyed by snapshot_id
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string]*domain.RawSnapshot),
	}
}

// Insert adds a new snapshot. Returns ErrDuplicateKey if snapshot_id exists.
func (s *SnapshotStore) Insert(_ context.Context, snap *domain.RawSnapshot) error {
	if snap == nil || snap.SnapshotID == "" || snap.PlayerID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[snap.SnapshotID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *snap
	s.data[snap.SnapshotID] = &copy
	return nil
}

// InsertBulk adds multiple snapshots atomically. Fails entire batch on any duplicate.
func (s *SnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.RawSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(snapshots))
	for _, snap := range snapshots {
		if snap == nil || snap.SnapshotID == "" || snap.PlayerID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[snap.SnapshotID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[snap.SnapshotID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[snap.SnapshotID] = struct{}{}
	}

	for _, snap := range snapshots {
		copy := *snap
		s.data[snap.SnapshotID] = &copy
	}
	return nil
}

// GetByPlayer retrieves all records for a player, corrections included,
// ordered by (gameweek ASC, recorded_at ASC).
func (s *SnapshotStore) GetByPlayer(_ context.Context, playerID string) ([]*domain.RawSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(playerID, func(*domain.RawSnapshot) bool { return true }), nil
}

// GetByPlayerAsOf retrieves records with gameweek <= asOf only.
func (s *SnapshotStore) GetByPlayerAsOf(_ context.Context, playerID string, asOf int) ([]*domain.RawSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(playerID, func(snap *domain.RawSnapshot) bool {
		return snap.Gameweek <= asOf
	}), nil
}

// GetRealizedPoints returns the realized outcome after correction
// resolution, or (nil, nil) when the player-gameweek pair is absent.
func (s *SnapshotStore) GetRealizedPoints(_ context.Context, playerID string, gameweek int) (*float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.RawSnapshot
	for _, snap := range s.data {
		if snap.PlayerID != playerID || snap.Gameweek != gameweek {
			continue
		}
		if latest == nil || snap.RecordedAt > latest.RecordedAt ||
			(snap.RecordedAt == latest.RecordedAt && snap.SnapshotID > latest.SnapshotID) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, nil
	}
	points := latest.Points
	return &points, nil
}

// ListPlayers returns the distinct player ids with any stored snapshot.
func (s *SnapshotStore) ListPlayers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, snap := range s.data {
		seen[snap.PlayerID] = struct{}{}
	}
	players := make([]string, 0, len(seen))
	for id := range seen {
		players = append(players, id)
	}
	sort.Strings(players)
	return players, nil
}

// collect returns copies of matching snapshots in deterministic order.
func (s *SnapshotStore) collect(playerID string, keep func(*domain.RawSnapshot) bool) []*domain.RawSnapshot {
	var result []*domain.RawSnapshot
	for _, snap := range s.data {
		if snap.PlayerID == playerID && keep(snap) {
			copy := *snap
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Gameweek != result[j].Gameweek {
			return result[i].Gameweek < result[j].Gameweek
		}
		return result[i].RecordedAt < result[j].RecordedAt
	})
	return result
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
