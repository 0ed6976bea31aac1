// Package history assembles PlayerHistory views from raw snapshots. Raw
// snapshots are append-only, so assembling the same window always yields the
// same history; corrections resolve to the latest logical record per
// gameweek.
package history

import (
	"fmt"
	"sort"

	"fantasy-value-lab/internal/domain"
)

// Build assembles an ordered PlayerHistory from raw snapshot records.
// Records may arrive in any order and may contain corrections (multiple
// records for one gameweek); the record with the highest RecordedAt wins.
// RecordedAt ties break on SnapshotID so resolution stays deterministic.
func Build(playerID string, snapshots []*domain.RawSnapshot) *domain.PlayerHistory {
	byGameweek := make(map[int]*domain.RawSnapshot)
	for _, s := range snapshots {
		if s == nil || s.PlayerID != playerID {
			continue
		}
		current, exists := byGameweek[s.Gameweek]
		if !exists || laterRecord(s, current) {
			byGameweek[s.Gameweek] = s
		}
	}

	resolved := make([]*domain.RawSnapshot, 0, len(byGameweek))
	for _, s := range byGameweek {
		resolved = append(resolved, s)
	}
	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].Gameweek < resolved[j].Gameweek
	})

	return &domain.PlayerHistory{PlayerID: playerID, Snapshots: resolved}
}

// AsOf returns the slice of h visible as of the given gameweek: snapshots
// with gameweek <= asOf only. The result shares snapshot pointers with h;
// snapshots are immutable so this is safe.
func AsOf(h *domain.PlayerHistory, asOf int) *domain.PlayerHistory {
	cut := sort.Search(len(h.Snapshots), func(i int) bool {
		return h.Snapshots[i].Gameweek > asOf
	})
	return &domain.PlayerHistory{PlayerID: h.PlayerID, Snapshots: h.Snapshots[:cut]}
}

// VerifyOrdering checks that h is strictly ascending by gameweek with no
// duplicates. A violation here is a programming error in assembly, reported
// as a lookahead-class contract failure.
func VerifyOrdering(h *domain.PlayerHistory) error {
	prev := 0
	for _, s := range h.Snapshots {
		if s.Gameweek <= prev {
			return fmt.Errorf("%w: history for %s not strictly ascending at gameweek %d",
				domain.ErrLookaheadViolation, h.PlayerID, s.Gameweek)
		}
		prev = s.Gameweek
	}
	return nil
}

// laterRecord reports whether a supersedes b as the logical record for a
// gameweek.
func laterRecord(a, b *domain.RawSnapshot) bool {
	if a.RecordedAt != b.RecordedAt {
		return a.RecordedAt > b.RecordedAt
	}
	return a.SnapshotID > b.SnapshotID
}
