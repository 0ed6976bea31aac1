package domain

// RawSnapshot is the observed state of one player for one gameweek.
// Corresponds to the raw_snapshots table. Snapshots are append-only: a
// correction is written as a new record with a later RecordedAt, never as an
// in-place edit, so any historical window can be re-derived byte-for-byte.
type RawSnapshot struct {
	SnapshotID string   // PRIMARY KEY, deterministic hash
	PlayerID   string   // player identifier
	Gameweek   int      // scoring period, 1-based
	Position   Position // GKP | DEF | MID | FWD

	// Realized performance
	Points  float64 // fantasy points scored in the gameweek
	Minutes int     // minutes played

	// Prior baseline: points-per-game carried in from before the current
	// season. The blending weight shifts from this toward the season-to-date
	// average as gameweeks accumulate.
	PointsBaseline float64

	// Shot-creation signal
	ThreatRate         *float64 // current-period shot-creation rate (nullable)
	ThreatRateBaseline *float64 // historical baseline rate (nullable)

	// Market and fixture context
	Price             float64  // acquisition price at snapshot time
	FixtureDifficulty *float64 // signed difficulty, negative = easier (nullable)

	// Availability
	StarterStatus   StarterStatus  // imported/computed status
	StarterOverride *StarterStatus // manual override, takes precedence (nullable)

	RecordedAt int64 // record creation timestamp (ms); orders corrections
}

// PlayerHistory is one player's snapshots ordered by gameweek ascending,
// at most one logical record per gameweek (corrections already resolved).
type PlayerHistory struct {
	PlayerID  string
	Snapshots []*RawSnapshot
}

// Len returns the number of gameweek records in the history.
func (h *PlayerHistory) Len() int {
	return len(h.Snapshots)
}

// Latest returns the most recent snapshot, or nil if the history is empty.
func (h *PlayerHistory) Latest() *RawSnapshot {
	if len(h.Snapshots) == 0 {
		return nil
	}
	return h.Snapshots[len(h.Snapshots)-1]
}

// SeasonAverage returns the mean realized points across the history.
// Returns 0 for an empty history.
func (h *PlayerHistory) SeasonAverage() float64 {
	if len(h.Snapshots) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range h.Snapshots {
		sum += s.Points
	}
	return sum / float64(len(h.Snapshots))
}

// RecentPoints returns up to n realized-points observations, most recent
// first.
func (h *PlayerHistory) RecentPoints(n int) []float64 {
	if n > len(h.Snapshots) {
		n = len(h.Snapshots)
	}
	points := make([]float64, 0, n)
	for i := len(h.Snapshots) - 1; i >= len(h.Snapshots)-n; i-- {
		points = append(points, h.Snapshots[i].Points)
	}
	return points
}
