package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputePredictionID computes a deterministic prediction_id using SHA256.
// Formula: SHA256(player_id|gameweek|param_set_id)
// Returns hex-encoded hash (64 characters).
func ComputePredictionID(playerID string, gameweek int, paramSetID string) string {
	data := fmt.Sprintf("%s|%d|%s", playerID, gameweek, paramSetID)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeSnapshotID computes a deterministic snapshot_id using SHA256.
// Formula: SHA256(player_id|gameweek|recorded_at)
// RecordedAt participates so a correction gets its own logical record.
func ComputeSnapshotID(playerID string, gameweek int, recordedAt int64) string {
	data := fmt.Sprintf("%s|%d|%d", playerID, gameweek, recordedAt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
