package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeRunID computes a deterministic optimization run_id using SHA256.
// Formula: SHA256(train_from|train_to|test_gameweek|seed)
// Re-running an interrupted grid search over the same window and seed maps
// to the same run, which is what makes per-entry persistence idempotent.
func ComputeRunID(trainFrom, trainTo, testGameweek int, seed int64) string {
	data := fmt.Sprintf("%d|%d|%d|%d", trainFrom, trainTo, testGameweek, seed)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeParamSetID computes a deterministic param_set_id using SHA256.
// Formula: SHA256(name|version|canonical record serialization)
// Returns hex-encoded hash (64 characters).
func ComputeParamSetID(name string, version int, canonical string) string {
	data := fmt.Sprintf("%s|%d|%s", name, version, canonical)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
