// Package trend recomputes prediction series retrospectively. It reads raw
// snapshots, assembles per-player histories with corrections resolved, and
// evaluates the scoring formula for every requested (player, gameweek,
// parameter set) triple. Recomputing any window yields the same output as the
// original pass over the same records.
package trend

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/formula"
	"fantasy-value-lab/internal/history"
	"fantasy-value-lab/internal/storage"
)

// Engine computes retrospective prediction series from stored snapshots.
type Engine struct {
	snapshots storage.SnapshotStore
	workers   int
}

// NewEngine creates a new trend engine. workers limits the number of players
// evaluated concurrently; zero or negative means one worker per CPU.
func NewEngine(snapshots storage.SnapshotStore, workers int) *Engine {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{snapshots: snapshots, workers: workers}
}

// ComputeSeries evaluates params for every listed player across gameweeks
// [from, to] inclusive. Results are ordered by (gameweek ASC, player_id ASC)
// regardless of worker scheduling. Players whose history is empty for a
// gameweek still yield a well-formed prediction.
func (e *Engine) ComputeSeries(ctx context.Context, params *domain.ParameterSet, playerIDs []string, from, to int) ([]*domain.Prediction, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if from < 1 || to < from {
		return nil, fmt.Errorf("%w: gameweek range [%d, %d]", storage.ErrInvalidInput, from, to)
	}

	perPlayer := make([][]*domain.Prediction, len(playerIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, playerID := range playerIDs {
		g.Go(func() error {
			preds, err := e.computePlayer(gctx, params, playerID, from, to)
			if err != nil {
				return fmt.Errorf("player %s: %w", playerID, err)
			}
			perPlayer[i] = preds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var results []*domain.Prediction
	for _, preds := range perPlayer {
		results = append(results, preds...)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Gameweek != results[j].Gameweek {
			return results[i].Gameweek < results[j].Gameweek
		}
		return results[i].PlayerID < results[j].PlayerID
	})
	return results, nil
}

// ComputeAll evaluates params for every player in the store.
func (e *Engine) ComputeAll(ctx context.Context, params *domain.ParameterSet, from, to int) ([]*domain.Prediction, error) {
	players, err := e.snapshots.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return e.ComputeSeries(ctx, params, players, from, to)
}

// computePlayer loads one player's records up to the window end, then
// evaluates each gameweek over the as-of slice of the assembled history.
func (e *Engine) computePlayer(ctx context.Context, params *domain.ParameterSet, playerID string, from, to int) ([]*domain.Prediction, error) {
	records, err := e.snapshots.GetByPlayerAsOf(ctx, playerID, to)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}

	full := history.Build(playerID, records)
	if err := history.VerifyOrdering(full); err != nil {
		return nil, err
	}

	preds := make([]*domain.Prediction, 0, to-from+1)
	for gw := from; gw <= to; gw++ {
		pred, err := formula.Evaluate(history.AsOf(full, gw), params, gw)
		if err != nil {
			return nil, fmt.Errorf("gameweek %d: %w", gw, err)
		}
		preds = append(preds, pred)
	}
	return preds, nil
}
