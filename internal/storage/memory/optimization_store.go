package memory

import (
	"context"
	"sort"
	"sync"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/storage"
)

// OptimizationStore is an in-memory implementation of storage.OptimizationStore.
type OptimizationStore struct {
	mu      sync.RWMutex
	runs    map[string]*domain.OptimizationRun              // keyed by run_id
	entries map[string]map[string]*domain.OptimizationEntry // run_id -> param_set_id -> entry
}

// NewOptimizationStore creates a new in-memory optimization store.
func NewOptimizationStore() *OptimizationStore {
	return &OptimizationStore{
		runs:    make(map[string]*domain.OptimizationRun),
		entries: make(map[string]map[string]*domain.OptimizationEntry),
	}
}

// InsertRun records run metadata. Returns ErrDuplicateKey if run_id exists.
func (s *OptimizationStore) InsertRun(_ context.Context, run *domain.OptimizationRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *run
	copy.Entries = nil // entries live in their own table
	s.runs[run.RunID] = &copy
	return nil
}

// InsertEntry records one combination's result. Returns ErrDuplicateKey if
// (run_id, param_set_id) exists.
func (s *OptimizationStore) InsertEntry(_ context.Context, e *domain.OptimizationEntry) error {
	if e == nil || e.RunID == "" || e.ParamSetID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byParamSet, exists := s.entries[e.RunID]
	if !exists {
		byParamSet = make(map[string]*domain.OptimizationEntry)
		s.entries[e.RunID] = byParamSet
	}
	if _, exists := byParamSet[e.ParamSetID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *e
	byParamSet[e.ParamSetID] = &copy
	return nil
}

// GetRun retrieves run metadata with entries attached and the lowest-RMSE
// combination designated best. Returns ErrNotFound if not exists.
func (s *OptimizationStore) GetRun(ctx context.Context, runID string) (*domain.OptimizationRun, error) {
	s.mu.RLock()
	run, exists := s.runs[runID]
	if !exists {
		s.mu.RUnlock()
		return nil, storage.ErrNotFound
	}
	copy := *run
	s.mu.RUnlock()

	entries, err := s.GetEntries(ctx, runID)
	if err != nil {
		return nil, err
	}
	copy.Entries = entries

	for _, e := range entries {
		if copy.BestMetrics == nil || e.Metrics.RMSE < copy.BestMetrics.RMSE {
			metrics := e.Metrics
			copy.BestMetrics = &metrics
			copy.BestParamSet = e.Params
		}
	}
	return &copy, nil
}

// GetEntries retrieves all recorded entries for a run, ordered by param_set_id ASC.
func (s *OptimizationStore) GetEntries(_ context.Context, runID string) ([]*domain.OptimizationEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byParamSet := s.entries[runID]
	result := make([]*domain.OptimizationEntry, 0, len(byParamSet))
	for _, e := range byParamSet {
		copy := *e
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ParamSetID < result[j].ParamSetID
	})
	return result, nil
}

var _ storage.OptimizationStore = (*OptimizationStore)(nil)
