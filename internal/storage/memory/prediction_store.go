package memory

import (
	"context"
	"sort"
	"sync"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/storage"
)

// PredictionStore is an in-memory implementation of storage.PredictionStore.
type PredictionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Prediction // keyed by prediction_id
}

// NewPredictionStore creates a new in-memory prediction store.
func NewPredictionStore() *PredictionStore {
	return &PredictionStore{
		data: make(map[string]*domain.Prediction),
	}
}

// Insert adds a new prediction. Returns ErrDuplicateKey if prediction_id exists.
func (s *PredictionStore) Insert(_ context.Context, p *domain.Prediction) error {
	if p == nil || p.PredictionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.PredictionID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[p.PredictionID] = clonePrediction(p)
	return nil
}

// InsertBulk adds multiple predictions atomically. Fails entire batch on any duplicate.
func (s *PredictionStore) InsertBulk(_ context.Context, predictions []*domain.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(predictions))
	for _, p := range predictions {
		if p == nil || p.PredictionID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[p.PredictionID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[p.PredictionID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[p.PredictionID] = struct{}{}
	}

	for _, p := range predictions {
		s.data[p.PredictionID] = clonePrediction(p)
	}
	return nil
}

// GetByID retrieves a prediction by id. Returns ErrNotFound if not exists.
func (s *PredictionStore) GetByID(_ context.Context, predictionID string) (*domain.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[predictionID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return clonePrediction(p), nil
}

// GetSeries retrieves predictions for one parameter set within [from, to]
// gameweeks, ordered by (gameweek ASC, player_id ASC).
func (s *PredictionStore) GetSeries(_ context.Context, paramSetID string, from, to int) ([]*domain.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Prediction
	for _, p := range s.data {
		if p.ParamSetID == paramSetID && p.Gameweek >= from && p.Gameweek <= to {
			result = append(result, clonePrediction(p))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Gameweek != result[j].Gameweek {
			return result[i].Gameweek < result[j].Gameweek
		}
		return result[i].PlayerID < result[j].PlayerID
	})
	return result, nil
}

// clonePrediction deep-copies a prediction, including its reason slice.
func clonePrediction(p *domain.Prediction) *domain.Prediction {
	copy := *p
	if p.NeutralReasons != nil {
		copy.NeutralReasons = append([]string(nil), p.NeutralReasons...)
	}
	return &copy
}

var _ storage.PredictionStore = (*PredictionStore)(nil)
