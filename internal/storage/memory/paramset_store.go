package memory

import (
	"context"
	"sort"
	"sync"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/storage"
)

// ParameterSetStore is an in-memory implementation of storage.ParameterSetStore.
type ParameterSetStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ParameterSet // keyed by param_set_id
}

// NewParameterSetStore creates a new in-memory parameter set store.
func NewParameterSetStore() *ParameterSetStore {
	return &ParameterSetStore{
		data: make(map[string]*domain.ParameterSet),
	}
}

// Insert adds a new parameter set. Returns ErrDuplicateKey if param_set_id exists.
func (s *ParameterSetStore) Insert(_ context.Context, p *domain.ParameterSet) error {
	if p == nil || p.ParamSetID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.ParamSetID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[p.ParamSetID] = clone(p)
	return nil
}

// GetByID retrieves a parameter set by id. Returns ErrNotFound if not exists.
func (s *ParameterSetStore) GetByID(_ context.Context, paramSetID string) (*domain.ParameterSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[paramSetID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return clone(p), nil
}

// List retrieves all parameter sets ordered by (name ASC, version ASC).
func (s *ParameterSetStore) List(_ context.Context) ([]*domain.ParameterSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ParameterSet, 0, len(s.data))
	for _, p := range s.data {
		result = append(result, clone(p))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].Version < result[j].Version
	})
	return result, nil
}

// clone deep-copies a parameter set, including its position maps.
func clone(p *domain.ParameterSet) *domain.ParameterSet {
	copy := *p
	if p.FixtureWeights != nil {
		copy.FixtureWeights = make(map[domain.Position]float64, len(p.FixtureWeights))
		for pos, w := range p.FixtureWeights {
			copy.FixtureWeights[pos] = w
		}
	}
	if p.RatioImpact != nil {
		copy.RatioImpact = make(map[domain.Position]float64, len(p.RatioImpact))
		for pos, f := range p.RatioImpact {
			copy.RatioImpact[pos] = f
		}
	}
	return &copy
}

var _ storage.ParameterSetStore = (*ParameterSetStore)(nil)
