package validation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"time"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/idhash"
	"fantasy-value-lab/internal/storage"
)

// Grid describes the parameter combinations to search. Every axis left nil
// keeps the base value; the Cartesian product of the populated axes is
// evaluated. MaxCombinations caps the product by seeded sampling, so the
// same seed always searches the same subset.
type Grid struct {
	Base *domain.ParameterSet

	Alphas             []float64
	AdaptationHorizons []int
	FixtureBases       []float64
	RotationPenalties  []float64

	MaxCombinations int
}

// Combinations expands the grid into concrete parameter sets, each with a
// deterministic id derived from its canonical serialization. The expansion
// order is fixed, so combination ids are stable across runs.
func (g *Grid) Combinations(seed int64) ([]*domain.ParameterSet, error) {
	if g.Base == nil {
		return nil, fmt.Errorf("%w: grid has no base parameter set", storage.ErrInvalidInput)
	}

	alphas := orBase(g.Alphas, g.Base.Alpha)
	horizons := orBaseInt(g.AdaptationHorizons, g.Base.AdaptationHorizon)
	bases := orBase(g.FixtureBases, g.Base.FixtureBase)
	penalties := orBase(g.RotationPenalties, g.Base.RotationPenalty)

	var combos []*domain.ParameterSet
	for _, alpha := range alphas {
		for _, horizon := range horizons {
			for _, fixtureBase := range bases {
				for _, penalty := range penalties {
					combo := cloneParams(g.Base)
					combo.Alpha = alpha
					combo.AdaptationHorizon = horizon
					combo.FixtureBase = fixtureBase
					combo.RotationPenalty = penalty
					if combo.BenchPenalty > penalty {
						combo.BenchPenalty = penalty
					}

					combo.ParamSetID = ""
					canonical := combo.ToRecord().Canonical()
					combo.ParamSetID = idhash.ComputeParamSetID(combo.Name, combo.Version, canonical)
					if err := combo.Validate(); err != nil {
						return nil, fmt.Errorf("combination %s: %w", combo.ParamSetID, err)
					}
					combos = append(combos, combo)
				}
			}
		}
	}

	if g.MaxCombinations > 0 && len(combos) > g.MaxCombinations {
		rng := rand.New(rand.NewSource(seed))
		perm := rng.Perm(len(combos))
		sampled := make([]*domain.ParameterSet, g.MaxCombinations)
		for i := range sampled {
			sampled[i] = combos[perm[i]]
		}
		sort.Slice(sampled, func(i, j int) bool {
			return sampled[i].ParamSetID < sampled[j].ParamSetID
		})
		combos = sampled
	}
	return combos, nil
}

// Searcher runs grid searches and persists each tested combination as it
// completes, so an interrupted search resumes without recomputing.
type Searcher struct {
	backtester *Backtester
	store      storage.OptimizationStore
	logger     *log.Logger
}

// NewSearcher creates a new grid searcher.
func NewSearcher(backtester *Backtester, store storage.OptimizationStore, logger *log.Logger) *Searcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Searcher{backtester: backtester, store: store, logger: logger}
}

// Run evaluates every grid combination on the given train/test split. The
// run id derives from the split and seed, so re-running the same search
// resumes the same run: combinations already recorded are skipped, and a
// combination that fails is logged and skipped without aborting the rest.
// The returned run holds all recorded entries with the lowest-RMSE
// combination designated best.
func (s *Searcher) Run(ctx context.Context, grid *Grid, playerIDs []string, trainFrom, trainTo, testGameweek int, seed int64, k int) (*domain.OptimizationRun, error) {
	combos, err := grid.Combinations(seed)
	if err != nil {
		return nil, err
	}

	runID := idhash.ComputeRunID(trainFrom, trainTo, testGameweek, seed)
	run := &domain.OptimizationRun{
		RunID:         runID,
		Seed:          seed,
		PrimaryMetric: "rmse",
		StartedAt:     time.Now().UnixMilli(),
	}
	if err := s.store.InsertRun(ctx, run); err != nil {
		if !errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("insert run: %w", err)
		}
		// Resuming an existing run
	}

	recorded := make(map[string]struct{})
	existing, err := s.store.GetEntries(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load existing entries: %w", err)
	}
	for _, e := range existing {
		recorded[e.ParamSetID] = struct{}{}
	}

	failed := 0
	for i, combo := range combos {
		if _, done := recorded[combo.ParamSetID]; done {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := s.backtester.Run(ctx, combo, playerIDs, trainFrom, trainTo, testGameweek, k)
		if err != nil {
			failed++
			s.logger.Printf("grid search %s: combination %d/%d (%s) failed: %v",
				runID[:12], i+1, len(combos), combo.ParamSetID[:12], err)
			continue
		}

		entry := &domain.OptimizationEntry{
			RunID:        runID,
			ParamSetID:   combo.ParamSetID,
			Params:       combo,
			Metrics:      result.Metrics,
			TrainFrom:    trainFrom,
			TrainTo:      trainTo,
			TestGameweek: testGameweek,
			ComputedAt:   time.Now().UnixMilli(),
		}
		if err := s.store.InsertEntry(ctx, entry); err != nil {
			if !errors.Is(err, storage.ErrDuplicateKey) {
				return nil, fmt.Errorf("insert entry %s: %w", combo.ParamSetID, err)
			}
			// A concurrent searcher recorded it first
		}
	}
	if failed > 0 {
		s.logger.Printf("grid search %s: %d/%d combinations failed", runID[:12], failed, len(combos))
	}

	return s.store.GetRun(ctx, runID)
}

func orBase(axis []float64, base float64) []float64 {
	if len(axis) == 0 {
		return []float64{base}
	}
	return axis
}

func orBaseInt(axis []int, base int) []int {
	if len(axis) == 0 {
		return []int{base}
	}
	return axis
}

func cloneParams(p *domain.ParameterSet) *domain.ParameterSet {
	clone := *p
	if p.FixtureWeights != nil {
		clone.FixtureWeights = make(map[domain.Position]float64, len(p.FixtureWeights))
		for pos, w := range p.FixtureWeights {
			clone.FixtureWeights[pos] = w
		}
	}
	if p.RatioImpact != nil {
		clone.RatioImpact = make(map[domain.Position]float64, len(p.RatioImpact))
		for pos, f := range p.RatioImpact {
			clone.RatioImpact[pos] = f
		}
	}
	return &clone
}
