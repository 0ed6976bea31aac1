// Package formula implements the parameterized scoring formula: a pure,
// deterministic function from (PlayerHistory, ParameterSet, gameweek) to a
// Prediction. No I/O, no internal state; identical inputs yield
// bit-identical outputs.
package formula

import (
	"fmt"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/idhash"
)

// Evaluate computes the Prediction for one player as of asOfGameweek.
//
// The history must contain only snapshots with gameweek <= asOfGameweek,
// ordered ascending; a later snapshot is a lookahead violation and aborts
// the evaluation. An invalid ParameterSet is rejected before any
// computation. Every missing-signal path degrades to a neutral multiplier
// recorded in Prediction.NeutralReasons.
func Evaluate(h *domain.PlayerHistory, p *domain.ParameterSet, asOfGameweek int) (*domain.Prediction, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := checkNoLookahead(h, asOfGameweek); err != nil {
		return nil, err
	}

	log := &fallbackLog{}
	latest := h.Latest()

	baseline := blendedBaseline(h, p, asOfGameweek)
	form := formMultiplier(h, p, baseline, log)
	fixture := fixtureMultiplier(latest, p, log)
	ratio := ratioMultiplier(latest, p, log)
	starter := starterMultiplier(latest, p)

	final := baseline * form * fixture * starter * ratio
	if maxValue := baseline * p.GlobalCap; final > maxValue {
		final = maxValue
	}

	price := 0.0
	position := domain.Position("")
	if latest != nil {
		price = latest.Price
		position = latest.Position
	}
	denom := price
	if denom < p.PriceFloor {
		denom = p.PriceFloor
	}

	return &domain.Prediction{
		PredictionID:      idhash.ComputePredictionID(h.PlayerID, asOfGameweek, p.ParamSetID),
		PlayerID:          h.PlayerID,
		Gameweek:          asOfGameweek,
		ParamSetID:        p.ParamSetID,
		Position:          position,
		BlendedBaseline:   baseline,
		FormMultiplier:    form,
		FixtureMultiplier: fixture,
		StarterMultiplier: starter,
		RatioMultiplier:   ratio,
		FinalValue:        final,
		ValuePerPrice:     final / denom,
		Price:             price,
		NeutralReasons:    log.reasons,
	}, nil
}

// checkNoLookahead verifies that no snapshot postdates the evaluation
// period and that the history is ordered ascending by gameweek.
func checkNoLookahead(h *domain.PlayerHistory, asOfGameweek int) error {
	prev := 0
	for _, s := range h.Snapshots {
		if s.Gameweek > asOfGameweek {
			return fmt.Errorf("%w: snapshot for gameweek %d in history as of gameweek %d",
				domain.ErrLookaheadViolation, s.Gameweek, asOfGameweek)
		}
		if s.Gameweek <= prev {
			return fmt.Errorf("%w: history not strictly ascending at gameweek %d",
				domain.ErrLookaheadViolation, s.Gameweek)
		}
		prev = s.Gameweek
	}
	return nil
}
