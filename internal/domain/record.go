package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Record is a flat field-value representation of a persisted type. Any
// backing store (relational, document, file) can hold one without loss;
// the *FromRecord functions restore the original value exactly.
type Record map[string]string

// Canonical renders the record as key=value pairs in sorted key order,
// joined by ";". Feeds deterministic id hashing.
func (r Record) Canonical() string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(r[k])
	}
	return b.String()
}

// ToRecord flattens a ParameterSet. Map-valued fields use dotted keys,
// e.g. "fixture_weight.MID".
func (p *ParameterSet) ToRecord() Record {
	r := Record{
		"param_set_id":       p.ParamSetID,
		"name":               p.Name,
		"version":            strconv.Itoa(p.Version),
		"alpha":              formatFloat(p.Alpha),
		"lookback_window":    strconv.Itoa(p.LookbackWindow),
		"adaptation_horizon": strconv.Itoa(p.AdaptationHorizon),
		"baseline_floor":     formatFloat(p.BaselineFloor),
		"form_min":           formatFloat(p.FormBound.Min),
		"form_max":           formatFloat(p.FormBound.Max),
		"fixture_min":        formatFloat(p.FixtureBound.Min),
		"fixture_max":        formatFloat(p.FixtureBound.Max),
		"ratio_min":          formatFloat(p.RatioBound.Min),
		"ratio_max":          formatFloat(p.RatioBound.Max),
		"global_cap":         formatFloat(p.GlobalCap),
		"fixture_strategy":   p.FixtureStrategy,
		"fixture_base":       formatFloat(p.FixtureBase),
		"ratio_min_baseline": formatFloat(p.RatioMinBaseline),
		"form_strategy":      p.FormStrategy,
		"rotation_penalty":   formatFloat(p.RotationPenalty),
		"bench_penalty":      formatFloat(p.BenchPenalty),
		"price_floor":        formatFloat(p.PriceFloor),
	}
	for pos, w := range p.FixtureWeights {
		r["fixture_weight."+string(pos)] = formatFloat(w)
	}
	for pos, f := range p.RatioImpact {
		r["ratio_impact."+string(pos)] = formatFloat(f)
	}
	return r
}

// ParameterSetFromRecord restores a ParameterSet from its flat record.
func ParameterSetFromRecord(r Record) (*ParameterSet, error) {
	p := &ParameterSet{
		ParamSetID:      r["param_set_id"],
		Name:            r["name"],
		FixtureStrategy: r["fixture_strategy"],
		FormStrategy:    r["form_strategy"],
	}
	var err error
	if p.Version, err = parseIntField(r, "version"); err != nil {
		return nil, err
	}
	if p.LookbackWindow, err = parseIntField(r, "lookback_window"); err != nil {
		return nil, err
	}
	if p.AdaptationHorizon, err = parseIntField(r, "adaptation_horizon"); err != nil {
		return nil, err
	}
	floats := map[string]*float64{
		"alpha":              &p.Alpha,
		"baseline_floor":     &p.BaselineFloor,
		"form_min":           &p.FormBound.Min,
		"form_max":           &p.FormBound.Max,
		"fixture_min":        &p.FixtureBound.Min,
		"fixture_max":        &p.FixtureBound.Max,
		"ratio_min":          &p.RatioBound.Min,
		"ratio_max":          &p.RatioBound.Max,
		"global_cap":         &p.GlobalCap,
		"fixture_base":       &p.FixtureBase,
		"ratio_min_baseline": &p.RatioMinBaseline,
		"rotation_penalty":   &p.RotationPenalty,
		"bench_penalty":      &p.BenchPenalty,
		"price_floor":        &p.PriceFloor,
	}
	for key, dst := range floats {
		if *dst, err = parseFloatField(r, key); err != nil {
			return nil, err
		}
	}
	for key, val := range r {
		switch {
		case strings.HasPrefix(key, "fixture_weight."):
			if p.FixtureWeights == nil {
				p.FixtureWeights = make(map[Position]float64)
			}
			w, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("record field %s: %w", key, err)
			}
			p.FixtureWeights[Position(strings.TrimPrefix(key, "fixture_weight."))] = w
		case strings.HasPrefix(key, "ratio_impact."):
			if p.RatioImpact == nil {
				p.RatioImpact = make(map[Position]float64)
			}
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("record field %s: %w", key, err)
			}
			p.RatioImpact[Position(strings.TrimPrefix(key, "ratio_impact."))] = f
		}
	}
	return p, nil
}

// ToRecord flattens a Prediction. Neutral reasons join with "," — reason
// codes contain no commas.
func (p *Prediction) ToRecord() Record {
	return Record{
		"prediction_id":      p.PredictionID,
		"player_id":          p.PlayerID,
		"gameweek":           strconv.Itoa(p.Gameweek),
		"param_set_id":       p.ParamSetID,
		"position":           string(p.Position),
		"blended_baseline":   formatFloat(p.BlendedBaseline),
		"form_multiplier":    formatFloat(p.FormMultiplier),
		"fixture_multiplier": formatFloat(p.FixtureMultiplier),
		"starter_multiplier": formatFloat(p.StarterMultiplier),
		"ratio_multiplier":   formatFloat(p.RatioMultiplier),
		"final_value":        formatFloat(p.FinalValue),
		"value_per_price":    formatFloat(p.ValuePerPrice),
		"price":              formatFloat(p.Price),
		"neutral_reasons":    strings.Join(p.NeutralReasons, ","),
		"computed_at":        strconv.FormatInt(p.ComputedAt, 10),
	}
}

// PredictionFromRecord restores a Prediction from its flat record.
func PredictionFromRecord(r Record) (*Prediction, error) {
	p := &Prediction{
		PredictionID: r["prediction_id"],
		PlayerID:     r["player_id"],
		ParamSetID:   r["param_set_id"],
		Position:     Position(r["position"]),
	}
	var err error
	if p.Gameweek, err = parseIntField(r, "gameweek"); err != nil {
		return nil, err
	}
	floats := map[string]*float64{
		"blended_baseline":   &p.BlendedBaseline,
		"form_multiplier":    &p.FormMultiplier,
		"fixture_multiplier": &p.FixtureMultiplier,
		"starter_multiplier": &p.StarterMultiplier,
		"ratio_multiplier":   &p.RatioMultiplier,
		"final_value":        &p.FinalValue,
		"value_per_price":    &p.ValuePerPrice,
		"price":              &p.Price,
	}
	for key, dst := range floats {
		if *dst, err = parseFloatField(r, key); err != nil {
			return nil, err
		}
	}
	if p.ComputedAt, err = strconv.ParseInt(r["computed_at"], 10, 64); err != nil {
		return nil, fmt.Errorf("record field computed_at: %w", err)
	}
	if r["neutral_reasons"] != "" {
		p.NeutralReasons = strings.Split(r["neutral_reasons"], ",")
	}
	return p, nil
}

// ToRecord flattens ValidationMetrics.
func (m ValidationMetrics) ToRecord() Record {
	return Record{
		"rmse":             formatFloat(m.RMSE),
		"mae":              formatFloat(m.MAE),
		"spearman_rho":     formatFloat(m.SpearmanRho),
		"spearman_p_value": formatFloat(m.SpearmanPValue),
		"precision_at_k":   formatFloat(m.PrecisionAtK),
		"k_used":           strconv.Itoa(m.KUsed),
		"sample_size":      strconv.Itoa(m.SampleSize),
	}
}

// ValidationMetricsFromRecord restores ValidationMetrics from a flat record.
func ValidationMetricsFromRecord(r Record) (ValidationMetrics, error) {
	var m ValidationMetrics
	var err error
	floats := map[string]*float64{
		"rmse":             &m.RMSE,
		"mae":              &m.MAE,
		"spearman_rho":     &m.SpearmanRho,
		"spearman_p_value": &m.SpearmanPValue,
		"precision_at_k":   &m.PrecisionAtK,
	}
	for key, dst := range floats {
		if *dst, err = parseFloatField(r, key); err != nil {
			return m, err
		}
	}
	if m.KUsed, err = parseIntField(r, "k_used"); err != nil {
		return m, err
	}
	if m.SampleSize, err = parseIntField(r, "sample_size"); err != nil {
		return m, err
	}
	return m, nil
}

// formatFloat renders a float64 with full round-trip precision.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseFloatField(r Record, key string) (float64, error) {
	v, err := strconv.ParseFloat(r[key], 64)
	if err != nil {
		return 0, fmt.Errorf("record field %s: %w", key, err)
	}
	return v, nil
}

func parseIntField(r Record, key string) (int, error) {
	v, err := strconv.Atoi(r[key])
	if err != nil {
		return 0, fmt.Errorf("record field %s: %w", key, err)
	}
	return v, nil
}
