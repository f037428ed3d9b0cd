package screening

import (
	"math"
	"sort"

	"github.com/aristath/valuescreen/internal/domain"
)

// Indicator and ratio keys target pricing reads.
const (
	closeKey          = "CLOSE"
	marginOfSafetyKey = "MARGIN_OF_SAFETY"
)

// PriceTargets parameterises the target and stop prices attached to BUY and
// AVOID results.
//
// BUY:   target = close × (1 + BaseUpside + ScoreUpside × composite)
//
//	stop   = max(close − ATRMultiple × ATR, close × (1 − MaxLoss))
//
// AVOID: stop = close × (1 + AvoidReevaluation), the level above which the
// security is worth screening again. HOLD carries neither.
type PriceTargets struct {
	ATRKey            string  `json:"atr_key" yaml:"atr_key"`
	ATRMultiple       float64 `json:"atr_multiple" yaml:"atr_multiple"`
	MaxLoss           float64 `json:"max_loss" yaml:"max_loss"`
	BaseUpside        float64 `json:"base_upside" yaml:"base_upside"`
	ScoreUpside       float64 `json:"score_upside" yaml:"score_upside"`
	AvoidReevaluation float64 `json:"avoid_reevaluation" yaml:"avoid_reevaluation"`
}

// DefaultPriceTargets reads ATR_14 with a 2 ATR stop capped at a 15% loss.
func DefaultPriceTargets() *PriceTargets {
	return &PriceTargets{
		ATRKey:            "ATR_14",
		ATRMultiple:       2,
		MaxLoss:           0.15,
		BaseUpside:        0.10,
		ScoreUpside:       0.10,
		AvoidReevaluation: 0.05,
	}
}

func (p *PriceTargets) validate() error {
	if p.ATRKey == "" {
		return domain.NewParameterError("targets.atr_key", p.ATRKey, "is required")
	}
	for _, f := range []struct {
		field string
		value float64
	}{
		{"targets.atr_multiple", p.ATRMultiple},
		{"targets.base_upside", p.BaseUpside},
		{"targets.score_upside", p.ScoreUpside},
		{"targets.avoid_reevaluation", p.AvoidReevaluation},
	} {
		if f.value < 0 || math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return domain.NewParameterError(f.field, f.value, "must be a non-negative number")
		}
	}
	if !(p.MaxLoss > 0 && p.MaxLoss < 1) {
		return domain.NewParameterError("targets.max_loss", p.MaxLoss, "must be in (0, 1)")
	}
	return nil
}

// apply sets TargetPrice and StopLoss on a classified result.
func (p *PriceTargets) apply(res *Result, ind domain.IndicatorResult) {
	res.TargetPrice = domain.Undefined()
	res.StopLoss = domain.Undefined()

	closeVal, _ := ind.Get(closeKey)
	if !closeVal.Valid || closeVal.Float64 <= 0 {
		return
	}
	price := closeVal.Float64

	switch res.Classification {
	case Buy:
		upside := p.BaseUpside + p.ScoreUpside*math.Max(res.CompositeScore, 0)
		res.TargetPrice = domain.Defined(price * (1 + upside))

		stop := price * (1 - p.MaxLoss)
		if atr, _ := ind.Get(p.ATRKey); atr.Valid && atr.Float64 >= 0 {
			stop = math.Max(price-p.ATRMultiple*atr.Float64, stop)
		}
		res.StopLoss = domain.Defined(stop)
	case Avoid:
		res.StopLoss = domain.Defined(price * (1 + p.AvoidReevaluation))
	}
}

// Undervalued returns the ids of results whose margin of safety reaches the
// configured minimum, widest margin first. limit <= 0 returns all of them.
func Undervalued(results []Result, limit int) []string {
	picked := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Undervalued {
			picked = append(picked, r)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		if picked[i].MarginOfSafety.Float64 != picked[j].MarginOfSafety.Float64 {
			return picked[i].MarginOfSafety.Float64 > picked[j].MarginOfSafety.Float64
		}
		return picked[i].SecurityID < picked[j].SecurityID
	})
	if limit > 0 && len(picked) > limit {
		picked = picked[:limit]
	}
	ids := make([]string, len(picked))
	for i, r := range picked {
		ids[i] = r.SecurityID
	}
	return ids
}
