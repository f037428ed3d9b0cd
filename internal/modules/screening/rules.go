package screening

import (
	"github.com/aristath/valuescreen/internal/domain"
	"github.com/aristath/valuescreen/pkg/formulas"
)

// RuleKind selects how a technical rule turns indicator values into a signal.
type RuleKind string

const (
	// RuleBand: Value below Low is +1 (oversold), above High is -1.
	RuleBand RuleKind = "band"
	// RuleCross: Value crossing above Reference since the previous bar is +1,
	// crossing below is -1, no crossing is 0.
	RuleCross RuleKind = "cross"
	// RuleChannel: Value at or below Reference (lower band) is +1, at or above
	// Upper is -1.
	RuleChannel RuleKind = "channel"
	// RuleTrend: Value above Reference is +1, below is -1.
	RuleTrend RuleKind = "trend"
)

// TechnicalRule maps indicator result keys to a signal in {-1, 0, +1}.
// A rule whose inputs are not all defined is inactive and does not count.
type TechnicalRule struct {
	Name      string   `json:"name" yaml:"name"`
	Kind      RuleKind `json:"kind" yaml:"kind"`
	Value     string   `json:"value" yaml:"value"`
	Reference string   `json:"reference,omitempty" yaml:"reference,omitempty"`
	Upper     string   `json:"upper,omitempty" yaml:"upper,omitempty"`
	Low       float64  `json:"low,omitempty" yaml:"low,omitempty"`
	High      float64  `json:"high,omitempty" yaml:"high,omitempty"`
}

func (r TechnicalRule) label() string {
	if r.Name != "" {
		return r.Name
	}
	return string(r.Kind) + ":" + r.Value
}

func (r TechnicalRule) validate() error {
	if r.Value == "" {
		return domain.NewParameterError("rule.value", r.Value, "indicator key is required")
	}
	switch r.Kind {
	case RuleBand:
		if r.Low >= r.High {
			return domain.NewParameterError("rule.low", r.Low, "must be below high")
		}
	case RuleCross, RuleTrend:
		if r.Reference == "" {
			return domain.NewParameterError("rule.reference", r.Reference, "reference key is required")
		}
	case RuleChannel:
		if r.Reference == "" || r.Upper == "" {
			return domain.NewParameterError("rule.reference", r.Reference, "lower and upper keys are required")
		}
	default:
		return domain.NewParameterError("rule.kind", r.Kind, "unknown rule kind")
	}
	return nil
}

// evaluate returns the rule's signal, or false when the rule is inactive.
func (r TechnicalRule) evaluate(ind domain.IndicatorResult) (float64, bool) {
	value, ok := defined(ind.Values, r.Value)
	if !ok {
		return 0, false
	}

	switch r.Kind {
	case RuleBand:
		switch {
		case value < r.Low:
			return 1, true
		case value > r.High:
			return -1, true
		}
		return 0, true

	case RuleCross:
		ref, ok1 := defined(ind.Values, r.Reference)
		prevValue, ok2 := defined(ind.Previous, r.Value)
		prevRef, ok3 := defined(ind.Previous, r.Reference)
		if !ok1 || !ok2 || !ok3 {
			return 0, false
		}
		switch {
		case prevValue <= prevRef && value > ref:
			return 1, true
		case prevValue >= prevRef && value < ref:
			return -1, true
		}
		return 0, true

	case RuleChannel:
		lower, ok1 := defined(ind.Values, r.Reference)
		upper, ok2 := defined(ind.Values, r.Upper)
		if !ok1 || !ok2 {
			return 0, false
		}
		switch {
		case value <= lower && value < upper:
			return 1, true
		case value >= upper && value > lower:
			return -1, true
		}
		return 0, true

	case RuleTrend:
		ref, ok := defined(ind.Values, r.Reference)
		if !ok {
			return 0, false
		}
		switch {
		case value > ref:
			return 1, true
		case value < ref:
			return -1, true
		}
		return 0, true
	}
	return 0, false
}

// Mode selects how a fundamental rule scores its ratio.
type Mode string

const (
	// ModeAbsolute interpolates linearly from Bad (-1) to Good (+1).
	ModeAbsolute Mode = "absolute"
	// ModePeer ranks the ratio among securities of the same sector in the
	// batch and maps the percentile onto [-1, 1].
	ModePeer Mode = "peer"
)

// minPeers is the smallest sector population a peer rule scores against.
const minPeers = 2

// FundamentalRule scores one ratio in [-1, 1]. Undefined ratios are skipped.
type FundamentalRule struct {
	Ratio          string  `json:"ratio" yaml:"ratio"`
	Mode           Mode    `json:"mode" yaml:"mode"`
	Bad            float64 `json:"bad,omitempty" yaml:"bad,omitempty"`
	Good           float64 `json:"good,omitempty" yaml:"good,omitempty"`
	HigherIsBetter bool    `json:"higher_is_better,omitempty" yaml:"higher_is_better,omitempty"`
}

func (r FundamentalRule) validate() error {
	if r.Ratio == "" {
		return domain.NewParameterError("rule.ratio", r.Ratio, "ratio name is required")
	}
	switch r.Mode {
	case ModeAbsolute:
		if r.Bad == r.Good {
			return domain.NewParameterError("rule.good", r.Good, "must differ from bad")
		}
	case ModePeer:
	default:
		return domain.NewParameterError("rule.mode", r.Mode, "unknown rule mode")
	}
	return nil
}

func (r FundamentalRule) label() string {
	return string(r.Mode) + ":" + r.Ratio
}

// peerGroups holds, per sector and ratio, the defined values of the batch.
type peerGroups map[string]map[string][]float64

func buildPeerGroups(inputs []Input, rules []FundamentalRule) peerGroups {
	groups := make(peerGroups)
	for _, rule := range rules {
		if rule.Mode != ModePeer {
			continue
		}
		for _, in := range inputs {
			v, ok := defined(in.Fundamentals, rule.Ratio)
			if !ok {
				continue
			}
			byRatio, ok := groups[in.Sector]
			if !ok {
				byRatio = make(map[string][]float64)
				groups[in.Sector] = byRatio
			}
			byRatio[rule.Ratio] = append(byRatio[rule.Ratio], v)
		}
	}
	return groups
}

// evaluate scores the ratio of one security. peers may be nil when the
// configuration has no peer rules.
func (r FundamentalRule) evaluate(fund domain.FundamentalResult, sector string, peers peerGroups) (float64, bool) {
	value, ok := defined(fund, r.Ratio)
	if !ok {
		return 0, false
	}
	switch r.Mode {
	case ModeAbsolute:
		return formulas.Lerp(value, r.Bad, r.Good), true
	case ModePeer:
		population := peers[sector][r.Ratio]
		if len(population) < minPeers {
			return 0, false
		}
		pct, ok := formulas.PercentRank(value, population)
		if !ok {
			return 0, false
		}
		score := 2*pct - 1
		if !r.HigherIsBetter {
			score = -score
		}
		return score, true
	}
	return 0, false
}

func defined(values map[string]domain.Value, key string) (float64, bool) {
	v, ok := values[key]
	if !ok || !v.Valid {
		return 0, false
	}
	return v.Float64, true
}
