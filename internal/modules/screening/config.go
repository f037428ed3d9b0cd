package screening

import (
	"fmt"
	"math"

	"github.com/aristath/valuescreen/internal/domain"
)

// weightTolerance is how far the category weights may drift from 1.0.
const weightTolerance = 1e-9

// Weights are the category weights of the composite score. They must sum to 1.
type Weights struct {
	Technical   float64 `json:"technical" yaml:"technical"`
	Fundamental float64 `json:"fundamental" yaml:"fundamental"`
	Sentiment   float64 `json:"sentiment" yaml:"sentiment"`
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Technical + w.Fundamental + w.Sentiment
}

// Config is a complete screening configuration.
type Config struct {
	Weights          Weights           `json:"weights" yaml:"weights"`
	BuyThreshold     float64           `json:"buy_threshold" yaml:"buy_threshold"`
	AvoidThreshold   float64           `json:"avoid_threshold" yaml:"avoid_threshold"`
	TechnicalRules   []TechnicalRule   `json:"technical_rules" yaml:"technical_rules"`
	FundamentalRules []FundamentalRule `json:"fundamental_rules" yaml:"fundamental_rules"`

	// RedistributeMissingSentiment drops an undefined sentiment from the
	// composite instead of scoring it as neutral 0.
	RedistributeMissingSentiment bool `json:"redistribute_missing_sentiment" yaml:"redistribute_missing_sentiment"`

	// MinMarginOfSafety is the MARGIN_OF_SAFETY at which a result counts
	// as undervalued. 0.25 means the price is at most 80% of fair value.
	MinMarginOfSafety float64 `json:"min_margin_of_safety" yaml:"min_margin_of_safety"`

	// Targets enables target and stop prices. nil leaves them undefined.
	Targets *PriceTargets `json:"targets,omitempty" yaml:"targets,omitempty"`
}

// Default category weights.
const (
	DefaultFundamentalWeight = 0.45
	DefaultTechnicalWeight   = 0.30
	DefaultSentimentWeight   = 0.25

	DefaultBuyThreshold   = 0.3
	DefaultAvoidThreshold = -0.3

	DefaultMinMarginOfSafety = 0.25
)

// DefaultConfig is a value-tilted starting point. The rule thresholds are
// tunables, not recommendations.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Technical:   DefaultTechnicalWeight,
			Fundamental: DefaultFundamentalWeight,
			Sentiment:   DefaultSentimentWeight,
		},
		BuyThreshold:      DefaultBuyThreshold,
		AvoidThreshold:    DefaultAvoidThreshold,
		MinMarginOfSafety: DefaultMinMarginOfSafety,
		Targets:           DefaultPriceTargets(),
		TechnicalRules: []TechnicalRule{
			{Name: "rsi", Kind: RuleBand, Value: "RSI_14", Low: 30, High: 70},
			{Name: "macd_cross", Kind: RuleCross, Value: "MACD", Reference: "MACD_SIGNAL"},
			{Name: "bollinger", Kind: RuleChannel, Value: "CLOSE", Reference: "BB_LOWER_20", Upper: "BB_UPPER_20"},
			{Name: "trend", Kind: RuleTrend, Value: "CLOSE", Reference: "SMA_200"},
			{Name: "stochastic", Kind: RuleBand, Value: "STOCH_K_14", Low: 20, High: 80},
		},
		FundamentalRules: []FundamentalRule{
			{Ratio: "ROE", Mode: ModeAbsolute, Bad: 0, Good: 0.15},
			{Ratio: "OPERATING_MARGIN", Mode: ModeAbsolute, Bad: 0, Good: 0.15},
			{Ratio: "DEBT_RATIO", Mode: ModeAbsolute, Bad: 0.8, Good: 0.3},
			{Ratio: "CURRENT_RATIO", Mode: ModeAbsolute, Bad: 0.8, Good: 2},
			{Ratio: "REVENUE_GROWTH", Mode: ModeAbsolute, Bad: -0.1, Good: 0.1},
			{Ratio: "PER", Mode: ModePeer, HigherIsBetter: false},
			{Ratio: "PBR", Mode: ModePeer, HigherIsBetter: false},
		},
	}
}

// Validate checks weights, thresholds and rules.
func (c Config) Validate() error {
	for _, w := range []struct {
		field string
		value float64
	}{
		{"weights.technical", c.Weights.Technical},
		{"weights.fundamental", c.Weights.Fundamental},
		{"weights.sentiment", c.Weights.Sentiment},
	} {
		if w.value < 0 || math.IsNaN(w.value) || math.IsInf(w.value, 0) {
			return domain.NewParameterError(w.field, w.value, "must be a non-negative number")
		}
	}
	if sum := c.Weights.Sum(); math.Abs(sum-1) > weightTolerance {
		return domain.NewParameterError("weights", sum, "must sum to 1.0")
	}
	if math.IsNaN(c.BuyThreshold) || math.IsNaN(c.AvoidThreshold) {
		return domain.NewParameterError("thresholds", fmt.Sprintf("%v/%v", c.BuyThreshold, c.AvoidThreshold), "must be numbers")
	}
	if c.AvoidThreshold >= c.BuyThreshold {
		return domain.NewParameterError("avoid_threshold", c.AvoidThreshold,
			fmt.Sprintf("must be below buy_threshold (%v)", c.BuyThreshold))
	}
	if math.IsNaN(c.MinMarginOfSafety) || math.IsInf(c.MinMarginOfSafety, 0) || c.MinMarginOfSafety <= -1 {
		return domain.NewParameterError("min_margin_of_safety", c.MinMarginOfSafety, "must be a number above -1")
	}
	if c.Targets != nil {
		if err := c.Targets.validate(); err != nil {
			return err
		}
	}
	for i, r := range c.TechnicalRules {
		if err := r.validate(); err != nil {
			return fmt.Errorf("technical rule %d: %w", i, err)
		}
	}
	for i, r := range c.FundamentalRules {
		if err := r.validate(); err != nil {
			return fmt.Errorf("fundamental rule %d: %w", i, err)
		}
	}
	return nil
}
