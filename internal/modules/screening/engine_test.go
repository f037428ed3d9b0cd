package screening

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/valuescreen/internal/domain"
)

func sentimentOnly(id string, score float64) Input {
	return Input{
		SecurityID: id,
		Indicators: domain.NewIndicatorResult(),
		Sentiment:  domain.SentimentResult{Score: domain.Defined(score), SampleCount: 1},
	}
}

func newEngine(t *testing.T, mutate func(*Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	return e
}

func byID(batch Batch) map[string]Result {
	out := make(map[string]Result, len(batch.Ranked))
	for _, r := range batch.Ranked {
		out[r.SecurityID] = r
	}
	return out
}

func TestScreen_DenseRankAndClassification(t *testing.T) {
	e := newEngine(t, func(c *Config) {
		c.BuyThreshold = 0.6
		c.TechnicalRules = nil
		c.FundamentalRules = nil
	})

	batch, err := e.Screen([]Input{
		sentimentOnly("X", 0.8),
		sentimentOnly("Y", 0.5),
		sentimentOnly("Z", 0.5),
	})
	require.NoError(t, err)
	require.Len(t, batch.Ranked, 3)

	res := byID(batch)
	assert.InDelta(t, 0.8, res["X"].CompositeScore, 1e-12)
	assert.Equal(t, 1, res["X"].Rank)
	assert.Equal(t, 2, res["Y"].Rank)
	assert.Equal(t, 2, res["Z"].Rank)
	assert.Equal(t, Buy, res["X"].Classification)
	assert.Equal(t, Hold, res["Y"].Classification)
	assert.Equal(t, Hold, res["Z"].Classification)
	assert.Equal(t, "X", batch.Ranked[0].SecurityID)
	assert.Empty(t, batch.InsufficientData)
}

func indicatorResult(values, previous map[string]float64) domain.IndicatorResult {
	res := domain.NewIndicatorResult()
	for k, v := range values {
		res.Values[k] = domain.Defined(v)
	}
	for k, v := range previous {
		res.Previous[k] = domain.Defined(v)
	}
	return res
}

func universe() []Input {
	return []Input{
		{
			SecurityID: "AAA",
			Sector:     "tech",
			Indicators: indicatorResult(
				map[string]float64{"RSI_14": 25, "MACD": 1.2, "MACD_SIGNAL": 1.0, "CLOSE": 90, "SMA_200": 80, "BB_LOWER_20": 92, "BB_UPPER_20": 110},
				map[string]float64{"MACD": 0.9, "MACD_SIGNAL": 1.0},
			),
			Fundamentals: domain.FundamentalResult{"ROE": domain.Defined(0.2), "PER": domain.Defined(12), "DEBT_RATIO": domain.Defined(0.3)},
			Sentiment:    domain.SentimentResult{Score: domain.Defined(0.4), SampleCount: 3},
		},
		{
			SecurityID:   "BBB",
			Sector:       "tech",
			Indicators:   indicatorResult(map[string]float64{"RSI_14": 75, "CLOSE": 50, "SMA_200": 60}, nil),
			Fundamentals: domain.FundamentalResult{"ROE": domain.Defined(0.02), "PER": domain.Defined(40), "DEBT_RATIO": domain.Undefined()},
		},
		{
			SecurityID:   "CCC",
			Sector:       "energy",
			Indicators:   domain.NewIndicatorResult(),
			Fundamentals: domain.FundamentalResult{"PER": domain.Defined(8)},
			Sentiment:    domain.SentimentResult{Score: domain.Defined(-0.2), SampleCount: 1},
		},
		{
			SecurityID:   "EMPTY",
			Indicators:   indicatorResult(nil, nil),
			Fundamentals: domain.FundamentalResult{"ROE": domain.Undefined()},
			Sentiment:    domain.SentimentResult{Score: domain.Undefined()},
		},
	}
}

func TestScreen_ComponentScores(t *testing.T) {
	e := newEngine(t, nil)
	batch, err := e.Screen(universe())
	require.NoError(t, err)

	assert.Equal(t, []string{"EMPTY"}, ExcludedIDs(batch.InsufficientData))
	assert.ErrorIs(t, batch.InsufficientData[0], domain.ErrInsufficientData)
	assert.Contains(t, batch.InsufficientData[0].Error(), "EMPTY")
	res := byID(batch)
	require.Len(t, res, 3)

	a := res["AAA"]
	// RSI oversold +1, MACD bullish cross +1, close below lower band +1, above SMA_200 +1.
	assert.InDelta(t, 1.0, a.ComponentScores.Technical.Float64, 1e-12)
	// ROE above good +1, debt ratio at good +1, PER lowest of two tech peers +0.5.
	assert.InDelta(t, 2.5/3, a.ComponentScores.Fundamental.Float64, 1e-12)
	assert.InDelta(t, 0.4, a.ComponentScores.Sentiment.Float64, 1e-12)
	assert.Equal(t, Computed{Technical: true, Fundamental: true, Sentiment: true}, a.Computed)
	assert.InDelta(t, 0.3*1+0.45*2.5/3+0.25*0.4, a.CompositeScore, 1e-12)
	assert.Equal(t, Buy, a.Classification)
	assert.Equal(t, 1, a.Rank)
	assert.Len(t, a.Contributions, 7)

	b := res["BBB"]
	// RSI overbought -1, below SMA_200 -1; MACD and Bollinger inactive.
	assert.InDelta(t, -1.0, b.ComponentScores.Technical.Float64, 1e-12)
	assert.False(t, b.Computed.Sentiment)
	require.True(t, b.ComponentScores.Sentiment.Valid)
	assert.Equal(t, 0.0, b.ComponentScores.Sentiment.Float64)
	assert.InDelta(t, 1.0, b.EffectiveWeights.Sum(), 1e-12)
	assert.InDelta(t, DefaultSentimentWeight, b.EffectiveWeights.Sentiment, 1e-12)

	c := res["CCC"]
	// Alone in its sector, the peer rule is inactive: no fundamental signal.
	assert.False(t, c.Computed.Technical)
	assert.False(t, c.Computed.Fundamental)
	assert.InDelta(t, -0.2, c.CompositeScore, 1e-12)
	assert.InDelta(t, 1.0, c.EffectiveWeights.Sentiment, 1e-12)
}

func TestScreen_RedistributeMissingSentiment(t *testing.T) {
	e := newEngine(t, func(c *Config) { c.RedistributeMissingSentiment = true })
	batch, err := e.Screen(universe())
	require.NoError(t, err)

	b := byID(batch)["BBB"]
	assert.False(t, b.ComponentScores.Sentiment.Valid)
	assert.Zero(t, b.EffectiveWeights.Sentiment)
	assert.InDelta(t, 1.0, b.EffectiveWeights.Sum(), 1e-12)
}

func TestScreen_CompositeIsOrderInvariant(t *testing.T) {
	e := newEngine(t, nil)
	inputs := universe()

	first, err := e.Screen(inputs)
	require.NoError(t, err)

	reversed := make([]Input, len(inputs))
	for i, in := range inputs {
		reversed[len(inputs)-1-i] = in
	}
	second, err := e.Screen(reversed)
	require.NoError(t, err)

	a, b := byID(first), byID(second)
	require.Equal(t, len(a), len(b))
	for id, r := range a {
		assert.Equal(t, r.CompositeScore, b[id].CompositeScore, id)
		assert.Equal(t, r.Rank, b[id].Rank, id)
	}
}

func TestScreen_RejectsDuplicateIDs(t *testing.T) {
	e := newEngine(t, nil)
	_, err := e.Screen([]Input{sentimentOnly("A", 0.1), sentimentOnly("A", 0.2)})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"weights above one", func(c *Config) { c.Weights.Sentiment = 0.3 }},
		{"weights below one", func(c *Config) { c.Weights = Weights{Technical: 0.3, Fundamental: 0.3, Sentiment: 0.3} }},
		{"negative weight", func(c *Config) { c.Weights = Weights{Technical: -0.5, Fundamental: 1, Sentiment: 0.5} }},
		{"avoid not below buy", func(c *Config) { c.AvoidThreshold = c.BuyThreshold }},
		{"band without range", func(c *Config) {
			c.TechnicalRules = []TechnicalRule{{Kind: RuleBand, Value: "RSI_14", Low: 70, High: 30}}
		}},
		{"unknown rule kind", func(c *Config) {
			c.TechnicalRules = []TechnicalRule{{Kind: "magic", Value: "RSI_14"}}
		}},
		{"cross without reference", func(c *Config) {
			c.TechnicalRules = []TechnicalRule{{Kind: RuleCross, Value: "MACD"}}
		}},
		{"absolute without range", func(c *Config) {
			c.FundamentalRules = []FundamentalRule{{Ratio: "ROE", Mode: ModeAbsolute}}
		}},
		{"unknown mode", func(c *Config) {
			c.FundamentalRules = []FundamentalRule{{Ratio: "ROE", Mode: "sector"}}
		}},
		{"margin of safety at minus one", func(c *Config) { c.MinMarginOfSafety = -1 }},
		{"targets without ATR key", func(c *Config) { c.Targets.ATRKey = "" }},
		{"max loss of one", func(c *Config) { c.Targets.MaxLoss = 1 }},
		{"negative upside", func(c *Config) { c.Targets.BaseUpside = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewEngine(cfg)
			assert.ErrorIs(t, err, domain.ErrInvalidParameter)
		})
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 1.0, cfg.Weights.Sum(), 1e-12)
}

func TestTechnicalRule_Cross(t *testing.T) {
	rule := TechnicalRule{Kind: RuleCross, Value: "MACD", Reference: "MACD_SIGNAL"}

	tests := []struct {
		name       string
		cur, prev  [2]float64
		want       float64
		wantActive bool
	}{
		{"bullish", [2]float64{1.1, 1.0}, [2]float64{0.9, 1.0}, 1, true},
		{"bearish", [2]float64{0.9, 1.0}, [2]float64{1.1, 1.0}, -1, true},
		{"no cross", [2]float64{1.2, 1.0}, [2]float64{1.1, 1.0}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind := indicatorResult(
				map[string]float64{"MACD": tt.cur[0], "MACD_SIGNAL": tt.cur[1]},
				map[string]float64{"MACD": tt.prev[0], "MACD_SIGNAL": tt.prev[1]},
			)
			got, active := rule.evaluate(ind)
			assert.Equal(t, tt.wantActive, active)
			assert.Equal(t, tt.want, got)
		})
	}

	_, active := rule.evaluate(indicatorResult(map[string]float64{"MACD": 1, "MACD_SIGNAL": 1}, nil))
	assert.False(t, active)
}

func TestFundamentalRule_Absolute(t *testing.T) {
	rule := FundamentalRule{Ratio: "DEBT_RATIO", Mode: ModeAbsolute, Bad: 0.8, Good: 0.3}
	fund := func(v float64) domain.FundamentalResult { return domain.FundamentalResult{"DEBT_RATIO": domain.Defined(v)} }

	got, ok := rule.evaluate(fund(0.55), "", nil)
	require.True(t, ok)
	assert.InDelta(t, 0.0, got, 1e-12)

	got, _ = rule.evaluate(fund(0.1), "", nil)
	assert.Equal(t, 1.0, got)
	got, _ = rule.evaluate(fund(0.95), "", nil)
	assert.Equal(t, -1.0, got)

	_, ok = rule.evaluate(domain.FundamentalResult{"DEBT_RATIO": domain.Undefined()}, "", nil)
	assert.False(t, ok)
}
