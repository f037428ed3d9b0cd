package fundamentals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/valuescreen/internal/domain"
)

func v(f float64) domain.Value { return domain.Defined(f) }

func snapshot(period string, revenue, netIncome, equity float64) domain.FinancialStatementSnapshot {
	return domain.FinancialStatementSnapshot{
		Period:             period,
		Revenue:            v(revenue),
		NetIncome:          v(netIncome),
		TotalAssets:        v(2000),
		TotalLiabilities:   v(2000 - equity),
		Equity:             v(equity),
		OperatingIncome:    v(revenue * 0.2),
		CurrentAssets:      v(600),
		CurrentLiabilities: v(300),
	}
}

func history() []domain.FinancialStatementSnapshot {
	// Deliberately out of order.
	return []domain.FinancialStatementSnapshot{
		snapshot("2023", 1100, 110, 1000),
		snapshot("2021", 1000, 80, 800),
		snapshot("2022", 1000, 100, 900),
	}
}

func requireValue(t *testing.T, res domain.FundamentalResult, name string) float64 {
	t.Helper()
	val, ok := res.Get(name)
	require.True(t, ok, "%s missing", name)
	require.True(t, val.Valid, "%s undefined", name)
	return val.Float64
}

func requireUndefined(t *testing.T, res domain.FundamentalResult, name string) {
	t.Helper()
	val, ok := res.Get(name)
	require.True(t, ok, "%s missing", name)
	assert.False(t, val.Valid, "%s should be undefined", name)
}

func TestCompute_Ratios(t *testing.T) {
	quote := &domain.MarketQuote{Price: v(20), SharesOutstanding: v(100)}
	res := NewEngine().Compute(history(), quote)

	assert.InDelta(t, 0.11, requireValue(t, res, ROE), 1e-12)
	assert.InDelta(t, 0.055, requireValue(t, res, ROA), 1e-12)
	assert.InDelta(t, 0.2, requireValue(t, res, OperatingMargin), 1e-12)
	assert.InDelta(t, 0.1, requireValue(t, res, NetMargin), 1e-12)
	assert.InDelta(t, 0.5, requireValue(t, res, DebtRatio), 1e-12)
	assert.InDelta(t, 1.0, requireValue(t, res, DebtToEquity), 1e-12)
	assert.InDelta(t, 0.5, requireValue(t, res, EquityRatio), 1e-12)
	assert.InDelta(t, 2.0, requireValue(t, res, CurrentRatio), 1e-12)
	assert.InDelta(t, 0.55, requireValue(t, res, AssetTurnover), 1e-12)

	assert.InDelta(t, 0.1, requireValue(t, res, RevenueGrowth), 1e-12)
	assert.InDelta(t, 0.1, requireValue(t, res, NetIncomeGrowth), 1e-12)
	assert.InDelta(t, 1000.0/900-1, requireValue(t, res, EquityGrowth), 1e-12)

	assert.InDelta(t, 0.048808848, requireValue(t, res, RevenueCAGR), 1e-9)
	assert.InDelta(t, 0.17260394, requireValue(t, res, NetIncomeCAGR), 1e-8)
	assert.InDelta(t, 0.118033989, requireValue(t, res, EquityCAGR), 1e-9)

	assert.InDelta(t, 1.1, requireValue(t, res, EPS), 1e-12)
	assert.InDelta(t, 10.0, requireValue(t, res, BPS), 1e-12)
	assert.InDelta(t, 20/1.1, requireValue(t, res, PER), 1e-9)
	assert.InDelta(t, 2.0, requireValue(t, res, PBR), 1e-12)
	assert.InDelta(t, (20/1.1)/10, requireValue(t, res, PEG), 1e-9)
	assert.Equal(t, 3.0, requireValue(t, res, ProfitableStreak))

	assert.ElementsMatch(t, NewEngine().Names(), res.Names())
}

func TestCompute_ZeroEquityIsUndefined(t *testing.T) {
	snap := snapshot("2023", 1000, 50, 0)
	res := NewEngine().Compute([]domain.FinancialStatementSnapshot{snap}, &domain.MarketQuote{Price: v(10), SharesOutstanding: v(10)})

	requireUndefined(t, res, ROE)
	requireUndefined(t, res, DebtToEquity)
	requireUndefined(t, res, PBR)
	assert.InDelta(t, 0.025, requireValue(t, res, ROA), 1e-12)
}

func TestCompute_UndefinedInputs(t *testing.T) {
	tests := []struct {
		name      string
		snapshots []domain.FinancialStatementSnapshot
		quote     *domain.MarketQuote
		undefined []string
	}{
		{
			name:      "no snapshots",
			undefined: []string{ROE, ROA, RevenueGrowth, RevenueCAGR, PER, ProfitableStreak},
		},
		{
			name:      "single snapshot has no growth",
			snapshots: []domain.FinancialStatementSnapshot{snapshot("2023", 1000, 100, 500)},
			undefined: []string{RevenueGrowth, NetIncomeGrowth, EquityGrowth, RevenueCAGR, PEG},
		},
		{
			name:      "missing quote",
			snapshots: history(),
			undefined: []string{EPS, BPS, PER, PBR, PEG},
		},
		{
			name:      "negative equity",
			snapshots: []domain.FinancialStatementSnapshot{snapshot("2023", 1000, 100, -50)},
			quote:     &domain.MarketQuote{Price: v(10), SharesOutstanding: v(10)},
			undefined: []string{ROE, DebtToEquity, PBR},
		},
		{
			name: "loss makes PER undefined",
			snapshots: []domain.FinancialStatementSnapshot{
				snapshot("2022", 1000, 100, 500),
				snapshot("2023", 1000, -20, 500),
			},
			quote:     &domain.MarketQuote{Price: v(10), SharesOutstanding: v(10)},
			undefined: []string{PER, PEG, NetIncomeCAGR},
		},
		{
			name: "undisclosed revenue",
			snapshots: []domain.FinancialStatementSnapshot{{
				Period: "2023", NetIncome: v(10), TotalAssets: v(100), Equity: v(50),
			}},
			undefined: []string{OperatingMargin, NetMargin, AssetTurnover, CurrentRatio, DebtRatio},
		},
		{
			name:      "zero shares",
			snapshots: history(),
			quote:     &domain.MarketQuote{Price: v(10), SharesOutstanding: v(0)},
			undefined: []string{EPS, BPS, PER, PBR},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewEngine().Compute(tt.snapshots, tt.quote)
			for _, name := range tt.undefined {
				requireUndefined(t, res, name)
			}
		})
	}
}

func TestCompute_GrowthUsesAbsolutePrior(t *testing.T) {
	res := NewEngine().Compute([]domain.FinancialStatementSnapshot{
		snapshot("2022", 1000, -100, 500),
		snapshot("2023", 1000, 50, 500),
	}, nil)

	assert.InDelta(t, 1.5, requireValue(t, res, NetIncomeGrowth), 1e-12)
	assert.Equal(t, 1.0, requireValue(t, res, ProfitableStreak))
}

func TestCompute_ZeroPriorGrowthIsUndefined(t *testing.T) {
	res := NewEngine().Compute([]domain.FinancialStatementSnapshot{
		snapshot("2022", 0, 100, 500),
		snapshot("2023", 1000, 100, 500),
	}, nil)

	requireUndefined(t, res, RevenueGrowth)
	assert.InDelta(t, 0.0, requireValue(t, res, NetIncomeGrowth), 1e-12)
}

func TestCompute_DoesNotReorderInput(t *testing.T) {
	input := history()
	NewEngine().Compute(input, nil)
	assert.Equal(t, "2023", input[0].Period)
}
