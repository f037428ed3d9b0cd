// Package fundamentals derives ratio metrics from periodic financial
// statements and, for valuation ratios, the current market quote.
//
// Every ratio is always present in the result. A ratio whose input is
// missing, or whose denominator is zero (or negative where only a positive
// denominator is meaningful), is undefined. Compute never fails, so one
// security with partial disclosures cannot abort a batch.
package fundamentals

import (
	"math"

	"github.com/aristath/valuescreen/internal/domain"
)

// Ratio names.
const (
	ROE              = "ROE"
	ROA              = "ROA"
	OperatingMargin  = "OPERATING_MARGIN"
	NetMargin        = "NET_MARGIN"
	DebtRatio        = "DEBT_RATIO"
	DebtToEquity     = "DEBT_TO_EQUITY"
	EquityRatio      = "EQUITY_RATIO"
	CurrentRatio     = "CURRENT_RATIO"
	AssetTurnover    = "ASSET_TURNOVER"
	RevenueGrowth    = "REVENUE_GROWTH"
	NetIncomeGrowth  = "NET_INCOME_GROWTH"
	EquityGrowth     = "EQUITY_GROWTH"
	RevenueCAGR      = "REVENUE_CAGR"
	NetIncomeCAGR    = "NET_INCOME_CAGR"
	EquityCAGR       = "EQUITY_CAGR"
	EPS              = "EPS"
	BPS              = "BPS"
	PER              = "PER"
	PBR              = "PBR"
	PEG              = "PEG"
	ProfitableStreak = "CONSECUTIVE_PROFIT_PERIODS"
)

var allRatios = []string{
	ROE, ROA, OperatingMargin, NetMargin, DebtRatio, DebtToEquity, EquityRatio,
	CurrentRatio, AssetTurnover, RevenueGrowth, NetIncomeGrowth, EquityGrowth,
	RevenueCAGR, NetIncomeCAGR, EquityCAGR, EPS, BPS, PER, PBR, PEG, ProfitableStreak,
	FairValuePER, FairValuePBR, FairValueROE, FairValue, MarginOfSafety,
}

// Engine computes fundamental ratios and fair value estimates. It holds only
// its valuation parameters and is safe for concurrent use.
type Engine struct {
	valuation valuer
}

// NewEngine creates a fundamentals engine with DefaultValuation.
func NewEngine() *Engine {
	return &Engine{valuation: newValuer(DefaultValuation())}
}

// NewEngineWithValuation validates v and creates an engine using it.
func NewEngineWithValuation(v Valuation) (*Engine, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &Engine{valuation: newValuer(v)}, nil
}

// Valuation returns the valuation parameters in use.
func (e *Engine) Valuation() Valuation {
	return e.valuation.cfg
}

// Names lists every ratio Compute reports.
func (e *Engine) Names() []string {
	return append([]string(nil), allRatios...)
}

// Compute derives all ratios. Snapshots may arrive in any order; they are
// sorted by period first. Balance sheet and margin ratios use the latest
// snapshot, growth compares it to the one before, CAGR spans the whole
// history. quote may be nil, leaving the valuation ratios undefined.
// Fair PER falls back to the default multiple; use ComputeSector to apply a
// sector multiple.
func (e *Engine) Compute(snapshots []domain.FinancialStatementSnapshot, quote *domain.MarketQuote) domain.FundamentalResult {
	return e.ComputeSector("", snapshots, quote)
}

// ComputeSector is Compute with the fair PER of sector.
func (e *Engine) ComputeSector(sector string, snapshots []domain.FinancialStatementSnapshot, quote *domain.MarketQuote) domain.FundamentalResult {
	result := make(domain.FundamentalResult, len(allRatios))
	for _, name := range allRatios {
		result[name] = domain.Undefined()
	}
	if len(snapshots) == 0 {
		return result
	}

	sorted := domain.SortedSnapshots(snapshots)
	cur := sorted[len(sorted)-1]

	result[ROE] = domain.Ratio(cur.NetIncome, cur.Equity, true)
	result[ROA] = domain.Ratio(cur.NetIncome, cur.TotalAssets, true)
	result[OperatingMargin] = domain.Ratio(cur.OperatingIncome, cur.Revenue, true)
	result[NetMargin] = domain.Ratio(cur.NetIncome, cur.Revenue, true)
	result[DebtRatio] = domain.Ratio(cur.TotalLiabilities, cur.TotalAssets, true)
	result[DebtToEquity] = domain.Ratio(cur.TotalLiabilities, cur.Equity, true)
	result[EquityRatio] = domain.Ratio(cur.Equity, cur.TotalAssets, true)
	result[CurrentRatio] = domain.Ratio(cur.CurrentAssets, cur.CurrentLiabilities, true)
	result[AssetTurnover] = domain.Ratio(cur.Revenue, cur.TotalAssets, true)

	if len(sorted) > 1 {
		prior := sorted[len(sorted)-2]
		result[RevenueGrowth] = growth(cur.Revenue, prior.Revenue)
		result[NetIncomeGrowth] = growth(cur.NetIncome, prior.NetIncome)
		result[EquityGrowth] = growth(cur.Equity, prior.Equity)

		first := sorted[0]
		periods := len(sorted) - 1
		result[RevenueCAGR] = cagr(first.Revenue, cur.Revenue, periods)
		result[NetIncomeCAGR] = cagr(first.NetIncome, cur.NetIncome, periods)
		result[EquityCAGR] = cagr(first.Equity, cur.Equity, periods)
	}

	result[ProfitableStreak] = domain.Defined(float64(profitableStreak(sorted)))

	if quote != nil {
		eps := domain.Ratio(cur.NetIncome, quote.SharesOutstanding, true)
		bps := domain.Ratio(cur.Equity, quote.SharesOutstanding, true)
		result[EPS] = eps
		result[BPS] = bps

		per := domain.Ratio(quote.Price, eps, true)
		result[PER] = per
		result[PBR] = domain.Ratio(quote.Price, bps, true)
		result[PEG] = peg(per, result[NetIncomeGrowth])

		e.valuation.apply(result, sector, quote.Price)
	}
	return result
}

// growth is (current - prior) / |prior|.
func growth(current, prior domain.Value) domain.Value {
	if !current.Valid || !prior.Valid || prior.Float64 == 0 {
		return domain.Undefined()
	}
	return domain.Defined((current.Float64 - prior.Float64) / math.Abs(prior.Float64))
}

// cagr is the compound growth rate per period between two positive endpoints.
func cagr(first, last domain.Value, periods int) domain.Value {
	if !first.Valid || !last.Valid || periods < 1 || first.Float64 <= 0 || last.Float64 <= 0 {
		return domain.Undefined()
	}
	return domain.Defined(math.Pow(last.Float64/first.Float64, 1/float64(periods)) - 1)
}

// peg divides PER by net income growth expressed in percent. Shrinking or
// flat earnings have no meaningful PEG.
func peg(per, netIncomeGrowth domain.Value) domain.Value {
	if !netIncomeGrowth.Valid || netIncomeGrowth.Float64 <= 0 {
		return domain.Undefined()
	}
	return domain.Ratio(per, domain.Defined(netIncomeGrowth.Float64*100), true)
}

// profitableStreak counts periods with positive net income, walking back from
// the latest. An undisclosed net income ends the streak.
func profitableStreak(sorted []domain.FinancialStatementSnapshot) int {
	streak := 0
	for i := len(sorted) - 1; i >= 0; i-- {
		ni := sorted[i].NetIncome
		if !ni.Valid || ni.Float64 <= 0 {
			break
		}
		streak++
	}
	return streak
}
