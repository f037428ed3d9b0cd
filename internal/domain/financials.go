package domain

import "sort"

// FinancialStatementSnapshot is one reporting period of a security's
// statements. Any field may be undefined when the disclosure omitted it.
//
// Period identifiers must sort lexicographically in time order, e.g.
// "2022", "2023" or "2023Q1", "2023Q2".
type FinancialStatementSnapshot struct {
	Period             string `json:"period"`
	Revenue            Value  `json:"revenue"`
	NetIncome          Value  `json:"net_income"`
	TotalAssets        Value  `json:"total_assets"`
	TotalLiabilities   Value  `json:"total_liabilities"`
	Equity             Value  `json:"equity"`
	OperatingIncome    Value  `json:"operating_income"`
	CurrentAssets      Value  `json:"current_assets"`
	CurrentLiabilities Value  `json:"current_liabilities"`
}

// MarketQuote carries the market inputs needed by valuation ratios.
type MarketQuote struct {
	Price             Value `json:"price"`
	SharesOutstanding Value `json:"shares_outstanding"`
}

// SortedSnapshots returns a copy of snapshots ordered by period, oldest first.
func SortedSnapshots(snapshots []FinancialStatementSnapshot) []FinancialStatementSnapshot {
	sorted := make([]FinancialStatementSnapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Period < sorted[j].Period
	})
	return sorted
}
