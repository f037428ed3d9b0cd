package testing

import (
	"math"
	"time"

	"github.com/aristath/valuescreen/internal/domain"
)

// FixtureStart is the timestamp of the first bar of every price fixture.
var FixtureStart = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

// NewPriceSeriesFixture returns n daily bars oscillating around 100 with a
// linear drift per bar. High and Low sit one unit around the close.
func NewPriceSeriesFixture(id string, n int, drift float64) domain.PriceSeries {
	bars := make([]domain.PriceBar, n)
	for i := range bars {
		c := 100 + 8*math.Sin(float64(i)/9) + drift*float64(i)
		bars[i] = domain.PriceBar{
			Timestamp: FixtureStart.AddDate(0, 0, i),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    10_000,
		}
	}
	return domain.PriceSeries{SecurityID: id, Bars: bars}
}

// NewSnapshotFixtures returns two annual statements, oldest first, ending
// with the given net income.
func NewSnapshotFixtures(netIncome float64) []domain.FinancialStatementSnapshot {
	v := domain.Defined
	return []domain.FinancialStatementSnapshot{
		{
			Period: "2022", Revenue: v(1000), NetIncome: v(netIncome * 0.9),
			TotalAssets: v(2000), TotalLiabilities: v(800), Equity: v(1200),
			OperatingIncome: v(150), CurrentAssets: v(500), CurrentLiabilities: v(250),
		},
		{
			Period: "2023", Revenue: v(1100), NetIncome: v(netIncome),
			TotalAssets: v(2100), TotalLiabilities: v(800), Equity: v(1300),
			OperatingIncome: v(180), CurrentAssets: v(550), CurrentLiabilities: v(250),
		},
	}
}

// NewQuoteFixture returns a quote with 100 shares outstanding.
func NewQuoteFixture(price float64) *domain.MarketQuote {
	return &domain.MarketQuote{Price: domain.Defined(price), SharesOutstanding: domain.Defined(100)}
}

// NewNewsFixtures returns one positive and one negative item, one and two
// days before end.
func NewNewsFixtures(end time.Time) []domain.NewsItem {
	return []domain.NewsItem{
		{Timestamp: end.AddDate(0, 0, -1), SentimentScore: 0.6, SourceWeight: 2},
		{Timestamp: end.AddDate(0, 0, -2), SentimentScore: -0.3, SourceWeight: 1},
	}
}
