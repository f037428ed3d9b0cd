package indicators

import (
	"math"

	"github.com/aristath/valuescreen/internal/domain"
	"github.com/aristath/valuescreen/pkg/formulas"
)

// newRSI calculates the Relative Strength Index with Wilder smoothing.
//
// RSI Formula:
//
//	RSI = 100 - (100 / (1 + RS))
//	where RS = Wilder(gain) / Wilder(loss) over n periods
//
// Defined from bar n. A window with neither gains nor losses has no RSI.
func newRSI(p Params) step {
	gains := formulas.NewWilder(p.Period)
	losses := formulas.NewWilder(p.Period)
	var prevClose float64
	seen := false

	return func(bar domain.PriceBar) domain.Value {
		if !seen {
			seen = true
			prevClose = bar.Close
			return domain.Undefined()
		}
		change := bar.Close - prevClose
		prevClose = bar.Close

		avgGain, ok := gains.Next(math.Max(change, 0))
		avgLoss, _ := losses.Next(math.Max(-change, 0))
		if !ok {
			return domain.Undefined()
		}
		if avgLoss == 0 {
			if avgGain == 0 {
				return domain.Undefined()
			}
			return domain.Defined(100)
		}
		rs := avgGain / avgLoss
		return domain.Defined(100 - 100/(1+rs))
	}
}

// stochasticPoint is one bar of the stochastic oscillator.
type stochasticPoint struct {
	k, d domain.Value
}

// newStochasticFold computes %K = 100 × (close - LL) / (HH - LL) over n bars
// and %D = SMA(smoothing) of %K. A flat range puts %K at the midpoint.
func newStochasticFold(p Params) func(domain.PriceBar) stochasticPoint {
	highs := formulas.NewRollingMax(p.Period)
	lows := formulas.NewRollingMin(p.Period)
	d := formulas.NewSMA(p.Smoothing)

	return func(bar domain.PriceBar) stochasticPoint {
		hh, full := highs.Push(bar.High)
		ll, _ := lows.Push(bar.Low)
		if !full {
			return stochasticPoint{}
		}
		k := 50.0
		if hh > ll {
			k = 100 * (bar.Close - ll) / (hh - ll)
		}
		out := stochasticPoint{k: domain.Defined(k)}
		if dv, ok := d.Next(k); ok {
			out.d = domain.Defined(dv)
		}
		return out
	}
}

func newStochK(p Params) step {
	fold := newStochasticFold(p)
	return func(bar domain.PriceBar) domain.Value { return fold(bar).k }
}

func newStochD(p Params) step {
	fold := newStochasticFold(p)
	return func(bar domain.PriceBar) domain.Value { return fold(bar).d }
}

// newWilliamsR is the inverse scaled stochastic: -100 × (HH - close) / (HH - LL),
// in [-100, 0].
func newWilliamsR(p Params) step {
	highs := formulas.NewRollingMax(p.Period)
	lows := formulas.NewRollingMin(p.Period)
	return func(bar domain.PriceBar) domain.Value {
		hh, full := highs.Push(bar.High)
		ll, _ := lows.Push(bar.Low)
		if !full {
			return domain.Undefined()
		}
		if hh == ll {
			return domain.Defined(-50)
		}
		return domain.Defined(-100 * (hh - bar.Close) / (hh - ll))
	}
}

// newROC is the n-bar rate of change in percent.
func newROC(p Params) step {
	lag := formulas.NewLag(p.Period)
	return func(bar domain.PriceBar) domain.Value {
		past, ok := lag.Push(bar.Close)
		if !ok || past == 0 {
			return domain.Undefined()
		}
		return domain.Defined((bar.Close/past - 1) * 100)
	}
}

// newMomentum is close minus the close n bars ago.
func newMomentum(p Params) step {
	lag := formulas.NewLag(p.Period)
	return func(bar domain.PriceBar) domain.Value {
		past, ok := lag.Push(bar.Close)
		if !ok {
			return domain.Undefined()
		}
		return domain.Defined(bar.Close - past)
	}
}

// newCCI is the commodity channel index over typical price:
//
//	CCI = (TP - SMA(TP)) / (0.015 × mean deviation)
//
// The mean absolute deviation has no recurrence and is computed from the
// window itself.
func newCCI(p Params) step {
	window := formulas.NewRollingWindow(p.Period)
	return func(bar domain.PriceBar) domain.Value {
		tp := typicalPrice(bar)
		window.Push(tp)
		if !window.Full() {
			return domain.Undefined()
		}
		mean := window.Mean()
		dev := 0.0
		for i := 0; i < window.Size(); i++ {
			dev += math.Abs(window.At(i) - mean)
		}
		dev /= float64(window.Size())
		if dev == 0 {
			return domain.Defined(0)
		}
		return domain.Defined((tp - mean) / (0.015 * dev))
	}
}

func typicalPrice(bar domain.PriceBar) float64 {
	return (bar.High + bar.Low + bar.Close) / 3
}
