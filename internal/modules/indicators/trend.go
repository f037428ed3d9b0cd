package indicators

import (
	"github.com/aristath/valuescreen/internal/domain"
	"github.com/aristath/valuescreen/pkg/formulas"
)

// step consumes one bar and returns the indicator value at that bar.
type step func(bar domain.PriceBar) domain.Value

// closeFold adapts a (value, ok) fold over closing prices into a step.
func closeFold(next func(float64) (float64, bool)) step {
	return func(bar domain.PriceBar) domain.Value {
		v, ok := next(bar.Close)
		if !ok {
			return domain.Undefined()
		}
		return domain.Defined(v)
	}
}

func newSMA(p Params) step { return closeFold(formulas.NewSMA(p.Period).Next) }

func newEMA(p Params) step { return closeFold(formulas.NewEMA(p.Period).Next) }

func newWMA(p Params) step { return closeFold(formulas.NewWMA(p.Period).Next) }

// newDEMA computes 2·EMA(n) - EMA(EMA(n)). The outer EMA is seeded once n
// inner values exist, so the first value appears at bar 2n-2.
func newDEMA(p Params) step {
	inner := formulas.NewEMA(p.Period)
	outer := formulas.NewEMA(p.Period)
	return func(bar domain.PriceBar) domain.Value {
		e1, ok := inner.Next(bar.Close)
		if !ok {
			return domain.Undefined()
		}
		e2, ok := outer.Next(e1)
		if !ok {
			return domain.Undefined()
		}
		return domain.Defined(2*e1 - e2)
	}
}

// newEMADistance is the relative gap between close and EMA(n).
func newEMADistance(p Params) step {
	ema := formulas.NewEMA(p.Period)
	return func(bar domain.PriceBar) domain.Value {
		e, ok := ema.Next(bar.Close)
		if !ok || e == 0 {
			return domain.Undefined()
		}
		return domain.Defined((bar.Close - e) / e)
	}
}

// macdPoint is one bar of the MACD family.
type macdPoint struct {
	macd, signal domain.Value
}

// newMACDFold computes MACD = EMA(fast) - EMA(slow) and its signal line,
// EMA(signal) of MACD. MACD exists from bar slow-1, the signal line from bar
// slow+signal-2.
func newMACDFold(p Params) func(domain.PriceBar) macdPoint {
	fast := formulas.NewEMA(p.Fast)
	slow := formulas.NewEMA(p.Slow)
	signal := formulas.NewEMA(p.Signal)
	return func(bar domain.PriceBar) macdPoint {
		f, fok := fast.Next(bar.Close)
		s, sok := slow.Next(bar.Close)
		if !fok || !sok {
			return macdPoint{}
		}
		m := f - s
		out := macdPoint{macd: domain.Defined(m)}
		if sig, ok := signal.Next(m); ok {
			out.signal = domain.Defined(sig)
		}
		return out
	}
}

func newMACD(p Params) step {
	fold := newMACDFold(p)
	return func(bar domain.PriceBar) domain.Value { return fold(bar).macd }
}

func newMACDSignal(p Params) step {
	fold := newMACDFold(p)
	return func(bar domain.PriceBar) domain.Value { return fold(bar).signal }
}

func newMACDHist(p Params) step {
	fold := newMACDFold(p)
	return func(bar domain.PriceBar) domain.Value {
		pt := fold(bar)
		if !pt.macd.Valid || !pt.signal.Valid {
			return domain.Undefined()
		}
		return domain.Defined(pt.macd.Float64 - pt.signal.Float64)
	}
}
