package indicators

import (
	"github.com/aristath/valuescreen/internal/domain"
	"github.com/aristath/valuescreen/pkg/formulas"
)

// bollingerPoint is one bar of the Bollinger family.
type bollingerPoint struct {
	upper, middle, lower float64
	ok                   bool
}

// newBollingerFold computes SMA(n) ± k × population stddev(n).
func newBollingerFold(p Params) func(domain.PriceBar) bollingerPoint {
	window := formulas.NewRollingWindow(p.Period)
	return func(bar domain.PriceBar) bollingerPoint {
		window.Push(bar.Close)
		if !window.Full() {
			return bollingerPoint{}
		}
		mid := window.Mean()
		band := p.Multiplier * window.PopStdDev()
		return bollingerPoint{upper: mid + band, middle: mid, lower: mid - band, ok: true}
	}
}

func bollingerStep(p Params, pick func(bollingerPoint, domain.PriceBar) domain.Value) step {
	fold := newBollingerFold(p)
	return func(bar domain.PriceBar) domain.Value {
		pt := fold(bar)
		if !pt.ok {
			return domain.Undefined()
		}
		return pick(pt, bar)
	}
}

func newBBUpper(p Params) step {
	return bollingerStep(p, func(pt bollingerPoint, _ domain.PriceBar) domain.Value { return domain.Defined(pt.upper) })
}

func newBBMiddle(p Params) step {
	return bollingerStep(p, func(pt bollingerPoint, _ domain.PriceBar) domain.Value { return domain.Defined(pt.middle) })
}

func newBBLower(p Params) step {
	return bollingerStep(p, func(pt bollingerPoint, _ domain.PriceBar) domain.Value { return domain.Defined(pt.lower) })
}

// newBBPercentB is where close sits within the bands: 0 at the lower band,
// 1 at the upper band, 0.5 when the bands have collapsed.
func newBBPercentB(p Params) step {
	return bollingerStep(p, func(pt bollingerPoint, bar domain.PriceBar) domain.Value {
		width := pt.upper - pt.lower
		if width == 0 {
			return domain.Defined(0.5)
		}
		return domain.Defined((bar.Close - pt.lower) / width)
	})
}

// newBBBandwidth is (upper - lower) / middle.
func newBBBandwidth(p Params) step {
	return bollingerStep(p, func(pt bollingerPoint, _ domain.PriceBar) domain.Value {
		if pt.middle == 0 {
			return domain.Undefined()
		}
		return domain.Defined((pt.upper - pt.lower) / pt.middle)
	})
}

func newStdDev(p Params) step {
	window := formulas.NewRollingWindow(p.Period)
	return func(bar domain.PriceBar) domain.Value {
		window.Push(bar.Close)
		if !window.Full() {
			return domain.Undefined()
		}
		return domain.Defined(window.PopStdDev())
	}
}

// newRangePosition places close within the rolling n-bar high/low range
// (0 = at the low, 1 = at the high). With n = 252 this is the 52-week position.
func newRangePosition(p Params) step {
	highs := formulas.NewRollingMax(p.Period)
	lows := formulas.NewRollingMin(p.Period)
	return func(bar domain.PriceBar) domain.Value {
		hh, full := highs.Push(bar.High)
		ll, _ := lows.Push(bar.Low)
		if !full {
			return domain.Undefined()
		}
		if hh == ll {
			return domain.Defined(0.5)
		}
		return domain.Defined(formulas.Clamp((bar.Close-ll)/(hh-ll), 0, 1))
	}
}

// newDrawdown is close relative to the rolling n-bar high, minus one.
func newDrawdown(p Params) step {
	highs := formulas.NewRollingMax(p.Period)
	return func(bar domain.PriceBar) domain.Value {
		hh, full := highs.Push(bar.High)
		if !full || hh == 0 {
			return domain.Undefined()
		}
		return domain.Defined(bar.Close/hh - 1)
	}
}
