package indicators

import (
	"github.com/aristath/valuescreen/internal/domain"
	"github.com/aristath/valuescreen/pkg/formulas"
)

// newOBV is on-balance volume: volume is added on an up close, subtracted on
// a down close and ignored on an unchanged close. The first bar starts at 0.
func newOBV(Params) step {
	var obv, prevClose float64
	seen := false
	return func(bar domain.PriceBar) domain.Value {
		if seen {
			switch {
			case bar.Close > prevClose:
				obv += bar.Volume
			case bar.Close < prevClose:
				obv -= bar.Volume
			}
		}
		seen = true
		prevClose = bar.Close
		return domain.Defined(obv)
	}
}

// newVWAP is cumulative(typical price × volume) / cumulative(volume), reset
// whenever the session predicate reports a boundary between two bars.
func newVWAP(p Params) step {
	isBreak := sessionBreak(p)
	var pv, vol float64
	var prev domain.PriceBar
	seen := false

	return func(bar domain.PriceBar) domain.Value {
		if seen && isBreak(prev.Timestamp, bar.Timestamp) {
			pv, vol = 0, 0
		}
		seen = true
		prev = bar

		pv += typicalPrice(bar) * bar.Volume
		vol += bar.Volume
		if vol == 0 {
			return domain.Undefined()
		}
		return domain.Defined(pv / vol)
	}
}

// newMFI is the money flow index over n typical price changes:
//
//	MFI = 100 - 100 / (1 + positive flow / negative flow)
func newMFI(p Params) step {
	pos := formulas.NewRollingWindow(p.Period)
	neg := formulas.NewRollingWindow(p.Period)
	var prevTP float64
	seen := false

	return func(bar domain.PriceBar) domain.Value {
		tp := typicalPrice(bar)
		if !seen {
			seen = true
			prevTP = tp
			return domain.Undefined()
		}
		flow := tp * bar.Volume
		switch {
		case tp > prevTP:
			pos.Push(flow)
			neg.Push(0)
		case tp < prevTP:
			pos.Push(0)
			neg.Push(flow)
		default:
			pos.Push(0)
			neg.Push(0)
		}
		prevTP = tp
		if !pos.Full() {
			return domain.Undefined()
		}

		n := float64(pos.Size())
		posFlow, negFlow := pos.Mean()*n, neg.Mean()*n
		if negFlow <= 0 {
			if posFlow <= 0 {
				return domain.Undefined()
			}
			return domain.Defined(100)
		}
		return domain.Defined(100 - 100/(1+posFlow/negFlow))
	}
}
