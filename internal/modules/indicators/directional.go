package indicators

import (
	"math"

	"github.com/aristath/valuescreen/internal/domain"
	"github.com/aristath/valuescreen/pkg/formulas"
)

// trueRange folds bars into true range values. The first bar has no previous
// close and therefore no true range.
func trueRange() func(domain.PriceBar) (float64, bool) {
	var prevClose float64
	seen := false
	return func(bar domain.PriceBar) (float64, bool) {
		if !seen {
			seen = true
			prevClose = bar.Close
			return 0, false
		}
		tr := math.Max(bar.High-bar.Low, math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
		prevClose = bar.Close
		return tr, true
	}
}

func newTrueRange(Params) step {
	tr := trueRange()
	return func(bar domain.PriceBar) domain.Value {
		v, ok := tr(bar)
		if !ok {
			return domain.Undefined()
		}
		return domain.Defined(v)
	}
}

// atrFold is the Wilder smoothed average of true range, defined from bar n.
func atrFold(p Params) func(domain.PriceBar) (float64, bool) {
	tr := trueRange()
	wilder := formulas.NewWilder(p.Period)
	return func(bar domain.PriceBar) (float64, bool) {
		v, ok := tr(bar)
		if !ok {
			return 0, false
		}
		return wilder.Next(v)
	}
}

func newATR(p Params) step {
	fold := atrFold(p)
	return func(bar domain.PriceBar) domain.Value {
		v, ok := fold(bar)
		if !ok {
			return domain.Undefined()
		}
		return domain.Defined(v)
	}
}

// newNATR is ATR as a percentage of close.
func newNATR(p Params) step {
	fold := atrFold(p)
	return func(bar domain.PriceBar) domain.Value {
		v, ok := fold(bar)
		if !ok || bar.Close == 0 {
			return domain.Undefined()
		}
		return domain.Defined(v / bar.Close * 100)
	}
}

// directionalPoint is one bar of the +DI / -DI / ADX family.
type directionalPoint struct {
	plusDI, minusDI, adx domain.Value
}

// newDirectionalFold implements Wilder's directional movement system.
//
//	+DM = up move when it exceeds the down move and is positive, else 0
//	-DM = down move when it exceeds the up move and is positive, else 0
//	±DI = 100 × Wilder(±DM) / Wilder(TR)
//	DX  = 100 × |+DI - -DI| / (+DI + -DI)
//	ADX = Wilder(DX)
//
// ±DI are defined from bar n, ADX from bar 2n-1. A window without any range
// (smoothed TR of zero) carries no directional movement, so DI and DX are 0.
func newDirectionalFold(p Params) func(domain.PriceBar) directionalPoint {
	tr := trueRange()
	smTR := formulas.NewWilder(p.Period)
	smPlus := formulas.NewWilder(p.Period)
	smMinus := formulas.NewWilder(p.Period)
	smDX := formulas.NewWilder(p.Period)

	var prev domain.PriceBar
	seen := false

	return func(bar domain.PriceBar) directionalPoint {
		t, ok := tr(bar)
		if !seen {
			seen = true
			prev = bar
			return directionalPoint{}
		}
		up := bar.High - prev.High
		down := prev.Low - bar.Low
		prev = bar

		plusDM, minusDM := 0.0, 0.0
		if up > down && up > 0 {
			plusDM = up
		}
		if down > up && down > 0 {
			minusDM = down
		}

		atr, ok1 := smTR.Next(t)
		sp, ok2 := smPlus.Next(plusDM)
		sm, ok3 := smMinus.Next(minusDM)
		if !ok || !ok1 || !ok2 || !ok3 {
			return directionalPoint{}
		}

		plusDI, minusDI := 0.0, 0.0
		if atr > 0 {
			plusDI = 100 * sp / atr
			minusDI = 100 * sm / atr
		}
		dx := 0.0
		if sum := plusDI + minusDI; sum > 0 {
			dx = 100 * math.Abs(plusDI-minusDI) / sum
		}

		out := directionalPoint{plusDI: domain.Defined(plusDI), minusDI: domain.Defined(minusDI)}
		if adx, ok := smDX.Next(dx); ok {
			out.adx = domain.Defined(adx)
		}
		return out
	}
}

func newPlusDI(p Params) step {
	fold := newDirectionalFold(p)
	return func(bar domain.PriceBar) domain.Value { return fold(bar).plusDI }
}

func newMinusDI(p Params) step {
	fold := newDirectionalFold(p)
	return func(bar domain.PriceBar) domain.Value { return fold(bar).minusDI }
}

func newADX(p Params) step {
	fold := newDirectionalFold(p)
	return func(bar domain.PriceBar) domain.Value { return fold(bar).adx }
}
