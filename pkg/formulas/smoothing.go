package formulas

// Smoother is an exponential moving average fold seeded by the simple mean of
// its first n inputs.
//
// EMA Formula:
//
//	EMA_today = EMA_yesterday + alpha × (Price_today - EMA_yesterday)
//
// with alpha = 2/(n+1) for the classic EMA and alpha = 1/n for Wilder
// smoothing (RSI, ATR, ADX).
type Smoother struct {
	period int
	alpha  float64
	count  int
	sum    float64
	value  float64
}

// NewEMA creates a classic exponential smoother (alpha = 2/(n+1)).
func NewEMA(period int) *Smoother {
	if period <= 0 {
		period = 1
	}
	return &Smoother{period: period, alpha: 2.0 / float64(period+1)}
}

// NewWilder creates a Wilder smoother (alpha = 1/n).
func NewWilder(period int) *Smoother {
	if period <= 0 {
		period = 1
	}
	return &Smoother{period: period, alpha: 1.0 / float64(period)}
}

// Next feeds x and returns the smoothed value once the seed window is filled.
func (s *Smoother) Next(x float64) (float64, bool) {
	s.count++
	if s.count < s.period {
		s.sum += x
		return 0, false
	}
	if s.count == s.period {
		s.sum += x
		s.value = s.sum / float64(s.period)
		return s.value, true
	}
	s.value += s.alpha * (x - s.value)
	return s.value, true
}

// Ready reports whether the seed window has been filled.
func (s *Smoother) Ready() bool { return s.count >= s.period }

// Value returns the last smoothed value (zero before Ready).
func (s *Smoother) Value() float64 { return s.value }

// SMA is a rolling arithmetic mean fold.
type SMA struct {
	window *RollingWindow
}

// NewSMA creates a simple moving average over n values.
func NewSMA(period int) *SMA {
	return &SMA{window: NewRollingWindow(period)}
}

// Next feeds x and returns the mean once n values have been seen.
func (s *SMA) Next(x float64) (float64, bool) {
	s.window.Push(x)
	if !s.window.Full() {
		return 0, false
	}
	return s.window.Mean(), true
}

// WMA is a linearly weighted moving average: the newest value has weight n,
// the oldest weight 1. The weighted numerator is updated from its prior value:
//
//	Num_t = Num_{t-1} + n·x_t - Sum_{t-1}
type WMA struct {
	window *RollingWindow
	period int
	sum    float64
	num    float64
	seen   int
}

// NewWMA creates a weighted moving average over n values.
func NewWMA(period int) *WMA {
	if period <= 0 {
		period = 1
	}
	return &WMA{window: NewRollingWindow(period), period: period}
}

// Next feeds x and returns the weighted mean once n values have been seen.
func (w *WMA) Next(x float64) (float64, bool) {
	n := float64(w.period)
	if w.seen < w.period {
		w.seen++
		w.num += float64(w.seen) * x
		w.sum += x
		w.window.Push(x)
	} else {
		oldest := w.window.Oldest()
		w.num += n*x - w.sum
		w.sum += x - oldest
		w.window.Push(x)
	}
	if w.seen < w.period {
		return 0, false
	}
	return w.num / (n * (n + 1) / 2), true
}
