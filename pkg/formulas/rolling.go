// Package formulas contains the numeric building blocks behind the indicator
// and screening engines. Every type here is an amortised O(1)-per-step fold
// over an ordered sequence: smoothing recurrences carry their prior value
// forward and never recompute from raw history.
package formulas

import "math"

// RollingWindow tracks the mean and population variance of the last n pushed
// values. Updates use the sliding form of Welford's algorithm so a window of
// identical values has exactly zero variance. Every n slides the moments are
// recomputed from the held values, so rounding error never accumulates past
// one window.
type RollingWindow struct {
	buf    []float64
	head   int // index of the oldest value once full
	count  int
	mean   float64
	m2     float64
	slides int // since the last recompute
}

// NewRollingWindow creates a window of length n (n must be positive).
func NewRollingWindow(n int) *RollingWindow {
	if n <= 0 {
		n = 1
	}
	return &RollingWindow{buf: make([]float64, n)}
}

// Size returns the window length.
func (w *RollingWindow) Size() int { return len(w.buf) }

// Full reports whether n values have been pushed.
func (w *RollingWindow) Full() bool { return w.count == len(w.buf) }

// Push adds x, evicting the oldest value once the window is full.
func (w *RollingWindow) Push(x float64) {
	n := len(w.buf)
	if w.count < n {
		w.buf[w.count] = x
		w.count++
		delta := x - w.mean
		w.mean += delta / float64(w.count)
		w.m2 += delta * (x - w.mean)
		return
	}

	old := w.buf[w.head]
	w.buf[w.head] = x
	w.head = (w.head + 1) % n

	oldMean := w.mean
	w.mean += (x - old) / float64(n)
	w.m2 += (x - old) * (x - w.mean + old - oldMean)
	if w.m2 < 0 {
		w.m2 = 0
	}

	w.slides++
	if w.slides == n {
		w.recompute()
	}
}

// recompute resets mean and m2 with a two-pass sum over the held values.
func (w *RollingWindow) recompute() {
	w.slides = 0
	lo, hi, sum := w.buf[0], w.buf[0], 0.0
	for _, v := range w.buf {
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		w.mean, w.m2 = lo, 0
		return
	}
	w.mean = sum / float64(len(w.buf))
	w.m2 = 0
	for _, v := range w.buf {
		d := v - w.mean
		w.m2 += d * d
	}
}

// Mean returns the mean of the values currently held.
func (w *RollingWindow) Mean() float64 { return w.mean }

// PopStdDev returns the population standard deviation of the window.
func (w *RollingWindow) PopStdDev() float64 {
	if w.count == 0 {
		return 0
	}
	return math.Sqrt(w.m2 / float64(w.count))
}

// At returns the i-th held value, oldest first.
func (w *RollingWindow) At(i int) float64 {
	if w.count < len(w.buf) {
		return w.buf[i]
	}
	return w.buf[(w.head+i)%len(w.buf)]
}

// Oldest returns the oldest held value.
func (w *RollingWindow) Oldest() float64 { return w.At(0) }

// RollingExtreme tracks the maximum (or minimum) of the last n values using a
// monotonic deque, amortised O(1) per push.
type RollingExtreme struct {
	n      int
	max    bool
	idx    []int
	vals   []float64
	pushed int
}

// NewRollingMax tracks the rolling maximum over n values.
func NewRollingMax(n int) *RollingExtreme { return newRollingExtreme(n, true) }

// NewRollingMin tracks the rolling minimum over n values.
func NewRollingMin(n int) *RollingExtreme { return newRollingExtreme(n, false) }

func newRollingExtreme(n int, max bool) *RollingExtreme {
	if n <= 0 {
		n = 1
	}
	return &RollingExtreme{n: n, max: max}
}

// Push adds x and returns the current extreme and whether the window is full.
func (r *RollingExtreme) Push(x float64) (float64, bool) {
	i := r.pushed
	r.pushed++

	for len(r.vals) > 0 {
		last := r.vals[len(r.vals)-1]
		if (r.max && last > x) || (!r.max && last < x) {
			break
		}
		r.vals = r.vals[:len(r.vals)-1]
		r.idx = r.idx[:len(r.idx)-1]
	}
	r.vals = append(r.vals, x)
	r.idx = append(r.idx, i)

	for r.idx[0] <= i-r.n {
		r.idx = r.idx[1:]
		r.vals = r.vals[1:]
	}

	return r.vals[0], r.pushed >= r.n
}

// Lag remembers the last n+1 values so that x[t-n] is available at step t.
type Lag struct {
	buf    []float64
	pushed int
}

// NewLag creates a lag of n steps.
func NewLag(n int) *Lag {
	if n <= 0 {
		n = 1
	}
	return &Lag{buf: make([]float64, n+1)}
}

// Push records x and returns the value n steps back, if it exists.
func (l *Lag) Push(x float64) (float64, bool) {
	size := len(l.buf)
	l.buf[l.pushed%size] = x
	l.pushed++
	if l.pushed < size {
		return 0, false
	}
	return l.buf[l.pushed%size], true
}
