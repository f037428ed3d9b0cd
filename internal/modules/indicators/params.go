package indicators

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/valuescreen/internal/domain"
)

// Session selects where VWAP resets its cumulative sums.
type Session string

const (
	SessionNone    Session = ""
	SessionDaily   Session = "daily"
	SessionWeekly  Session = "weekly"
	SessionMonthly Session = "monthly"
)

// Params are the tunables of an indicator. Each indicator reads only the
// fields it declares; the others are ignored.
type Params struct {
	Period     int     `json:"period,omitempty" yaml:"period,omitempty"`
	Fast       int     `json:"fast,omitempty" yaml:"fast,omitempty"`
	Slow       int     `json:"slow,omitempty" yaml:"slow,omitempty"`
	Signal     int     `json:"signal,omitempty" yaml:"signal,omitempty"`
	Smoothing  int     `json:"smoothing,omitempty" yaml:"smoothing,omitempty"`   // stochastic %D
	Multiplier float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"` // Bollinger k
	Session    Session `json:"session,omitempty" yaml:"session,omitempty"`

	// SessionBoundary overrides Session with a caller supplied predicate
	// reporting whether cur starts a new VWAP session after prev.
	SessionBoundary func(prev, cur time.Time) bool `json:"-" yaml:"-"`
}

// Request names one indicator computation.
type Request struct {
	Name   string `json:"name" yaml:"name"`
	Params Params `json:"params" yaml:"params"`
}

// field flags which Params an indicator reads.
type field uint8

const (
	fieldPeriod field = 1 << iota
	fieldFast
	fieldSlow
	fieldSignal
	fieldSmoothing
	fieldMultiplier
	fieldSession
)

func (f field) has(o field) bool { return f&o != 0 }

// withDefaults fills zero-valued fields the indicator reads from defaults.
func withDefaults(p, defaults Params, fields field) Params {
	if fields.has(fieldPeriod) && p.Period == 0 {
		p.Period = defaults.Period
	}
	if fields.has(fieldFast) && p.Fast == 0 {
		p.Fast = defaults.Fast
	}
	if fields.has(fieldSlow) && p.Slow == 0 {
		p.Slow = defaults.Slow
	}
	if fields.has(fieldSignal) && p.Signal == 0 {
		p.Signal = defaults.Signal
	}
	if fields.has(fieldSmoothing) && p.Smoothing == 0 {
		p.Smoothing = defaults.Smoothing
	}
	if fields.has(fieldMultiplier) && p.Multiplier == 0 {
		p.Multiplier = defaults.Multiplier
	}
	return p
}

func validate(name string, p Params, fields field) error {
	checks := []struct {
		f     field
		label string
		value int
	}{
		{fieldPeriod, "period", p.Period},
		{fieldFast, "fast", p.Fast},
		{fieldSlow, "slow", p.Slow},
		{fieldSignal, "signal", p.Signal},
		{fieldSmoothing, "smoothing", p.Smoothing},
	}
	for _, c := range checks {
		if fields.has(c.f) && c.value <= 0 {
			return domain.NewParameterError(name+"."+c.label, c.value, "must be positive")
		}
	}
	if fields.has(fieldFast|fieldSlow) && p.Fast >= p.Slow {
		return domain.NewParameterError(name+".fast", p.Fast, fmt.Sprintf("must be below slow (%d)", p.Slow))
	}
	if fields.has(fieldMultiplier) && p.Multiplier <= 0 {
		return domain.NewParameterError(name+".multiplier", p.Multiplier, "must be positive")
	}
	if fields.has(fieldSession) {
		switch p.Session {
		case SessionNone, SessionDaily, SessionWeekly, SessionMonthly:
		default:
			return domain.NewParameterError(name+".session", p.Session, "unknown session")
		}
	}
	return nil
}

// key renders the result key of a request, e.g. SMA_20, MACD, BB_UPPER_20.
// Parameters equal to the defaults are left out of multi-parameter keys.
func key(name string, p, defaults Params, fields field) string {
	parts := []string{name}
	switch {
	case fields.has(fieldFast):
		if p.Fast != defaults.Fast || p.Slow != defaults.Slow || p.Signal != defaults.Signal {
			parts = append(parts, strconv.Itoa(p.Fast), strconv.Itoa(p.Slow), strconv.Itoa(p.Signal))
		}
	case fields.has(fieldPeriod):
		parts = append(parts, strconv.Itoa(p.Period))
		if fields.has(fieldSmoothing) && p.Smoothing != defaults.Smoothing {
			parts = append(parts, strconv.Itoa(p.Smoothing))
		}
		if fields.has(fieldMultiplier) && p.Multiplier != defaults.Multiplier {
			parts = append(parts, strconv.FormatFloat(p.Multiplier, 'f', -1, 64))
		}
	}
	if fields.has(fieldSession) && p.SessionBoundary == nil && p.Session != SessionNone {
		parts = append(parts, strings.ToUpper(string(p.Session)))
	}
	return strings.Join(parts, "_")
}

// sessionBreak returns the VWAP reset predicate for p.
func sessionBreak(p Params) func(prev, cur time.Time) bool {
	if p.SessionBoundary != nil {
		return p.SessionBoundary
	}
	switch p.Session {
	case SessionDaily:
		return func(prev, cur time.Time) bool {
			py, pm, pd := prev.Date()
			cy, cm, cd := cur.Date()
			return py != cy || pm != cm || pd != cd
		}
	case SessionWeekly:
		return func(prev, cur time.Time) bool {
			py, pw := prev.ISOWeek()
			cy, cw := cur.ISOWeek()
			return py != cy || pw != cw
		}
	case SessionMonthly:
		return func(prev, cur time.Time) bool {
			return prev.Year() != cur.Year() || prev.Month() != cur.Month()
		}
	default:
		return func(time.Time, time.Time) bool { return false }
	}
}
