// Package indicators computes technical indicators over a price series.
//
// Every indicator is a fold over the ordered bars, so a computation is O(n)
// and each output value is aligned with the bar at the same index. Positions
// before an indicator's lookback is satisfied are undefined, never dropped.
package indicators

import (
	"fmt"
	"iter"
	"sort"
	"strings"

	"github.com/aristath/valuescreen/internal/domain"
)

// CloseKey is the indicator-result key carrying the raw closing price.
const CloseKey = "CLOSE"

// Engine is the indicator catalogue. It holds no per-computation state and is
// safe for concurrent use.
type Engine struct{}

// NewEngine creates an indicator engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Names lists the registered indicator names in sorted order.
func (e *Engine) Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defaults returns the default parameters of an indicator.
func (e *Engine) Defaults(name string) (Params, error) {
	def, err := lookup(name)
	if err != nil {
		return Params{}, err
	}
	return def.defaults, nil
}

// WithDefaults fills the unset (zero) parameters of req from the indicator's
// defaults. Negative values are kept so that validation still rejects them.
func (e *Engine) WithDefaults(req Request) (Request, error) {
	def, err := lookup(req.Name)
	if err != nil {
		return req, err
	}
	req.Name = normalizeName(req.Name)
	req.Params = withDefaults(req.Params, def.defaults, def.fields)
	return req, nil
}

// Validate checks the indicator name and its parameters.
func (e *Engine) Validate(req Request) error {
	_, err := e.resolve(req)
	return err
}

// Key returns the result key of req, e.g. "SMA_20" or "MACD".
func (e *Engine) Key(req Request) (string, error) {
	def, err := e.resolve(req)
	if err != nil {
		return "", err
	}
	return key(normalizeName(req.Name), req.Params, def.defaults, def.fields), nil
}

// Compute returns a lazy sequence of (bar index, value) pairs for req over
// series. Each iteration of the sequence starts from fresh state.
//
// Errors:
//   - ErrInvalidIndicator for an unknown name
//   - ErrInvalidParameter for a non-positive period
//   - ErrInvalidSeries when the series breaks its ordering invariant
func (e *Engine) Compute(series domain.PriceSeries, req Request) (iter.Seq2[int, domain.Value], error) {
	def, err := e.resolve(req)
	if err != nil {
		return nil, err
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}

	bars := series.Bars
	params := req.Params
	return func(yield func(int, domain.Value) bool) {
		next := def.build(params)
		for i, bar := range bars {
			if !yield(i, next(bar)) {
				return
			}
		}
	}, nil
}

// Collect materialises Compute into a slice of len(series.Bars) values.
func (e *Engine) Collect(series domain.PriceSeries, req Request) ([]domain.Value, error) {
	seq, err := e.Compute(series, req)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Value, 0, len(series.Bars))
	for _, v := range seq {
		out = append(out, v)
	}
	return out, nil
}

// Snapshot evaluates every request and records the values at the last and
// second to last bar, keyed by each request's key. The closing price is
// recorded under CloseKey. Requests are validated before any computation.
func (e *Engine) Snapshot(series domain.PriceSeries, reqs []Request) (domain.IndicatorResult, error) {
	result := domain.NewIndicatorResult()

	keys := make([]string, len(reqs))
	for i, req := range reqs {
		k, err := e.Key(req)
		if err != nil {
			return result, err
		}
		keys[i] = k
	}
	if err := series.Validate(); err != nil {
		return result, err
	}

	n := len(series.Bars)
	result.Values[CloseKey] = domain.Undefined()
	result.Previous[CloseKey] = domain.Undefined()
	if n > 0 {
		result.Values[CloseKey] = domain.Defined(series.Bars[n-1].Close)
	}
	if n > 1 {
		result.Previous[CloseKey] = domain.Defined(series.Bars[n-2].Close)
	}

	for i, req := range reqs {
		seq, err := e.Compute(series, req)
		if err != nil {
			return result, err
		}
		last, prev := domain.Undefined(), domain.Undefined()
		for idx, v := range seq {
			switch idx {
			case n - 2:
				prev = v
			case n - 1:
				last = v
			}
		}
		result.Values[keys[i]] = last
		result.Previous[keys[i]] = prev
	}
	return result, nil
}

func (e *Engine) resolve(req Request) (definition, error) {
	def, err := lookup(req.Name)
	if err != nil {
		return definition{}, err
	}
	if err := validate(normalizeName(req.Name), req.Params, def.fields); err != nil {
		return definition{}, err
	}
	return def, nil
}

func lookup(name string) (definition, error) {
	def, ok := registry[normalizeName(name)]
	if !ok {
		return definition{}, fmt.Errorf("indicator lookup: %w", &domain.IndicatorError{Name: name})
	}
	return def, nil
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
