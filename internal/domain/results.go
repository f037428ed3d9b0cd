package domain

import (
	"sort"
	"time"
)

// IndicatorResult maps indicator keys ("SMA_20", "RSI_14", ...) to their value
// at the latest bar. Previous holds the value one bar earlier so that
// crossover rules can be evaluated without the full sequence.
type IndicatorResult struct {
	Values   map[string]Value `json:"values"`
	Previous map[string]Value `json:"previous"`
}

// NewIndicatorResult returns an empty result ready for writing.
func NewIndicatorResult() IndicatorResult {
	return IndicatorResult{
		Values:   make(map[string]Value),
		Previous: make(map[string]Value),
	}
}

// Get returns the latest value for key; ok is false when key was never requested.
func (r IndicatorResult) Get(key string) (Value, bool) {
	v, ok := r.Values[key]
	return v, ok
}

// Prev returns the previous-bar value for key.
func (r IndicatorResult) Prev(key string) (Value, bool) {
	v, ok := r.Previous[key]
	return v, ok
}

// AnyDefined reports whether at least one requested indicator has a value.
func (r IndicatorResult) AnyDefined() bool {
	return anyDefined(r.Values)
}

// FundamentalResult maps ratio names (ROE, ROA, PER, ...) to values.
type FundamentalResult map[string]Value

// Get returns a ratio; ok is false when it was never computed.
func (r FundamentalResult) Get(name string) (Value, bool) {
	v, ok := r[name]
	return v, ok
}

// AnyDefined reports whether at least one ratio has a value.
func (r FundamentalResult) AnyDefined() bool {
	return anyDefined(r)
}

// Names returns the ratio names in sorted order.
func (r FundamentalResult) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SentimentResult is the aggregated news signal of one security over a window.
type SentimentResult struct {
	Score       Value     `json:"score"`
	SampleCount int       `json:"sample_count"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`

	TotalWeight   float64 `json:"total_weight"`
	PositiveCount int     `json:"positive_count"`
	NegativeCount int     `json:"negative_count"`
	NeutralCount  int     `json:"neutral_count"`
}

func anyDefined(values map[string]Value) bool {
	for _, v := range values {
		if v.Valid {
			return true
		}
	}
	return false
}
