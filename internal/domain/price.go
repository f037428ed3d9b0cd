package domain

import (
	"fmt"
	"math"
	"time"
)

// PriceBar is one OHLCV observation.
type PriceBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// PriceSeries is the ordered bar history of one security.
// Timestamps are strictly increasing; gaps are allowed, duplicates are not.
type PriceSeries struct {
	SecurityID string     `json:"security_id"`
	Bars       []PriceBar `json:"bars"`
}

// Len returns the number of bars.
func (s PriceSeries) Len() int { return len(s.Bars) }

// Closes extracts closing prices in series order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Last returns the final bar, or false for an empty series.
func (s PriceSeries) Last() (PriceBar, bool) {
	if len(s.Bars) == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Validate checks the ordering invariant and that prices and volume are
// finite and non-negative. It does not judge plausibility (high >= low etc.),
// that belongs to the acquisition layer.
func (s PriceSeries) Validate() error {
	for i, b := range s.Bars {
		if b.Timestamp.IsZero() {
			return fmt.Errorf("%w: bar %d has no timestamp", ErrInvalidSeries, i)
		}
		for _, f := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
			if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%w: bar %d (%s) has a negative or non-finite field",
					ErrInvalidSeries, i, b.Timestamp.Format(time.DateOnly))
			}
		}
		if i > 0 && !b.Timestamp.After(s.Bars[i-1].Timestamp) {
			return fmt.Errorf("%w: bar %d (%s) does not follow %s",
				ErrInvalidSeries, i, b.Timestamp.Format(time.RFC3339),
				s.Bars[i-1].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}
