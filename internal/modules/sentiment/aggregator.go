// Package sentiment reduces scored news items into one signal per security.
package sentiment

import (
	"math"
	"time"

	"github.com/aristath/valuescreen/internal/domain"
	"github.com/aristath/valuescreen/pkg/formulas"
)

// NeutralBand is the absolute score below which an item counts as neutral.
const NeutralBand = 0.05

// Window is an inclusive time range [Start, End].
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// WindowEnding returns the window of the given length ending at end.
func WindowEnding(end time.Time, length time.Duration) Window {
	return Window{Start: end.Add(-length), End: end}
}

// Contains reports whether ts falls inside the window, bounds included.
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && !ts.After(w.End)
}

func (w Window) validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return domain.NewParameterError("sentiment.window", w, "start and end are required")
	}
	if w.End.Before(w.Start) {
		return domain.NewParameterError("sentiment.window", w, "end precedes start")
	}
	return nil
}

// Decay weights items by recency: weight × 0.5^(age / HalfLife), with age
// measured back from the window end.
type Decay struct {
	HalfLife time.Duration `json:"half_life" yaml:"half_life"`
}

func (d Decay) factor(age time.Duration) float64 {
	if age <= 0 {
		return 1
	}
	return math.Pow(0.5, float64(age)/float64(d.HalfLife))
}

// Config selects the weighting policy. A nil Decay weights linearly.
type Config struct {
	Decay *Decay `json:"decay,omitempty" yaml:"decay,omitempty"`
}

// Aggregator computes weighted mean sentiment. It is stateless after
// construction.
type Aggregator struct {
	decay *Decay
}

// NewAggregator validates cfg and returns an aggregator.
func NewAggregator(cfg Config) (*Aggregator, error) {
	if cfg.Decay != nil && cfg.Decay.HalfLife <= 0 {
		return nil, domain.NewParameterError("sentiment.decay.half_life", cfg.Decay.HalfLife, "must be positive")
	}
	a := &Aggregator{}
	if cfg.Decay != nil {
		d := *cfg.Decay
		a.decay = &d
	}
	return a, nil
}

// Aggregate filters items to window and returns
//
//	score = Σ(sentiment × weight) / Σ(weight)
//
// With no items in the window the score is undefined and SampleCount is 0.
// Items whose weights sum to zero are counted but leave the score undefined.
// Scores are clamped to [-1, 1] and negative weights are treated as zero.
func (a *Aggregator) Aggregate(items []domain.NewsItem, window Window) (domain.SentimentResult, error) {
	result := domain.SentimentResult{
		Score:       domain.Undefined(),
		WindowStart: window.Start,
		WindowEnd:   window.End,
	}
	if err := window.validate(); err != nil {
		return result, err
	}

	scores := make([]float64, 0, len(items))
	weights := make([]float64, 0, len(items))
	for _, item := range items {
		if !window.Contains(item.Timestamp) || math.IsNaN(item.SentimentScore) {
			continue
		}
		score := formulas.Clamp(item.SentimentScore, -1, 1)
		weight := item.SourceWeight
		if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
			weight = 0
		}
		if a.decay != nil {
			weight *= a.decay.factor(window.End.Sub(item.Timestamp))
		}

		switch {
		case math.Abs(score) < NeutralBand:
			result.NeutralCount++
		case score > 0:
			result.PositiveCount++
		default:
			result.NegativeCount++
		}
		scores = append(scores, score)
		weights = append(weights, weight)
		result.TotalWeight += weight
	}

	result.SampleCount = len(scores)
	if mean, ok := formulas.WeightedMean(scores, weights); ok {
		result.Score = domain.Defined(formulas.Clamp(mean, -1, 1))
	}
	return result, nil
}
