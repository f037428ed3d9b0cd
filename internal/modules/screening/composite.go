package screening

import "github.com/aristath/valuescreen/internal/domain"

// Components are the three category scores of one security, each in [-1, 1]
// or undefined.
type Components struct {
	Technical   domain.Value `json:"technical"`
	Fundamental domain.Value `json:"fundamental"`
	Sentiment   domain.Value `json:"sentiment"`
}

// Composite returns Σ(weight × component) over the defined components, with
// the weights of undefined components redistributed proportionally to the
// rest. The returned weights are the ones actually applied.
//
// The composite is undefined when no component is defined or every defined
// component carries zero weight.
func Composite(c Components, w Weights) (domain.Value, Weights) {
	var effective Weights
	total := 0.0
	if c.Technical.Valid {
		total += w.Technical
	}
	if c.Fundamental.Valid {
		total += w.Fundamental
	}
	if c.Sentiment.Valid {
		total += w.Sentiment
	}
	if total <= 0 {
		return domain.Undefined(), effective
	}

	score := 0.0
	if c.Technical.Valid {
		effective.Technical = w.Technical / total
		score += effective.Technical * c.Technical.Float64
	}
	if c.Fundamental.Valid {
		effective.Fundamental = w.Fundamental / total
		score += effective.Fundamental * c.Fundamental.Float64
	}
	if c.Sentiment.Valid {
		effective.Sentiment = w.Sentiment / total
		score += effective.Sentiment * c.Sentiment.Float64
	}
	return domain.Defined(score), effective
}
