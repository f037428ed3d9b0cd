// Package screening combines technical, fundamental and sentiment records
// into a classified, densely ranked screening output.
package screening

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/valuescreen/internal/domain"
	"github.com/aristath/valuescreen/pkg/formulas"
)

// Classification is the screening decision for one security.
type Classification string

const (
	Buy   Classification = "BUY"
	Hold  Classification = "HOLD"
	Avoid Classification = "AVOID"
)

// rankTolerance is how close two composite scores must be to share a rank.
const rankTolerance = 1e-9

// Input is everything the screen needs for one security.
type Input struct {
	SecurityID   string                   `json:"security_id"`
	Sector       string                   `json:"sector,omitempty"`
	Indicators   domain.IndicatorResult   `json:"indicators"`
	Fundamentals domain.FundamentalResult `json:"fundamentals"`
	Sentiment    domain.SentimentResult   `json:"sentiment"`
}

// Computed flags which components had a signal of their own.
type Computed struct {
	Technical   bool `json:"technical"`
	Fundamental bool `json:"fundamental"`
	Sentiment   bool `json:"sentiment"`
}

// Contribution is the signal of one rule, kept for diagnostics.
type Contribution struct {
	Category string  `json:"category"`
	Rule     string  `json:"rule"`
	Signal   float64 `json:"signal"`
}

// Result is the screening outcome of one ranked security.
type Result struct {
	SecurityID       string         `json:"security_id"`
	Sector           string         `json:"sector,omitempty"`
	CompositeScore   float64        `json:"composite_score"`
	Classification   Classification `json:"classification"`
	ComponentScores  Components     `json:"component_scores"`
	Computed         Computed       `json:"computed"`
	EffectiveWeights Weights        `json:"effective_weights"`
	Contributions    []Contribution `json:"contributions"`
	Rank             int            `json:"rank"`

	// TargetPrice and StopLoss are set for BUY (both) and AVOID (stop only)
	// when price targets are configured and CLOSE is defined.
	TargetPrice domain.Value `json:"target_price"`
	StopLoss    domain.Value `json:"stop_loss"`

	MarginOfSafety domain.Value `json:"margin_of_safety"`
	Undervalued    bool         `json:"undervalued"`
}

// Exclusion records a security left out of the ranking. It unwraps to
// domain.ErrInsufficientData.
type Exclusion struct {
	SecurityID string `json:"security_id"`
	Reason     string `json:"reason"`
}

func (e Exclusion) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.SecurityID, domain.ErrInsufficientData, e.Reason)
}

func (e Exclusion) Unwrap() error { return domain.ErrInsufficientData }

// ExcludedIDs returns the security ids of exclusions, in order.
func ExcludedIDs(exclusions []Exclusion) []string {
	ids := make([]string, len(exclusions))
	for i, e := range exclusions {
		ids[i] = e.SecurityID
	}
	return ids
}

// noSignalReason explains an exclusion from the missing components.
const noSignalReason = "no technical, fundamental or sentiment signal"

// Batch is the output of one screening call.
type Batch struct {
	Ranked []Result `json:"ranked"`
	// InsufficientData lists securities without any signal, sorted by id.
	InsufficientData []Exclusion `json:"insufficient_data"`
}

// Engine screens batches against a validated configuration.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("screening config: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Screen scores every input, classifies it and assigns dense ranks by
// composite score, highest first. Peer-relative rules compare securities
// within this batch only. Each security's composite score does not depend on
// input order.
//
// Securities lacking technical, fundamental and sentiment signal alike are
// reported in InsufficientData instead of being ranked. Duplicate security
// ids are rejected with ErrInvalidParameter.
func (e *Engine) Screen(inputs []Input) (Batch, error) {
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		if in.SecurityID == "" {
			return Batch{}, domain.NewParameterError("security_id", in.SecurityID, "is required")
		}
		if _, dup := seen[in.SecurityID]; dup {
			return Batch{}, domain.NewParameterError("security_id", in.SecurityID, "duplicated in batch")
		}
		seen[in.SecurityID] = struct{}{}
	}

	peers := buildPeerGroups(inputs, e.cfg.FundamentalRules)
	batch := Batch{Ranked: make([]Result, 0, len(inputs)), InsufficientData: []Exclusion{}}
	for _, in := range inputs {
		res, ok := e.score(in, peers)
		if !ok {
			batch.InsufficientData = append(batch.InsufficientData, Exclusion{SecurityID: in.SecurityID, Reason: noSignalReason})
			continue
		}
		batch.Ranked = append(batch.Ranked, res)
	}

	sort.Slice(batch.InsufficientData, func(i, j int) bool {
		return batch.InsufficientData[i].SecurityID < batch.InsufficientData[j].SecurityID
	})
	Rank(batch.Ranked)
	return batch, nil
}

// score evaluates one security. ok is false when it has no signal at all.
func (e *Engine) score(in Input, peers peerGroups) (Result, bool) {
	res := Result{SecurityID: in.SecurityID, Sector: in.Sector, Contributions: []Contribution{}}

	var techSignals []float64
	for _, rule := range e.cfg.TechnicalRules {
		if s, ok := rule.evaluate(in.Indicators); ok {
			techSignals = append(techSignals, s)
			res.Contributions = append(res.Contributions, Contribution{Category: "technical", Rule: rule.label(), Signal: s})
		}
	}
	var fundSignals []float64
	for _, rule := range e.cfg.FundamentalRules {
		if s, ok := rule.evaluate(in.Fundamentals, in.Sector, peers); ok {
			fundSignals = append(fundSignals, s)
			res.Contributions = append(res.Contributions, Contribution{Category: "fundamental", Rule: rule.label(), Signal: s})
		}
	}

	components := Components{
		Technical:   mean(techSignals),
		Fundamental: mean(fundSignals),
		Sentiment:   in.Sentiment.Score,
	}
	res.Computed = Computed{
		Technical:   components.Technical.Valid,
		Fundamental: components.Fundamental.Valid,
		Sentiment:   components.Sentiment.Valid,
	}
	if !res.Computed.Technical && !res.Computed.Fundamental && !res.Computed.Sentiment {
		return res, false
	}

	if !components.Sentiment.Valid && !e.cfg.RedistributeMissingSentiment {
		components.Sentiment = domain.Defined(0)
	}
	res.ComponentScores = components

	composite, effective := Composite(components, e.cfg.Weights)
	if !composite.Valid {
		// Only zero-weight categories carried a signal.
		composite = domain.Defined(0)
	}
	res.CompositeScore = composite.Float64
	res.EffectiveWeights = effective
	res.Classification = Classify(res.CompositeScore, e.cfg.BuyThreshold, e.cfg.AvoidThreshold)

	res.MarginOfSafety, _ = in.Fundamentals.Get(marginOfSafetyKey)
	res.Undervalued = res.MarginOfSafety.Valid && res.MarginOfSafety.Float64 >= e.cfg.MinMarginOfSafety
	if e.cfg.Targets != nil {
		e.cfg.Targets.apply(&res, in.Indicators)
	}
	return res, true
}

// Classify maps a composite score onto BUY, HOLD or AVOID.
func Classify(score, buy, avoid float64) Classification {
	switch {
	case score >= buy:
		return Buy
	case score <= avoid:
		return Avoid
	default:
		return Hold
	}
}

// Rank sorts results by composite score descending and assigns dense ranks
// starting at 1. Neighbouring scores within rankTolerance share a rank, and
// security id orders the securities of one rank.
func Rank(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CompositeScore != results[j].CompositeScore {
			return results[i].CompositeScore > results[j].CompositeScore
		}
		return results[i].SecurityID < results[j].SecurityID
	})

	rank := 0
	for start := 0; start < len(results); {
		end := start + 1
		for end < len(results) && math.Abs(results[end-1].CompositeScore-results[end].CompositeScore) <= rankTolerance {
			end++
		}
		group := results[start:end]
		sort.SliceStable(group, func(i, j int) bool { return group[i].SecurityID < group[j].SecurityID })
		rank++
		for i := range group {
			group[i].Rank = rank
		}
		start = end
	}
}

func mean(signals []float64) domain.Value {
	if len(signals) == 0 {
		return domain.Undefined()
	}
	return domain.Defined(formulas.Mean(signals))
}
