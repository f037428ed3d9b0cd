// Package pipeline runs the per-security engines over a universe and feeds
// their records into the screening reduction.
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/valuescreen/internal/domain"
	"github.com/aristath/valuescreen/internal/modules/fundamentals"
	"github.com/aristath/valuescreen/internal/modules/indicators"
	"github.com/aristath/valuescreen/internal/modules/screening"
	"github.com/aristath/valuescreen/internal/modules/sentiment"
)

// SecurityInput is the pre-fetched raw data of one security.
type SecurityInput struct {
	ID        string                              `json:"id"`
	Sector    string                              `json:"sector,omitempty"`
	Series    domain.PriceSeries                  `json:"series"`
	Snapshots []domain.FinancialStatementSnapshot `json:"snapshots"`
	Quote     *domain.MarketQuote                 `json:"quote,omitempty"`
	News      []domain.NewsItem                   `json:"news"`
}

// Record holds the three engine outputs for one security.
type Record struct {
	SecurityID   string                   `json:"security_id"`
	Sector       string                   `json:"sector,omitempty"`
	Indicators   domain.IndicatorResult   `json:"indicators"`
	Fundamentals domain.FundamentalResult `json:"fundamentals"`
	Sentiment    domain.SentimentResult   `json:"sentiment"`
	// Warning is set when some input was unusable, e.g. a malformed series.
	Warning string `json:"warning,omitempty"`
}

// Config parameterises a runner.
type Config struct {
	Indicators      []indicators.Request
	Screening       screening.Config
	Sentiment       sentiment.Config
	SentimentWindow time.Duration
	// Valuation overrides the fair value parameters; nil uses
	// fundamentals.DefaultValuation.
	Valuation *fundamentals.Valuation
	// AsOf ends every sentiment window. When zero, each security's window
	// ends at its latest bar, or at the current time when the series is
	// empty or unusable.
	AsOf    time.Time
	Workers int
}

// Run is the outcome of one screening batch.
type Run struct {
	ID               string                `json:"id"`
	StartedAt        time.Time             `json:"started_at"`
	FinishedAt       time.Time             `json:"finished_at"`
	SecurityCount    int                   `json:"security_count"`
	Results          []screening.Result    `json:"results"`
	InsufficientData []screening.Exclusion `json:"insufficient_data"`
	// Undervalued lists ranked securities meeting the margin of safety
	// minimum, widest margin first.
	Undervalued []string         `json:"undervalued"`
	Records     []Record         `json:"records,omitempty"`
	Config      screening.Config `json:"config"`
}

// Runner executes screening batches. It is safe for concurrent use.
type Runner struct {
	cfg        Config
	requests   []indicators.Request
	indicators *indicators.Engine
	funds      *fundamentals.Engine
	sentiment  *sentiment.Aggregator
	screen     *screening.Engine
	pool       *WorkerPool
	log        zerolog.Logger
	now        func() time.Time
}

// NewRunner validates the whole configuration up front: indicator requests
// (with defaults filled), screening weights and rules, and the sentiment
// policy. A technical rule referring to an indicator key that is not
// requested is rejected as well.
func NewRunner(cfg Config, log zerolog.Logger) (*Runner, error) {
	ind := indicators.NewEngine()

	requests := make([]indicators.Request, 0, len(cfg.Indicators))
	keys := map[string]struct{}{indicators.CloseKey: {}}
	for _, req := range cfg.Indicators {
		filled, err := ind.WithDefaults(req)
		if err != nil {
			return nil, err
		}
		key, err := ind.Key(filled)
		if err != nil {
			return nil, err
		}
		keys[key] = struct{}{}
		requests = append(requests, filled)
	}
	for _, rule := range cfg.Screening.TechnicalRules {
		for _, k := range []string{rule.Value, rule.Reference, rule.Upper} {
			if k == "" {
				continue
			}
			if _, ok := keys[k]; !ok {
				return nil, domain.NewParameterError("technical_rules."+rule.Name, k, "indicator key is not requested")
			}
		}
	}

	screen, err := screening.NewEngine(cfg.Screening)
	if err != nil {
		return nil, err
	}
	agg, err := sentiment.NewAggregator(cfg.Sentiment)
	if err != nil {
		return nil, err
	}
	if cfg.SentimentWindow <= 0 {
		return nil, domain.NewParameterError("sentiment_window", cfg.SentimentWindow, "must be positive")
	}
	funds := fundamentals.NewEngine()
	if cfg.Valuation != nil {
		if funds, err = fundamentals.NewEngineWithValuation(*cfg.Valuation); err != nil {
			return nil, err
		}
	}

	return &Runner{
		cfg:        cfg,
		requests:   requests,
		indicators: ind,
		funds:      funds,
		sentiment:  agg,
		screen:     screen,
		pool:       NewWorkerPool(cfg.Workers),
		log:        log.With().Str("module", "pipeline").Logger(),
		now:        time.Now,
	}, nil
}

// Requests returns the indicator requests with defaults applied.
func (r *Runner) Requests() []indicators.Request {
	return append([]indicators.Request(nil), r.requests...)
}

// Fundamentals returns the fundamentals engine the runner evaluates with.
func (r *Runner) Fundamentals() *fundamentals.Engine {
	return r.funds
}

// Run computes indicator, fundamental and sentiment records for every input
// on the worker pool, then screens and ranks the batch.
func (r *Runner) Run(inputs []SecurityInput) (*Run, error) {
	run := &Run{
		ID:            uuid.NewString(),
		StartedAt:     r.now().UTC(),
		SecurityCount: len(inputs),
		Config:        r.cfg.Screening,
	}
	log := r.log.With().Str("run_id", run.ID).Logger()
	log.Info().Int("securities", len(inputs)).Int("workers", r.pool.Workers()).Msg("Starting screening run")

	for _, in := range inputs {
		if in.ID == "" {
			return nil, domain.NewParameterError("security.id", in.ID, "is required")
		}
	}

	records := r.pool.EvaluateBatch(inputs, r.evaluate)

	screenInputs := make([]screening.Input, len(records))
	for i, rec := range records {
		if rec.Warning != "" {
			log.Warn().Str("security", rec.SecurityID).Str("reason", rec.Warning).Msg("Degraded security input")
		}
		screenInputs[i] = screening.Input{
			SecurityID:   rec.SecurityID,
			Sector:       rec.Sector,
			Indicators:   rec.Indicators,
			Fundamentals: rec.Fundamentals,
			Sentiment:    rec.Sentiment,
		}
	}

	batch, err := r.screen.Screen(screenInputs)
	if err != nil {
		log.Error().Err(err).Msg("Screening failed")
		return nil, fmt.Errorf("screen batch: %w", err)
	}
	warnings := make(map[string]string, len(records))
	for _, rec := range records {
		if rec.Warning != "" {
			warnings[rec.SecurityID] = rec.Warning
		}
	}
	for i, ex := range batch.InsufficientData {
		if w, ok := warnings[ex.SecurityID]; ok {
			batch.InsufficientData[i].Reason = ex.Reason + "; " + w
		}
		log.Debug().Str("security", ex.SecurityID).Str("reason", batch.InsufficientData[i].Reason).Msg("Insufficient data, excluded from ranking")
	}

	run.Results = batch.Ranked
	run.InsufficientData = batch.InsufficientData
	run.Undervalued = screening.Undervalued(batch.Ranked, 0)
	run.Records = records
	run.FinishedAt = r.now().UTC()

	log.Info().
		Int("ranked", len(run.Results)).
		Int("insufficient", len(run.InsufficientData)).
		Int("undervalued", len(run.Undervalued)).
		Dur("duration", run.FinishedAt.Sub(run.StartedAt)).
		Msg("Screening run completed")
	return run, nil
}

// evaluate runs the three engines for one security. Data problems degrade to
// undefined values; configuration was validated in NewRunner.
func (r *Runner) evaluate(in SecurityInput) Record {
	rec := Record{SecurityID: in.ID, Sector: in.Sector}
	var warnings []string

	series := in.Series
	if series.SecurityID == "" {
		series.SecurityID = in.ID
	}
	validSeries := true
	ind, err := r.indicators.Snapshot(series, r.requests)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("price series ignored: %v", err))
		ind = r.undefinedIndicators()
		validSeries = false
	}
	rec.Indicators = ind

	rec.Fundamentals = r.funds.ComputeSector(in.Sector, in.Snapshots, in.Quote)

	window := sentiment.WindowEnding(r.windowEnd(series, validSeries), r.cfg.SentimentWindow)
	sent, err := r.sentiment.Aggregate(in.News, window)
	if err != nil {
		warnings = append(warnings, err.Error())
	}
	rec.Sentiment = sent
	rec.Warning = strings.Join(warnings, "; ")
	return rec
}

// windowEnd anchors the sentiment window. A series that failed validation
// does not anchor it.
func (r *Runner) windowEnd(series domain.PriceSeries, valid bool) time.Time {
	if !r.cfg.AsOf.IsZero() {
		return r.cfg.AsOf
	}
	if valid {
		if last, ok := series.Last(); ok {
			return last.Timestamp
		}
	}
	return r.now()
}

// undefinedIndicators keeps every requested key present but undefined.
func (r *Runner) undefinedIndicators() domain.IndicatorResult {
	res := domain.NewIndicatorResult()
	res.Values[indicators.CloseKey] = domain.Undefined()
	res.Previous[indicators.CloseKey] = domain.Undefined()
	for _, req := range r.requests {
		key, err := r.indicators.Key(req)
		if err != nil {
			continue
		}
		res.Values[key] = domain.Undefined()
		res.Previous[key] = domain.Undefined()
	}
	return res
}

// DefaultSentimentWindow is the default news lookback.
const DefaultSentimentWindow = 30 * 24 * time.Hour

// DefaultIndicators are the requests the default technical rules read, plus
// a few diagnostics.
func DefaultIndicators() []indicators.Request {
	return []indicators.Request{
		{Name: "RSI", Params: indicators.Params{Period: 14}},
		{Name: "MACD"},
		{Name: "MACD_SIGNAL"},
		{Name: "BB_LOWER", Params: indicators.Params{Period: 20, Multiplier: 2}},
		{Name: "BB_UPPER", Params: indicators.Params{Period: 20, Multiplier: 2}},
		{Name: "SMA", Params: indicators.Params{Period: 200}},
		{Name: "STOCH_K", Params: indicators.Params{Period: 14}},
		{Name: "ATR", Params: indicators.Params{Period: 14}},
		{Name: "ADX", Params: indicators.Params{Period: 14}},
		{Name: "RANGE_POSITION", Params: indicators.Params{Period: 252}},
	}
}

// DefaultConfig wires the default indicators to the default screening rules.
func DefaultConfig() Config {
	valuation := fundamentals.DefaultValuation()
	return Config{
		Indicators:      DefaultIndicators(),
		Screening:       screening.DefaultConfig(),
		SentimentWindow: DefaultSentimentWindow,
		Valuation:       &valuation,
		Workers:         4,
	}
}
