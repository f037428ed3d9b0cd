// Package handlers provides HTTP handlers for the screening API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/valuescreen/internal/config"
	"github.com/aristath/valuescreen/internal/domain"
	"github.com/aristath/valuescreen/internal/modules/fundamentals"
	"github.com/aristath/valuescreen/internal/modules/indicators"
	"github.com/aristath/valuescreen/internal/modules/pipeline"
	"github.com/aristath/valuescreen/internal/modules/runs"
	"github.com/aristath/valuescreen/internal/modules/sentiment"
)

// maxBodyBytes bounds request bodies; a batch of price histories is large.
const maxBodyBytes = 64 << 20

// RunStore persists screening runs.
type RunStore interface {
	Save(run *pipeline.Run) error
	Get(id string) (*pipeline.Run, error)
	List(limit int) ([]runs.Summary, error)
}

// Handlers provides HTTP handlers for the screening module
type Handlers struct {
	runner     *pipeline.Runner
	workers    int
	indicators *indicators.Engine
	funds      *fundamentals.Engine
	store      RunStore
	log        zerolog.Logger
}

// NewHandlers creates the handlers. store may be nil when run persistence is
// disabled.
func NewHandlers(runner *pipeline.Runner, workers int, store RunStore, log zerolog.Logger) *Handlers {
	return &Handlers{
		runner:     runner,
		workers:    workers,
		indicators: indicators.NewEngine(),
		funds:      runner.Fundamentals(),
		store:      store,
		log:        log.With().Str("module", "screening_handlers").Logger(),
	}
}

// RunRequest is the body of POST /api/screening/run.
type RunRequest struct {
	Securities []pipeline.SecurityInput `json:"securities"`
	// Profile replaces the server profile for this run only.
	Profile *config.Profile `json:"profile,omitempty"`
}

// RunResponse wraps a finished run.
type RunResponse struct {
	Run       *pipeline.Run `json:"run"`
	Persisted bool          `json:"persisted"`
}

// HandleRun handles POST /api/screening/run
func (h *Handlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Securities) == 0 {
		h.writeError(w, "At least one security is required", http.StatusBadRequest)
		return
	}

	runner := h.runner
	if req.Profile != nil {
		custom, err := pipeline.NewRunner(req.Profile.PipelineConfig(h.workers), h.log)
		if err != nil {
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		runner = custom
	}

	run, err := runner.Run(req.Securities)
	if err != nil {
		h.writeError(w, err.Error(), errorStatus(err))
		return
	}

	persisted := false
	if h.store != nil {
		if err := h.store.Save(run); err != nil {
			h.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to persist screening run")
		} else {
			persisted = true
		}
	}

	h.writeJSON(w, http.StatusOK, RunResponse{Run: run, Persisted: persisted})
}

// HandleGetRun handles GET /api/screening/runs/{id}
func (h *Handlers) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, "Run persistence is disabled", http.StatusNotFound)
		return
	}
	id := chi.URLParam(r, "id")
	run, err := h.store.Get(id)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", id).Msg("Failed to load screening run")
		h.writeError(w, "Failed to load run", http.StatusInternalServerError)
		return
	}
	if run == nil {
		h.writeError(w, "Run not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}

// HandleListRuns handles GET /api/screening/runs?limit=N
func (h *Handlers) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeJSON(w, http.StatusOK, []runs.Summary{})
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	summaries, err := h.store.List(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list screening runs")
		h.writeError(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, summaries)
}

// IndicatorInfo describes one registered indicator.
type IndicatorInfo struct {
	Name     string            `json:"name"`
	Defaults indicators.Params `json:"defaults"`
}

// HandleListIndicators handles GET /api/indicators
func (h *Handlers) HandleListIndicators(w http.ResponseWriter, r *http.Request) {
	names := h.indicators.Names()
	infos := make([]IndicatorInfo, 0, len(names))
	for _, name := range names {
		defaults, err := h.indicators.Defaults(name)
		if err != nil {
			continue
		}
		infos = append(infos, IndicatorInfo{Name: name, Defaults: defaults})
	}
	h.writeJSON(w, http.StatusOK, infos)
}

// ComputeIndicatorsRequest is the body of POST /api/indicators/compute.
type ComputeIndicatorsRequest struct {
	Series     domain.PriceSeries   `json:"series"`
	Indicators []indicators.Request `json:"indicators"`
	// Full returns every per-bar value instead of the latest snapshot.
	Full bool `json:"full,omitempty"`
}

// ComputeIndicatorsResponse carries either the snapshot or full sequences.
type ComputeIndicatorsResponse struct {
	SecurityID string                    `json:"security_id"`
	Snapshot   *domain.IndicatorResult   `json:"snapshot,omitempty"`
	Series     map[string][]domain.Value `json:"series,omitempty"`
}

// HandleComputeIndicators handles POST /api/indicators/compute
func (h *Handlers) HandleComputeIndicators(w http.ResponseWriter, r *http.Request) {
	var req ComputeIndicatorsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Indicators) == 0 {
		h.writeError(w, "At least one indicator is required", http.StatusBadRequest)
		return
	}

	requests := make([]indicators.Request, len(req.Indicators))
	for i, ir := range req.Indicators {
		filled, err := h.indicators.WithDefaults(ir)
		if err != nil {
			h.writeError(w, err.Error(), errorStatus(err))
			return
		}
		requests[i] = filled
	}

	resp := ComputeIndicatorsResponse{SecurityID: req.Series.SecurityID}
	if !req.Full {
		snap, err := h.indicators.Snapshot(req.Series, requests)
		if err != nil {
			h.writeError(w, err.Error(), errorStatus(err))
			return
		}
		resp.Snapshot = &snap
		h.writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.Series = make(map[string][]domain.Value, len(requests))
	for _, ir := range requests {
		key, err := h.indicators.Key(ir)
		if err != nil {
			h.writeError(w, err.Error(), errorStatus(err))
			return
		}
		values, err := h.indicators.Collect(req.Series, ir)
		if err != nil {
			h.writeError(w, err.Error(), errorStatus(err))
			return
		}
		resp.Series[key] = values
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// ComputeFundamentalsRequest is the body of POST /api/fundamentals/compute.
// Sector selects the fair PER multiple.
type ComputeFundamentalsRequest struct {
	Sector    string                              `json:"sector,omitempty"`
	Snapshots []domain.FinancialStatementSnapshot `json:"snapshots"`
	Quote     *domain.MarketQuote                 `json:"quote,omitempty"`
}

// HandleComputeFundamentals handles POST /api/fundamentals/compute
func (h *Handlers) HandleComputeFundamentals(w http.ResponseWriter, r *http.Request) {
	var req ComputeFundamentalsRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeJSON(w, http.StatusOK, h.funds.ComputeSector(req.Sector, req.Snapshots, req.Quote))
}

// AggregateSentimentRequest is the body of POST /api/sentiment/aggregate.
// Start and End bound the window (inclusive). DecayHalfLife is a Go duration
// string such as "72h"; empty weights linearly.
type AggregateSentimentRequest struct {
	Items         []domain.NewsItem `json:"items"`
	Start         time.Time         `json:"start"`
	End           time.Time         `json:"end"`
	DecayHalfLife string            `json:"decay_half_life,omitempty"`
}

// HandleAggregateSentiment handles POST /api/sentiment/aggregate
func (h *Handlers) HandleAggregateSentiment(w http.ResponseWriter, r *http.Request) {
	var req AggregateSentimentRequest
	if !h.decode(w, r, &req) {
		return
	}

	var cfg sentiment.Config
	if req.DecayHalfLife != "" {
		halfLife, err := time.ParseDuration(req.DecayHalfLife)
		if err != nil {
			h.writeError(w, "decay_half_life must be a duration such as 72h", http.StatusBadRequest)
			return
		}
		cfg.Decay = &sentiment.Decay{HalfLife: halfLife}
	}
	agg, err := sentiment.NewAggregator(cfg)
	if err != nil {
		h.writeError(w, err.Error(), errorStatus(err))
		return
	}

	res, err := agg.Aggregate(req.Items, sentiment.Window{Start: req.Start, End: req.End})
	if err != nil {
		h.writeError(w, err.Error(), errorStatus(err))
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.log.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to decode request")
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// errorStatus maps configuration errors to 400 and everything else to 500.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidIndicator),
		errors.Is(err, domain.ErrInvalidParameter),
		errors.Is(err, domain.ErrInvalidSeries):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response with status code
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handlers) writeError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
