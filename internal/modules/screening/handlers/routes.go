package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all screening routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/screening", func(r chi.Router) {
		r.Post("/run", h.HandleRun)         // Screen a batch of securities
		r.Get("/runs", h.HandleListRuns)    // Latest stored runs
		r.Get("/runs/{id}", h.HandleGetRun) // One stored run
	})

	r.Route("/indicators", func(r chi.Router) {
		r.Get("/", h.HandleListIndicators)            // Registry with defaults
		r.Post("/compute", h.HandleComputeIndicators) // Snapshot or full sequences
	})

	r.Post("/fundamentals/compute", h.HandleComputeFundamentals)
	r.Post("/sentiment/aggregate", h.HandleAggregateSentiment)
}
