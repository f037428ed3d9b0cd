package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/valuescreen/internal/database"
)

const healthTimeout = 2 * time.Second

// SystemHandlers serves health and host status.
type SystemHandlers struct {
	log     zerolog.Logger
	db      *database.DB
	workers int
	started time.Time
}

// NewSystemHandlers creates system handlers. db may be nil.
func NewSystemHandlers(log zerolog.Logger, db *database.DB, workers int) *SystemHandlers {
	return &SystemHandlers{
		log:     log.With().Str("component", "system_handlers").Logger(),
		db:      db,
		workers: workers,
		started: time.Now(),
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"` // "healthy" or "unhealthy"
	Service  string `json:"service"`
	Database string `json:"database"` // "ok", "disabled" or the failure
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
	Workers       int     `json:"workers"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	HeapBytes     uint64  `json:"heap_bytes"`
	Persistence   bool    `json:"persistence"`
	DatabasePath  string  `json:"database_path,omitempty"`
}

// HandleHealth handles GET /health. A failing database ping reports 503.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "healthy", Service: "valuescreen", Database: "disabled"}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := h.db.QuickCheck(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Database health check failed")
			resp.Status = "unhealthy"
			resp.Database = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}

	h.writeJSON(w, status, resp)
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPct, memPct := h.hostUsage()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	resp := SystemStatusResponse{
		UptimeSeconds: time.Since(h.started).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		Workers:       h.workers,
		CPUPercent:    cpuPct,
		MemoryPercent: memPct,
		HeapBytes:     ms.HeapAlloc,
		Persistence:   h.db != nil,
	}
	if h.db != nil {
		resp.DatabasePath = h.db.Path()
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// hostUsage samples CPU over 100ms and reads memory usage; failures read as 0.
func (h *SystemHandlers) hostUsage() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	}
	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return cpuAvg, 0
	}
	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
