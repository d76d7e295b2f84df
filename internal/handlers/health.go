package handlers

import (
	"net/http"
	"runtime"

	"media-catalog/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status          string `json:"status"`
	Ready           bool   `json:"ready"`
	Version         string `json:"version"`
	Uptime          string `json:"uptime"`
	Syncing         bool   `json:"syncing"`
	LastSynced      string `json:"lastSynced,omitempty"`
	InitialRunError string `json:"initialRunError,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Catalog summary
	TotalAssets  int `json:"totalAssets,omitempty"`
	TotalFolders int `json:"totalFolders,omitempty"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	healthStatus := h.runner.GetHealthStatus()

	response := HealthResponse{
		Ready:        healthStatus.Ready,
		Version:      startup.Version,
		Uptime:       healthStatus.Uptime,
		Syncing:      healthStatus.Syncing,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if healthStatus.Ready {
		response.Status = statusHealthy
	} else {
		response.Status = statusStarting
	}

	if healthStatus.LastRun != nil && !healthStatus.LastRun.FinishedAt.IsZero() {
		response.LastSynced = healthStatus.LastRun.FinishedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	if healthStatus.InitialRunError != "" {
		response.InitialRunError = healthStatus.InitialRunError
		response.Status = statusDegraded
	}

	if h.store != nil {
		stats := h.store.GetStats()
		response.TotalAssets = stats.TotalAssets
		response.TotalFolders = stats.TotalFolders
	}

	// Return 503 only if not ready at all
	statusCode := http.StatusOK
	if !healthStatus.Ready {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, statusCode, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only once the initial synchronization finished
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.runner.IsReady() {
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}
