package handlers

import (
	"net/http"
	"strconv"

	"media-catalog/internal/backup"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
	"media-catalog/internal/synchronizer"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 500
)

// StatusResponse describes the catalog and its synchronization state.
type StatusResponse struct {
	synchronizer.HealthStatus
	Catalog    metrics.Stats    `json:"catalog"`
	HasChanges bool             `json:"hasChanges"`
	Backups    []backup.Archive `json:"backups,omitempty"`
}

// TriggerSync starts a synchronization run in the background.
func (h *Handlers) TriggerSync(w http.ResponseWriter, _ *http.Request) {
	if !h.runner.TriggerRun(synchronizer.TriggerManual) {
		writeJSONResponse(w, http.StatusConflict, map[string]string{"status": "already_running"})
		return
	}
	logging.Info("Manual synchronization triggered")
	writeJSONResponse(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// GetStatus returns the runner state, catalog statistics and backups.
func (h *Handlers) GetStatus(w http.ResponseWriter, _ *http.Request) {
	response := StatusResponse{
		HealthStatus: h.runner.GetHealthStatus(),
		Catalog:      h.store.GetStats(),
		HasChanges:   h.store.HasChanges(),
	}

	if h.backups != nil {
		archives, err := h.backups.List()
		if err != nil {
			logging.Warn("Failed to list backups: %v", err)
		}
		response.Backups = archives
	}

	w.Header().Set("Cache-Control", "no-cache")
	writeJSONResponse(w, http.StatusOK, response)
}

// GetRuns returns the most recent journal entries.
func (h *Handlers) GetRuns(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeJSONError(w, "run journal not available", http.StatusServiceUnavailable)
		return
	}

	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSONError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.journal.LastRuns(r.Context(), limit)
	if err != nil {
		logging.Error("Failed to read run journal: %v", err)
		writeJSONError(w, "failed to read run journal", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, runs)
}
