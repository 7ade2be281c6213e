package handlers

import (
	"net/http"

	"github.com/wonny/synthlab/backend/internal/contracts"
	"github.com/wonny/synthlab/backend/pkg/logger"
)

// StatsHandler serves the dashboard stats cards
type StatsHandler struct {
	recorder contracts.HistoryRecorder
	logger   *logger.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(recorder contracts.HistoryRecorder, log *logger.Logger) *StatsHandler {
	return &StatsHandler{recorder: recorder, logger: log}
}

// Get returns the dashboard aggregates
// GET /api/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.recorder.Stats(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get dashboard stats")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
