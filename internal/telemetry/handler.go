package telemetry

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Handler serves the aggregated telemetry stats.
type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

// NewHandler creates a stats handler over the aggregator.
func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "telemetry-handler"),
	}
}

// Stats writes the current AggregatedStats as JSON.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.aggregator.Stats()); err != nil {
		h.logger.Error("failed to write stats response", "error", err)
	}
}
