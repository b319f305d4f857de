// Package suggest exposes the per-keystroke suggest API over HTTP: it runs
// the query scorer, applies the score cutoff, picks an intervention for the
// top result, and serves cache and invoke endpoints.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/suggestkit/suggestd/internal/intervention"
	"github.com/suggestkit/suggestd/internal/scorer"
	"github.com/suggestkit/suggestd/internal/telemetry"
	"github.com/suggestkit/suggestd/pkg/errors"
	"github.com/suggestkit/suggestd/pkg/logger"
	"github.com/suggestkit/suggestd/pkg/metrics"
	"github.com/suggestkit/suggestd/pkg/middleware"
)

const (
	defaultLimit = 10
	maxLimit     = 25
)

// Response is the suggest API payload: the threshold-filtered ranking and
// the intervention picked for the top result, if any.
type Response struct {
	Query   string               `json:"query"`
	Results []scorer.ScoredDoc   `json:"results"`
	Picked  *intervention.Picked `json:"picked,omitempty"`
}

// Handler serves the suggest endpoints.
type Handler struct {
	scorer    *scorer.QueryScorer
	picker    *intervention.Picker
	cache     *ResultCache
	collector *telemetry.Collector
	metrics   *metrics.Metrics
	maxScore  int
	logger    *slog.Logger
}

// New creates a Handler. cache, collector, and m may be nil; the handler
// degrades to uncached, untracked operation.
func New(
	sc *scorer.QueryScorer,
	picker *intervention.Picker,
	cache *ResultCache,
	collector *telemetry.Collector,
	m *metrics.Metrics,
	maxScore int,
) *Handler {
	return &Handler{
		scorer:    sc,
		picker:    picker,
		cache:     cache,
		collector: collector,
		metrics:   m,
		maxScore:  maxScore,
		logger:    slog.Default().With("component", "suggest-handler"),
	}
}

// Suggest handles GET /api/v1/suggest?q=<query>&limit=<n>.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limit := defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > maxLimit {
			parsed = maxLimit
		}
		limit = parsed
	}

	compute := func() (*Response, error) {
		return h.compute(r, query, limit), nil
	}

	var resp *Response
	var err error
	cacheHit := false
	if h.cache != nil {
		resp, cacheHit, err = h.cache.GetOrCompute(ctx, query, limit, compute)
	} else {
		resp, err = compute()
	}
	if err != nil {
		log.Error("suggest failed", "query", query, "error", err)
		h.writeError(w, http.StatusInternalServerError, "suggest failed")
		return
	}

	latency := time.Since(start)
	log.Info("suggest completed",
		"query", query,
		"matched", len(resp.Results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	h.observe(resp, cacheHit, latency)
	h.track(ctx, query, resp, cacheHit, latency)

	h.writeJSON(w, http.StatusOK, resp)
}

// compute runs the scorer and picker for one query. The full ranking feeds
// the picker; the response carries only documents within the cutoff.
func (h *Handler) compute(r *http.Request, query string, limit int) *Response {
	ranking := h.scorer.Score(query)

	results := make([]scorer.ScoredDoc, 0, limit)
	for _, doc := range ranking {
		if !doc.Matched || doc.Score > h.maxScore {
			break
		}
		results = append(results, doc)
		if len(results) == limit {
			break
		}
	}

	resp := &Response{Query: query, Results: results}
	if h.picker != nil {
		resp.Picked = h.picker.Pick(r.Context(), ranking)
	}
	return resp
}

// InvokeRequest asks the host to execute a previously picked intervention.
type InvokeRequest struct {
	ID     string              `json:"id"`
	Action intervention.Action `json:"action"`
}

// Invoke handles POST /api/v1/interventions/invoke.
func (h *Handler) Invoke(w http.ResponseWriter, r *http.Request) {
	if h.picker == nil {
		h.writeError(w, http.StatusServiceUnavailable, "interventions are disabled")
		return
	}

	var req InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ID) == "" || req.Action == "" {
		h.writeError(w, http.StatusBadRequest, "id and action are required")
		return
	}

	if err := h.picker.Invoke(r.Context(), req.ID, req.Action); err != nil {
		logger.FromContext(r.Context()).Error("intervention invoke failed",
			"id", req.ID,
			"action", req.Action,
			"error", err,
		)
		h.writeError(w, errors.HTTPStatusCode(err), "intervention invoke failed")
		return
	}

	if h.collector != nil {
		h.collector.Track(telemetry.SuggestEvent{
			Type:         telemetry.EventInvoked,
			Intervention: req.ID,
			Timestamp:    time.Now().UTC(),
			RequestID:    middleware.GetRequestID(r.Context()),
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invoked"})
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) observe(resp *Response, cacheHit bool, latency time.Duration) {
	if h.metrics == nil {
		return
	}
	resultType := "match"
	if len(resp.Results) == 0 {
		resultType = "zero_match"
	}
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
	}
	h.metrics.SuggestQueriesTotal.WithLabelValues(resultType).Inc()
	h.metrics.SuggestLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
	h.metrics.SuggestResultsCount.Observe(float64(len(resp.Results)))
	if h.cache != nil {
		if cacheHit {
			h.metrics.CacheHitsTotal.Inc()
		} else {
			h.metrics.CacheMissesTotal.Inc()
		}
	}
}

func (h *Handler) track(ctx context.Context, query string, resp *Response, cacheHit bool, latency time.Duration) {
	if h.collector == nil {
		return
	}
	eventType := telemetry.EventSuggest
	if len(resp.Results) == 0 {
		eventType = telemetry.EventZeroMatch
	}
	event := telemetry.SuggestEvent{
		Type:        eventType,
		Query:       query,
		WordCount:   len(strings.Fields(query)),
		MatchedDocs: len(resp.Results),
		LatencyMs:   latency.Milliseconds(),
		CacheHit:    cacheHit,
		Timestamp:   time.Now().UTC(),
		RequestID:   middleware.GetRequestID(ctx),
	}
	if len(resp.Results) > 0 {
		event.TopDocument = resp.Results[0].DocumentID
		event.TopScore = resp.Results[0].Score
	}
	h.collector.Track(event)

	if resp.Picked != nil {
		h.collector.Track(telemetry.SuggestEvent{
			Type:         telemetry.EventPicked,
			Query:        query,
			Intervention: resp.Picked.ID,
			Timestamp:    time.Now().UTC(),
			RequestID:    middleware.GetRequestID(ctx),
		})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
