package telemetry

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/suggestkit/suggestd/pkg/kafka"
)

// AggregatedStats is a point-in-time summary of suggest usage.
type AggregatedStats struct {
	TotalQueries     int64            `json:"total_queries"`
	ZeroMatchCount   int64            `json:"zero_match_count"`
	CacheHits        int64            `json:"cache_hits"`
	CacheMisses      int64            `json:"cache_misses"`
	PicksByID        map[string]int64 `json:"picks_by_id"`
	InvokesByID      map[string]int64 `json:"invokes_by_id"`
	AvgLatencyMs     float64          `json:"avg_latency_ms"`
	P50LatencyMs     int64            `json:"p50_latency_ms"`
	P95LatencyMs     int64            `json:"p95_latency_ms"`
	P99LatencyMs     int64            `json:"p99_latency_ms"`
	TopQueries       []QueryCount     `json:"top_queries"`
	ZeroMatchQueries []QueryCount     `json:"zero_match_queries"`
	QueriesPerMinute float64          `json:"queries_per_minute"`
}

// QueryCount pairs a query string with how often it was seen.
type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator consumes telemetry events from Kafka and folds them into
// in-memory counters.
type Aggregator struct {
	mu               sync.RWMutex
	totalQueries     atomic.Int64
	zeroMatches      atomic.Int64
	cacheHits        atomic.Int64
	cacheMisses      atomic.Int64
	latencies        []int64
	queryCounts      map[string]int64
	zeroMatchQueries map[string]int64
	picks            map[string]int64
	invokes          map[string]int64
	startTime        time.Time

	consumer *kafka.Consumer
	logger   *slog.Logger
}

// NewAggregator creates an Aggregator. Attach the Kafka consumer with
// SetConsumer; the consumer should use HandleEvent(agg) as its handler.
func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:        make([]int64, 0, 8192),
		queryCounts:      make(map[string]int64),
		zeroMatchQueries: make(map[string]int64),
		picks:            make(map[string]int64),
		invokes:          make(map[string]int64),
		startTime:        time.Now(),
		logger:           slog.Default().With("component", "telemetry-aggregator"),
	}
}

// SetConsumer attaches the Kafka consumer driving this aggregator.
func (a *Aggregator) SetConsumer(consumer *kafka.Consumer) {
	a.consumer = consumer
}

// Start enters the consume loop until ctx is cancelled.
func (a *Aggregator) Start(ctx context.Context) error {
	a.logger.Info("telemetry aggregator starting")
	return a.consumer.Start(ctx)
}

// HandleEvent returns the Kafka message handler that feeds the aggregator.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[SuggestEvent](value)
		if err != nil {
			agg.logger.Error("failed to decode telemetry event", "error", err)
			return nil
		}
		agg.Record(event)
		return nil
	}
}

// Record folds one event into the counters.
func (a *Aggregator) Record(event SuggestEvent) {
	switch event.Type {
	case EventPicked:
		a.mu.Lock()
		a.picks[event.Intervention]++
		a.mu.Unlock()
		return
	case EventInvoked:
		a.mu.Lock()
		a.invokes[event.Intervention]++
		a.mu.Unlock()
		return
	}

	a.totalQueries.Add(1)
	if event.CacheHit {
		a.cacheHits.Add(1)
	} else {
		a.cacheMisses.Add(1)
	}
	if event.MatchedDocs == 0 {
		a.zeroMatches.Add(1)
	}

	a.mu.Lock()
	a.latencies = append(a.latencies, event.LatencyMs)
	a.queryCounts[event.Query]++
	if event.MatchedDocs == 0 {
		a.zeroMatchQueries[event.Query]++
	}
	a.mu.Unlock()
}

// Stats returns a snapshot of the aggregate counters.
func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalQueries:   a.totalQueries.Load(),
		ZeroMatchCount: a.zeroMatches.Load(),
		CacheHits:      a.cacheHits.Load(),
		CacheMisses:    a.cacheMisses.Load(),
		PicksByID:      copyCounts(a.picks),
		InvokesByID:    copyCounts(a.invokes),
	}

	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}

	stats.TopQueries = topCounts(a.queryCounts, 10)
	stats.ZeroMatchQueries = topCounts(a.zeroMatchQueries, 10)

	minutes := time.Since(a.startTime).Minutes()
	if minutes > 0 {
		stats.QueriesPerMinute = float64(stats.TotalQueries) / minutes
	}
	return stats
}

func percentile(sorted []int64, p int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topCounts(counts map[string]int64, limit int) []QueryCount {
	out := make([]QueryCount, 0, len(counts))
	for q, n := range counts {
		out = append(out, QueryCount{Query: q, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Query < out[j].Query
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
