package telemetry

import (
	"testing"
	"time"
)

func suggestEvent(query string, matched int, latency int64, cacheHit bool) SuggestEvent {
	return SuggestEvent{
		Type:        EventSuggest,
		Query:       query,
		MatchedDocs: matched,
		LatencyMs:   latency,
		CacheHit:    cacheHit,
		Timestamp:   time.Now().UTC(),
	}
}

func TestAggregatorCountsQueries(t *testing.T) {
	agg := NewAggregator()
	agg.Record(suggestEvent("update", 1, 2, false))
	agg.Record(suggestEvent("update", 1, 4, true))
	agg.Record(suggestEvent("zzz", 0, 1, false))

	stats := agg.Stats()
	if stats.TotalQueries != 3 {
		t.Errorf("TotalQueries = %d, want 3", stats.TotalQueries)
	}
	if stats.ZeroMatchCount != 1 {
		t.Errorf("ZeroMatchCount = %d, want 1", stats.ZeroMatchCount)
	}
	if stats.CacheHits != 1 || stats.CacheMisses != 2 {
		t.Errorf("cache hits/misses = %d/%d, want 1/2", stats.CacheHits, stats.CacheMisses)
	}
	if len(stats.TopQueries) == 0 || stats.TopQueries[0].Query != "update" {
		t.Errorf("TopQueries = %v, want update first", stats.TopQueries)
	}
	if len(stats.ZeroMatchQueries) != 1 || stats.ZeroMatchQueries[0].Query != "zzz" {
		t.Errorf("ZeroMatchQueries = %v, want [zzz]", stats.ZeroMatchQueries)
	}
}

func TestAggregatorTracksPicksAndInvokes(t *testing.T) {
	agg := NewAggregator()
	agg.Record(SuggestEvent{Type: EventPicked, Intervention: "update-app"})
	agg.Record(SuggestEvent{Type: EventPicked, Intervention: "update-app"})
	agg.Record(SuggestEvent{Type: EventInvoked, Intervention: "clear-data"})

	stats := agg.Stats()
	if stats.PicksByID["update-app"] != 2 {
		t.Errorf("picks[update-app] = %d, want 2", stats.PicksByID["update-app"])
	}
	if stats.InvokesByID["clear-data"] != 1 {
		t.Errorf("invokes[clear-data] = %d, want 1", stats.InvokesByID["clear-data"])
	}
	// Pick and invoke events are not queries.
	if stats.TotalQueries != 0 {
		t.Errorf("TotalQueries = %d, want 0", stats.TotalQueries)
	}
}

func TestAggregatorLatencyPercentiles(t *testing.T) {
	agg := NewAggregator()
	for i := int64(1); i <= 100; i++ {
		agg.Record(suggestEvent("q", 1, i, false))
	}
	stats := agg.Stats()
	if stats.P50LatencyMs < 45 || stats.P50LatencyMs > 55 {
		t.Errorf("P50 = %d, want ~50", stats.P50LatencyMs)
	}
	if stats.P95LatencyMs < 90 || stats.P95LatencyMs > 100 {
		t.Errorf("P95 = %d, want ~95", stats.P95LatencyMs)
	}
	if stats.AvgLatencyMs < 50 || stats.AvgLatencyMs > 51 {
		t.Errorf("Avg = %f, want 50.5", stats.AvgLatencyMs)
	}
}
