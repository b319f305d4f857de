// Package telemetry collects suggest-usage events, ships them through
// Kafka, and aggregates them into counters and latency percentiles. An
// aggregate snapshot is periodically persisted to PostgreSQL so the
// counters survive restarts.
package telemetry

import "time"

type EventType string

const (
	EventSuggest   EventType = "suggest"
	EventZeroMatch EventType = "zero_match"
	EventPicked    EventType = "picked"
	EventInvoked   EventType = "invoked"
)

// SuggestEvent records one suggest query and its outcome.
type SuggestEvent struct {
	Type         EventType `json:"type"`
	Query        string    `json:"query"`
	WordCount    int       `json:"word_count"`
	MatchedDocs  int       `json:"matched_docs"`
	TopDocument  string    `json:"top_document,omitempty"`
	TopScore     int       `json:"top_score,omitempty"`
	Intervention string    `json:"intervention,omitempty"`
	LatencyMs    int64     `json:"latency_ms"`
	CacheHit     bool      `json:"cache_hit"`
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"request_id"`
}
