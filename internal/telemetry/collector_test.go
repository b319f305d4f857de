package telemetry

import (
	"context"
	"testing"
)

// The producer is nil in these tests; they only exercise lifecycle paths
// where no event reaches Kafka.

func TestCollectorTrackAfterClose(t *testing.T) {
	c := NewCollector(nil, 8)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	cancel()
	c.Close()

	// Handlers still finishing a graceful shutdown keep calling Track;
	// late events must be dropped, never crash the process.
	for i := 0; i < 20; i++ {
		c.Track(SuggestEvent{Type: EventSuggest, Query: "late"})
	}
}

func TestCollectorCloseIdempotent(t *testing.T) {
	c := NewCollector(nil, 8)
	c.Start(context.Background())
	c.Close()
	c.Close()
}

func TestCollectorTrackDropsWhenBufferFull(t *testing.T) {
	// No Start: nothing consumes, so the second event overflows.
	c := NewCollector(nil, 1)
	c.Track(SuggestEvent{Type: EventSuggest, Query: "first"})
	c.Track(SuggestEvent{Type: EventSuggest, Query: "second"})
	if len(c.eventCh) != 1 {
		t.Fatalf("buffered events = %d, want 1", len(c.eventCh))
	}
}
