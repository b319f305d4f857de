package telemetry

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/suggestkit/suggestd/pkg/kafka"
)

// Collector buffers suggest events and publishes them to Kafka from a
// single goroutine. Track never blocks the request path: when the buffer is
// full the event is dropped. The event channel is never closed, so Track
// stays safe for handlers still draining during shutdown; events arriving
// after Close are dropped.
type Collector struct {
	producer *kafka.Producer
	eventCh  chan SuggestEvent
	stopCh   chan struct{}
	done     chan struct{}
	stopped  atomic.Bool
	logger   *slog.Logger
}

// NewCollector creates a Collector with the given buffer size.
func NewCollector(producer *kafka.Producer, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 4096
	}
	return &Collector{
		producer: producer,
		eventCh:  make(chan SuggestEvent, bufferSize),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		logger:   slog.Default().With("component", "telemetry-collector"),
	}
}

// Start launches the publish loop. On Close or context cancellation any
// buffered events are drained before the loop exits.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event := <-c.eventCh:
				c.publish(ctx, event)
			case <-c.stopCh:
				c.drain()
				return
			case <-ctx.Done():
				c.drain()
				return
			}
		}
	}()
	c.logger.Info("telemetry collector started", "buffer_size", cap(c.eventCh))
}

// Track enqueues an event for publishing. After Close the event is dropped.
func (c *Collector) Track(event SuggestEvent) {
	if c.stopped.Load() {
		return
	}
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("telemetry event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for the publish loop to finish.
// Safe to call more than once.
func (c *Collector) Close() {
	if !c.stopped.CompareAndSwap(false, true) {
		return
	}
	close(c.stopCh)
	<-c.done
}

func (c *Collector) publish(ctx context.Context, event SuggestEvent) {
	err := c.producer.Publish(ctx, kafka.Event{
		Key:   string(event.Type),
		Value: event,
	})
	if err != nil {
		c.logger.Error("failed to publish telemetry event", "error", err)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.publish(context.Background(), event)
		default:
			return
		}
	}
}
