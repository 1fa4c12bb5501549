// Package bus is the in-process message bus delivering translated events to
// the bot consumer.
package bus

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/soyeahso/botbridge/internal/domain"
)

// ErrBusClosed is returned when publishing to a closed Bus.
var ErrBusClosed = errors.New("message bus closed")

// Bus carries internal events from the dispatch core to the consumer. Events
// are owned by the bus once published.
type Bus struct {
	events chan domain.Event
	done   chan struct{}
	closed atomic.Bool
}

// New creates a bus with the given buffer size; size <= 0 defaults to 100.
func New(size int) *Bus {
	if size <= 0 {
		size = 100
	}
	return &Bus{
		events: make(chan domain.Event, size),
		done:   make(chan struct{}),
	}
}

// Publish hands an event to the bus.
func (b *Bus) Publish(ctx context.Context, evt domain.Event) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	select {
	case b.events <- evt:
		return nil
	case <-b.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume blocks for the next event. The second return is false when the bus
// is closed and drained, or the context is done. Events published before
// Close remain consumable.
func (b *Bus) Consume(ctx context.Context) (domain.Event, bool) {
	// Drain buffered events before honoring close.
	select {
	case evt := <-b.events:
		return evt, true
	default:
	}

	select {
	case evt := <-b.events:
		return evt, true
	case <-b.done:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

// Close shuts the bus down; further publishes fail with ErrBusClosed.
func (b *Bus) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.done)
	}
}
