package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const defaultBufferSize = 64

// Filter narrows a subscription. Zero value matches every event.
type Filter struct {
	// RequestID limits the subscription to one planning run.
	RequestID string

	// Types limits the subscription to the listed event types.
	Types []Type
}

// Matches reports whether the event passes the filter.
func (f Filter) Matches(e Event) bool {
	if f.RequestID != "" && f.RequestID != e.RequestID {
		return false
	}
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if t == e.Type {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// Bus fans planning events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full loses the event rather than stalling the
// pipeline or its peers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]*subscription
	logger      *slog.Logger
	closed      bool
}

type subscription struct {
	id     string
	ch     chan Event
	filter Filter
	ctx    context.Context
}

// NewBus creates an event bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[string]*subscription),
		logger:      logger,
	}
}

// Publish delivers the event to every matching live subscriber.
func (b *Bus) Publish(e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("event bus is closed")
	}

	for _, sub := range b.subscribers {
		select {
		case <-sub.ctx.Done():
			continue
		default:
		}
		if !sub.filter.Matches(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			b.logger.Warn("dropping event for slow subscriber",
				"subscriber", sub.id,
				"type", e.Type,
				"request_id", e.RequestID)
		}
	}
	return nil
}

// Subscribe registers a subscriber. The returned cleanup function must be
// called; it removes the subscription and closes the channel. bufferSize 0
// uses the default.
func (b *Bus) Subscribe(ctx context.Context, filter Filter, bufferSize int) (<-chan Event, func()) {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	sub := &subscription{
		id:     uuid.NewString(),
		ch:     make(chan Event, bufferSize),
		filter: filter,
		ctx:    ctx,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		closed := make(chan Event)
		close(closed)
		return closed, func() {}
	}
	b.subscribers[sub.id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			_, live := b.subscribers[sub.id]
			delete(b.subscribers, sub.id)
			b.mu.Unlock()
			// Close may have already removed the subscription and
			// closed the channel; only close it if we removed it.
			if live {
				close(sub.ch)
			}
		})
	}
	return sub.ch, cancel
}

// Close shuts the bus down; further publishes fail and all subscriber
// channels are closed.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}
	return nil
}
