// Package events fans presentation events out to live subscribers such as
// SSE streams and the interactive terminal.
package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jsamuelsen/quotebook/internal/platform/logging"
	"github.com/jsamuelsen/quotebook/internal/platform/metrics"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 16

// ErrHubClosed is returned by Publish after Close.
var ErrHubClosed = errors.New("event hub closed")

// HubConfig contains the hub settings.
type HubConfig struct {
	// Buffer is the per-subscriber queue length. Defaults to DefaultBuffer.
	Buffer int

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Hub implements ports.EventPublisher. A subscriber whose queue is full
// misses the event; publishers never wait.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	next   uint64
	closed bool

	buffer  int
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(cfg HubConfig) *Hub {
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultBuffer
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Hub{
		subs:    make(map[uint64]*Subscription),
		buffer:  cfg.Buffer,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
}

// Publish offers event to every subscriber.
func (h *Hub) Publish(ctx context.Context, event ports.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrHubClosed
	}

	for id, sub := range h.subs {
		select {
		case sub.ch <- event:
			h.metrics.Event(event.EventType(), metrics.DeliveryDelivered)
		default:
			h.metrics.Event(event.EventType(), metrics.DeliveryDropped)
			logging.FromContextOr(ctx, h.logger).DebugContext(ctx, "subscriber queue full, event dropped",
				slog.Uint64("subscriber", id),
				slog.String("event_type", event.EventType()),
			)
		}
	}

	return nil
}

// Subscribe registers a new subscriber. On a closed hub the returned
// subscription's channel is already closed.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	sub := &Subscription{
		id:  h.next,
		ch:  make(chan ports.Event, h.buffer),
		hub: h,
	}

	if h.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}

	h.subs[sub.id] = sub

	return sub
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subs)
}

// Close ends every subscription. Publish fails afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.closed = true

	for id, sub := range h.subs {
		delete(h.subs, id)
		sub.once.Do(func() { close(sub.ch) })
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.id]; !ok {
		return
	}

	delete(h.subs, sub.id)
	sub.once.Do(func() { close(sub.ch) })
}

// Subscription is one consumer's view of the hub.
type Subscription struct {
	id   uint64
	ch   chan ports.Event
	hub  *Hub
	once sync.Once
}

// Events returns the channel events arrive on. It is closed when the
// subscription or the hub is closed.
func (s *Subscription) Events() <-chan ports.Event {
	return s.ch
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}
