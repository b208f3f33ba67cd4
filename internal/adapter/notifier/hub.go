package notifier

import (
	"context"
	"sync"

	"nftloan-backend/internal/domain/event"

	"go.uber.org/zap"
)

var (
	_ event.Notifier   = (*Hub)(nil)
	_ event.Subscriber = (*Hub)(nil)
)

// Hub fans events out to in-process subscribers. A subscriber whose buffer
// is full misses the event; it is logged and the publisher moves on.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan event.Event
	nextID uint64
	log    *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{subs: make(map[uint64]chan event.Event), log: log}
}

func (h *Hub) Subscribe(buffer int) (<-chan event.Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan event.Event, buffer)

	h.mu.Lock()
	subID := h.nextID
	h.nextID++
	h.subs[subID] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, subID)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Publish(_ context.Context, e event.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for subID, ch := range h.subs {
		select {
		case ch <- e:
		default:
			h.log.Warn("subscriber lagging, event dropped",
				zap.Uint64("subscriber", subID),
				zap.String("kind", string(e.Kind)),
				zap.Uint64("order_id", e.OrderID),
			)
		}
	}
	return nil
}

// Source delivers events from outside the process, e.g. a RedisSubscriber.
type Source interface {
	Subscribe(ctx context.Context, handler func(event.Event)) error
}

// Feed republishes every event src delivers to the hub's subscribers until
// ctx ends.
func (h *Hub) Feed(ctx context.Context, src Source) error {
	return src.Subscribe(ctx, func(e event.Event) { _ = h.Publish(ctx, e) })
}

// Subscribers reports the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
