package notifier

import (
	"context"
	"testing"

	"nftloan-backend/internal/domain/event"
)

func TestHub_DeliversToEverySubscriber(t *testing.T) {
	h := NewHub(nil)
	a, cancelA := h.Subscribe(4)
	b, cancelB := h.Subscribe(4)
	defer cancelA()
	defer cancelB()

	e := event.Event{Kind: event.KindOrderFunded, OrderID: 3, Sequence: 2}
	if err := h.Publish(context.Background(), e); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	for _, ch := range []<-chan event.Event{a, b} {
		got := <-ch
		if got.DedupKey() != "3:2" {
			t.Fatalf("got %+v", got)
		}
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe(1)
	defer cancel()

	for i := uint64(1); i <= 3; i++ {
		if err := h.Publish(context.Background(), event.Event{OrderID: i}); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	if got := <-ch; got.OrderID != 1 {
		t.Fatalf("first buffered event = %d, want 1", got.OrderID)
	}
	select {
	case e := <-ch:
		t.Fatalf("overflow event delivered: %+v", e)
	default:
	}
}

func TestHub_CancelClosesChannel(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe(1)
	if h.Subscribers() != 1 {
		t.Fatalf("Subscribers = %d", h.Subscribers())
	}
	cancel()
	cancel() // idempotent

	if _, ok := <-ch; ok {
		t.Fatalf("channel still open after cancel")
	}
	if h.Subscribers() != 0 {
		t.Fatalf("Subscribers = %d after cancel", h.Subscribers())
	}
	if err := h.Publish(context.Background(), event.Event{OrderID: 1}); err != nil {
		t.Fatalf("Publish after cancel: %v", err)
	}
}
