package cache

import (
	"context"
	"testing"
	"time"

	"nftloan-backend/internal/domain/event"
	domain "nftloan-backend/internal/domain/order"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func newTestCache(t *testing.T, ttl time.Duration) (*OrderCache, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewOrderCache(rdb, ttl, nil), s
}

func TestOrderCache_SetGetInvalidate(t *testing.T) {
	c, s := newTestCache(t, time.Minute)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, 4); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	o := &domain.Order{OrderID: 4, Borrower: "b", RequestedAmount: decimal.RequireFromString("100.25"), OrderStatus: true, Version: 1}
	if err := c.Set(ctx, o); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := s.TTL("loan:order:4"); ttl != time.Minute {
		t.Fatalf("TTL = %v", ttl)
	}

	got, ok, err := c.Get(ctx, 4)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if !got.RequestedAmount.Equal(o.RequestedAmount) || got.Status() != domain.StatusNew {
		t.Fatalf("unexpected cached order: %+v", got)
	}

	if err := c.Invalidate(ctx, 4); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := c.Get(ctx, 4); ok {
		t.Fatalf("order still cached after Invalidate")
	}
}

func TestOrderCache_Expires(t *testing.T) {
	c, s := newTestCache(t, time.Second)
	ctx := context.Background()
	_ = c.Set(ctx, &domain.Order{OrderID: 1})
	s.FastForward(2 * time.Second)
	if _, ok, _ := c.Get(ctx, 1); ok {
		t.Fatalf("entry survived its TTL")
	}
}

func TestOrderCache_WatchInvalidatesOnlyNamedOrder(t *testing.T) {
	c, s := newTestCache(t, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = c.Set(ctx, &domain.Order{OrderID: 1})
	_ = c.Set(ctx, &domain.Order{OrderID: 2})

	events := make(chan event.Event)
	done := make(chan struct{})
	go func() { c.Watch(ctx, events); close(done) }()

	events <- event.Event{Kind: event.KindOrderCanceled, OrderID: 1}
	close(events)
	<-done

	if s.Exists("loan:order:1") {
		t.Fatalf("order 1 still cached")
	}
	if !s.Exists("loan:order:2") {
		t.Fatalf("unrelated order 2 was invalidated")
	}
}
