package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"nftloan-backend/internal/domain/event"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { w.closed = true; return nil }

func TestKafkaPublisher_KeysByOrder(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}
	at := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	e := event.Event{ID: "x", Kind: event.KindOrderLiquidated, OrderID: 21, Sequence: 3, OccurredAt: at}
	if err := p.Publish(context.Background(), e); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d", len(w.msgs))
	}
	m := w.msgs[0]
	if string(m.Key) != "21" || !m.Time.Equal(at) {
		t.Fatalf("unexpected key/time: %s %v", m.Key, m.Time)
	}
	var got event.Event
	if err := json.Unmarshal(m.Value, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got.Kind != event.KindOrderLiquidated || got.Sequence != 3 {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if len(m.Headers) != 2 || string(m.Headers[1].Value) != "21:3" {
		t.Fatalf("unexpected headers: %+v", m.Headers)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Fatalf("Close: %v closed=%v", err, w.closed)
	}
}

func TestKafkaPublisher_PropagatesWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{writer: &fakeWriter{err: boom}}
	if err := p.Publish(context.Background(), event.Event{OrderID: 1}); !errors.Is(err, boom) {
		t.Fatalf("want %v, got %v", boom, err)
	}
}
