package notifier

import (
	"context"
	"encoding/json"
	"strconv"

	"nftloan-backend/internal/domain/event"

	"github.com/segmentio/kafka-go"
)

const DefaultKafkaTopic = "loan-order-events"

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by order id so one order's events stay
// on one partition.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (k *KafkaPublisher) Publish(ctx context.Context, e event.Event) error {
	v, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(e.OrderID, 10)),
		Value: v,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-kind", Value: []byte(e.Kind)},
			{Key: "dedup-key", Value: []byte(e.DedupKey())},
		},
	})
}

func (k *KafkaPublisher) Close() error { return k.writer.Close() }
