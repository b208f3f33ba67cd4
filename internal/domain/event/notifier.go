package event

import "context"

// Notifier delivers events to one sink (in-process hub, Redis channel, Kafka topic).
type Notifier interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber hands out event streams. The returned func releases the
// subscription and closes the channel.
type Subscriber interface {
	Subscribe(buffer int) (<-chan Event, func())
}

type OutboxRepository interface {
	Append(ctx context.Context, r *OutboxRecord) error
	// ListPending returns undelivered records in commit order.
	ListPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkDelivered(ctx context.Context, ids []uint64, at int64) error
}
