package notifier

import (
	"context"
	"encoding/json"

	"nftloan-backend/internal/domain/event"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultRedisChannel = "loan-orders.events"

type RedisPublisher struct {
	client  *redis.Client
	channel string
	log     *zap.Logger
}

func NewRedisPublisher(client *redis.Client, channel string, log *zap.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisPublisher{client: client, channel: channel, log: log}
}

func (p *RedisPublisher) Publish(ctx context.Context, e event.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, string(data)).Err()
}

type RedisSubscriber struct {
	client  *redis.Client
	channel string
	log     *zap.Logger
}

func NewRedisSubscriber(client *redis.Client, channel string, log *zap.Logger) *RedisSubscriber {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisSubscriber{client: client, channel: channel, log: log}
}

// Subscribe calls handler for every event on the channel until ctx ends.
// It returns once the subscription is confirmed.
func (s *RedisSubscriber) Subscribe(ctx context.Context, handler func(event.Event)) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	ch := pubsub.Channel()

	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var e event.Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					s.log.Error("failed to unmarshal event", zap.Error(err))
					continue
				}
				handler(e)
			}
		}
	}()

	return nil
}
