package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"nftloan-backend/internal/domain/event"
	domain "nftloan-backend/internal/domain/order"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "loan:order:"

// OrderCache keeps JSON snapshots of orders in Redis with a TTL.
type OrderCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewOrderCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *OrderCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderCache{rdb: rdb, ttl: ttl, log: log}
}

func key(orderID uint64) string { return keyPrefix + strconv.FormatUint(orderID, 10) }

func (c *OrderCache) Get(ctx context.Context, orderID uint64) (*domain.Order, bool, error) {
	v, err := c.rdb.Get(ctx, key(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var o domain.Order
	if err := json.Unmarshal(v, &o); err != nil {
		return nil, false, err
	}
	return &o, true, nil
}

func (c *OrderCache) Set(ctx context.Context, o *domain.Order) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key(o.OrderID), payload, c.ttl).Err()
}

func (c *OrderCache) Invalidate(ctx context.Context, orderID uint64) error {
	return c.rdb.Del(ctx, key(orderID)).Err()
}

// Watch drops the cached order named by each event until events closes or
// ctx ends.
func (c *OrderCache) Watch(ctx context.Context, events <-chan event.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := c.Invalidate(ctx, e.OrderID); err != nil {
				c.log.Warn("cache invalidation failed", zap.Uint64("order_id", e.OrderID), zap.Error(err))
			}
		}
	}
}
