package order

import (
	"context"
	"sort"

	"nftloan-backend/internal/domain/ledger"
	domain "nftloan-backend/internal/domain/order"

	"go.uber.org/zap"
)

// Cache is a possibly stale per-order read view.
type Cache interface {
	Get(ctx context.Context, orderID uint64) (*domain.Order, bool, error)
	Set(ctx context.Context, o *domain.Order) error
	Invalidate(ctx context.Context, orderID uint64) error
}

// Repository is the order read view plus the single write path.
type Repository struct {
	ledger ledger.Accessor
	cache  Cache
	log    *zap.Logger
}

// NewRepository accepts a nil cache; reads then always hit the accessor.
func NewRepository(acc ledger.Accessor, cache Cache, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{ledger: acc, cache: cache, log: log}
}

// ListOrders returns every known order sorted by id.
func (r *Repository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	out, err := r.ledger.ReadAllOrders(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out, nil
}

// GetOrder serves from the cache when it can.
func (r *Repository) GetOrder(ctx context.Context, orderID uint64) (*domain.Order, error) {
	if r.cache != nil {
		o, ok, err := r.cache.Get(ctx, orderID)
		if err != nil {
			r.log.Warn("order cache read failed", zap.Uint64("order_id", orderID), zap.Error(err))
		}
		if ok {
			return o, nil
		}
	}
	o, err := r.ledger.ReadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	r.remember(ctx, o)
	return o, nil
}

// Load bypasses the cache. Transitions validate against it.
func (r *Repository) Load(ctx context.Context, orderID uint64) (*domain.Order, error) {
	return r.ledger.ReadOrder(ctx, orderID)
}

func (r *Repository) Create(ctx context.Context, o *domain.Order) (*ledger.CommitResult, error) {
	res, err := r.ledger.CreateOrder(ctx, o)
	if err != nil {
		return nil, err
	}
	r.remember(ctx, &res.Order)
	return res, nil
}

// ApplyTransition is the only write path for existing orders. It fails with
// domain.ErrConflict when the stored order no longer derives expectedPrior.
func (r *Repository) ApplyTransition(ctx context.Context, orderID uint64, expectedPrior domain.Status, c ledger.Commit) (*ledger.CommitResult, error) {
	c.OrderID = orderID
	c.Expected = expectedPrior
	res, err := r.ledger.SubmitAtomic(ctx, c)
	r.forget(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Invalidate drops the cached view of one order. Event consumers call it.
func (r *Repository) Invalidate(ctx context.Context, orderID uint64) {
	r.forget(ctx, orderID)
}

func (r *Repository) remember(ctx context.Context, o *domain.Order) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, o); err != nil {
		r.log.Warn("order cache write failed", zap.Uint64("order_id", o.OrderID), zap.Error(err))
	}
}

func (r *Repository) forget(ctx context.Context, orderID uint64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, orderID); err != nil {
		r.log.Warn("order cache invalidate failed", zap.Uint64("order_id", orderID), zap.Error(err))
	}
}
