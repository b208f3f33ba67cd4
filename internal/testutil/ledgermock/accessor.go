package ledgermock

import (
	"context"
	"errors"

	"nftloan-backend/internal/domain/ledger"
	"nftloan-backend/internal/domain/order"
)

var _ ledger.Accessor = (*Accessor)(nil)

var errUnimplemented = errors.New("ledgermock: method not implemented")

// Accessor is a function-backed mock that satisfies ledger.Accessor.
// Unset functions return errUnimplemented.
type Accessor struct {
	CreateOrderFn   func(ctx context.Context, o *order.Order) (*ledger.CommitResult, error)
	SubmitAtomicFn  func(ctx context.Context, c ledger.Commit) (*ledger.CommitResult, error)
	ReadOrderFn     func(ctx context.Context, orderID uint64) (*order.Order, error)
	ReadAllOrdersFn func(ctx context.Context) ([]order.Order, error)
}

func (m *Accessor) CreateOrder(ctx context.Context, o *order.Order) (*ledger.CommitResult, error) {
	if m.CreateOrderFn != nil {
		return m.CreateOrderFn(ctx, o)
	}
	return nil, errUnimplemented
}

func (m *Accessor) SubmitAtomic(ctx context.Context, c ledger.Commit) (*ledger.CommitResult, error) {
	if m.SubmitAtomicFn != nil {
		return m.SubmitAtomicFn(ctx, c)
	}
	return nil, errUnimplemented
}

func (m *Accessor) ReadOrder(ctx context.Context, orderID uint64) (*order.Order, error) {
	if m.ReadOrderFn != nil {
		return m.ReadOrderFn(ctx, orderID)
	}
	return nil, errUnimplemented
}

func (m *Accessor) ReadAllOrders(ctx context.Context) ([]order.Order, error) {
	if m.ReadAllOrdersFn != nil {
		return m.ReadAllOrdersFn(ctx)
	}
	return nil, errUnimplemented
}
