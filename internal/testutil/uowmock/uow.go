package uowmock

import (
	"context"
	"errors"

	"nftloan-backend/internal/domain/order"
	"nftloan-backend/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn      func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinOrderTxFn func(ctx context.Context, orderID uint64, fn func(r uow.Repos, o *order.Order) error) error
}

// Convenience fluent setters
func New() *UoW { return &UoW{} }
func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}
func (m *UoW) WithWithinOrderTx(fn func(context.Context, uint64, func(uow.Repos, *order.Order) error) error) *UoW {
	m.WithinOrderTxFn = fn
	return m
}
func (m *UoW) Reset() { *m = UoW{} }

// Passthrough runs every closure directly against repos, without a transaction.
func Passthrough(repos uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error { return fn(repos) },
		WithinOrderTxFn: func(ctx context.Context, orderID uint64, fn func(uow.Repos, *order.Order) error) error {
			o, err := repos.Orders.GetByOrderID(ctx, orderID)
			if err != nil {
				return err
			}
			return fn(repos, o)
		},
	}
}

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinOrderTx(ctx context.Context, orderID uint64, fn func(r uow.Repos, o *order.Order) error) error {
	if m.WithinOrderTxFn != nil {
		return m.WithinOrderTxFn(ctx, orderID, fn)
	}
	return errUnimplemented
}
