package ordermock

import (
	"context"

	domain "nftloan-backend/internal/domain/order"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset functions return zero values and context.Canceled for reads.
type Repo struct {
	CreateFn        func(ctx context.Context, o *domain.Order) error
	GetByOrderIDFn  func(ctx context.Context, orderID uint64) (*domain.Order, error)
	ListFn          func(ctx context.Context) ([]domain.Order, error)
	UpdateGuardedFn func(ctx context.Context, o *domain.Order, prevVersion uint64, expected domain.Status) (bool, error)
	HasOpenPledgeFn func(ctx context.Context, assetID string) (bool, error)
}

func (m *Repo) Create(ctx context.Context, o *domain.Order) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, o)
	}
	return nil
}

func (m *Repo) GetByOrderID(ctx context.Context, orderID uint64) (*domain.Order, error) {
	if m.GetByOrderIDFn != nil {
		return m.GetByOrderIDFn(ctx, orderID)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context) ([]domain.Order, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, context.Canceled
}

func (m *Repo) UpdateGuarded(ctx context.Context, o *domain.Order, prevVersion uint64, expected domain.Status) (bool, error) {
	if m.UpdateGuardedFn != nil {
		return m.UpdateGuardedFn(ctx, o, prevVersion, expected)
	}
	return false, nil
}

func (m *Repo) HasOpenPledge(ctx context.Context, assetID string) (bool, error) {
	if m.HasOpenPledgeFn != nil {
		return m.HasOpenPledgeFn(ctx, assetID)
	}
	return false, nil
}
