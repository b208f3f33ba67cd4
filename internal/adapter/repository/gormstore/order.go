package gormstore

import (
	"context"
	"errors"
	"fmt"

	"nftloan-backend/internal/domain/order"

	"gorm.io/gorm"
)

type OrderRepository struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) *OrderRepository { return &OrderRepository{db: db} }

// statusPredicates mirrors order.DeriveStatus as SQL so a guarded update only
// matches rows that still derive the expected status.
var statusPredicates = map[order.Status]string{
	order.StatusNew:        "withdrew_at = 0 AND paid_back_at = 0 AND loan_start_time = 0 AND order_status = ?",
	order.StatusCanceled:   "withdrew_at = 0 AND paid_back_at = 0 AND loan_start_time = 0 AND order_status = ?",
	order.StatusFunded:     "withdrew_at = 0 AND paid_back_at = 0 AND loan_start_time <> 0",
	order.StatusRepaid:     "withdrew_at = 0 AND paid_back_at <> 0",
	order.StatusLiquidated: "withdrew_at <> 0",
}

func statusScope(s order.Status) (func(*gorm.DB) *gorm.DB, error) {
	pred, ok := statusPredicates[s]
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", order.ErrInvalidInput, s)
	}
	return func(tx *gorm.DB) *gorm.DB {
		switch s {
		case order.StatusNew:
			return tx.Where(pred, true)
		case order.StatusCanceled:
			return tx.Where(pred, false)
		default:
			return tx.Where(pred)
		}
	}, nil
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *OrderRepository) GetByOrderID(ctx context.Context, orderID uint64) (*order.Order, error) {
	var out order.Order
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", order.ErrNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	var out []order.Order
	err := r.db.WithContext(ctx).Order("order_id ASC").Find(&out).Error
	return out, err
}

func (r *OrderRepository) UpdateGuarded(ctx context.Context, o *order.Order, prevVersion uint64, expected order.Status) (bool, error) {
	scope, err := statusScope(expected)
	if err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("order_id = ? AND version = ?", o.OrderID, prevVersion).
		Scopes(scope).
		Updates(map[string]any{
			"lender":          o.Lender,
			"order_status":    o.OrderStatus,
			"loan_start_time": o.LoanStartTime,
			"paid_back_at":    o.PaidBackAt,
			"withdrew_at":     o.WithdrewAt,
			"version":         o.Version,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *OrderRepository) HasOpenPledge(ctx context.Context, assetID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("collateral_asset = ? AND withdrew_at = 0 AND paid_back_at = 0", assetID).
		Where("(loan_start_time <> 0 OR order_status = ?)", true).
		Count(&n).Error
	return n > 0, err
}
