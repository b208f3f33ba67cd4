package gormstore

import (
	"context"
	"errors"
	"fmt"
	"math"

	"nftloan-backend/internal/domain/ledger"
	"nftloan-backend/internal/domain/order"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountRepository struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) *AccountRepository { return &AccountRepository{db: db} }

func (r *AccountRepository) Get(ctx context.Context, holder string) (*ledger.Account, error) {
	var out ledger.Account
	err := r.db.WithContext(ctx).Where("holder = ?", holder).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Credit opens the account at zero if missing, then adds amount in a guarded UPDATE.
func (r *AccountRepository) Credit(ctx context.Context, holder string, amount decimal.Decimal) error {
	m, err := positiveMicros(amount)
	if err != nil {
		return err
	}
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&ledger.Account{Holder: holder}).Error; err != nil {
		return err
	}
	res := db.Model(&ledger.Account{}).
		Where("holder = ? AND balance_micros <= ?", holder, math.MaxInt64-m).
		Update("balance_micros", gorm.Expr("balance_micros + ?", m))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("%w: balance of %s would overflow", order.ErrTransferFailed, holder)
	}
	return nil
}

func (r *AccountRepository) Debit(ctx context.Context, holder string, amount decimal.Decimal) (bool, error) {
	m, err := positiveMicros(amount)
	if err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).
		Model(&ledger.Account{}).
		Where("holder = ? AND balance_micros >= ?", holder, m).
		Update("balance_micros", gorm.Expr("balance_micros - ?", m))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func positiveMicros(amount decimal.Decimal) (int64, error) {
	m, err := ledger.ToMicros(amount)
	if err != nil {
		return 0, err
	}
	if m <= 0 {
		return 0, fmt.Errorf("%w: amount %s must be positive", order.ErrInvalidInput, amount)
	}
	return m, nil
}
