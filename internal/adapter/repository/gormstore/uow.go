package gormstore

import (
	"context"

	"nftloan-backend/internal/domain/event"
	"nftloan-backend/internal/domain/ledger"
	"nftloan-backend/internal/domain/order"
	"nftloan-backend/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Orders:   &OrderRepository{db: tx},
		Accounts: &AccountRepository{db: tx},
		Assets:   &AssetRepository{db: tx},
		Entries:  &EntryRepository{db: tx},
		Outbox:   &OutboxRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

// WithinOrderTx reads the order through the tx. Concurrent writers are
// resolved by the version guard in UpdateGuarded, not by row locks.
func (u *GormUoW) WithinOrderTx(ctx context.Context, orderID uint64, fn func(r uow.Repos, o *order.Order) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		o, err := r.Orders.GetByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		return fn(r, o)
	})
}

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&order.Order{},
		&ledger.Account{},
		&ledger.Asset{},
		&ledger.Entry{},
		&event.OutboxRecord{},
	)
}
