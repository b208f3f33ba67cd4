package uow

import (
	"context"

	"nftloan-backend/internal/domain/event"
	"nftloan-backend/internal/domain/ledger"
	"nftloan-backend/internal/domain/order"
)

// Repos is bound to a single transaction.
type Repos struct {
	Orders   order.Repository
	Accounts ledger.AccountRepository
	Assets   ledger.AssetRepository
	Entries  ledger.EntryRepository
	Outbox   event.OutboxRepository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// loads the order inside the tx first; order.ErrNotFound if missing
	WithinOrderTx(ctx context.Context, orderID uint64, fn func(r Repos, o *order.Order) error) error
}
