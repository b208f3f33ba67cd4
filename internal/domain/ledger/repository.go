package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

type AccountRepository interface {
	Get(ctx context.Context, holder string) (*Account, error)
	// Credit adds amount, opening the account if needed.
	Credit(ctx context.Context, holder string, amount decimal.Decimal) error
	// Debit subtracts amount only if the balance covers it.
	Debit(ctx context.Context, holder string, amount decimal.Decimal) (bool, error)
}

type AssetRepository interface {
	Register(ctx context.Context, a *Asset) error
	Get(ctx context.Context, assetID string) (*Asset, error)
	// GetForUpdate reads the asset and locks its row until the transaction ends.
	GetForUpdate(ctx context.Context, assetID string) (*Asset, error)
	// Move reassigns custody only if from is the current holder.
	Move(ctx context.Context, assetID, from, to string) (bool, error)
}

type EntryRepository interface {
	Append(ctx context.Context, entries []Entry) error
	ListByOrder(ctx context.Context, orderID uint64) ([]Entry, error)
}
