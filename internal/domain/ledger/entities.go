package ledger

import (
	"fmt"
	"math"

	"nftloan-backend/internal/domain/order"

	"github.com/shopspring/decimal"
)

// Table: accounts. Stablecoin balance per holder, in micro-units so that
// balance arithmetic stays in integers on every backend.
type Account struct {
	Holder        string `gorm:"column:holder;primaryKey;size:64" json:"holder"`
	BalanceMicros int64  `gorm:"column:balance_micros;not null" json:"balance_micros"`
	UpdatedAt     int64  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

func (a *Account) Balance() decimal.Decimal { return FromMicros(a.BalanceMicros) }

var maxMicros = decimal.New(math.MaxInt64, -order.AmountScale)

// ToMicros converts d to integer micro-units.
func ToMicros(d decimal.Decimal) (int64, error) {
	if !d.Equal(d.Truncate(order.AmountScale)) {
		return 0, fmt.Errorf("%w: %s has more than %d decimal places", order.ErrInvalidInput, d, order.AmountScale)
	}
	if d.Abs().GreaterThan(maxMicros) {
		return 0, fmt.Errorf("%w: %s is out of range", order.ErrInvalidInput, d)
	}
	return d.Shift(order.AmountScale).IntPart(), nil
}

func FromMicros(m int64) decimal.Decimal { return decimal.New(m, -order.AmountScale) }

// Table: assets. Holder is the current custodian; escrow holders use order.EscrowPrefix.
type Asset struct {
	AssetID      string `gorm:"column:asset_id;primaryKey;size:128" json:"asset_id"`
	Holder       string `gorm:"column:holder;size:64;not null;index" json:"holder"`
	RegisteredAt int64  `gorm:"column:registered_at;autoCreateTime" json:"registered_at"`
}

func (Asset) TableName() string { return "assets" }

type EntryKind string

const (
	EntryFunds EntryKind = "funds"
	EntryAsset EntryKind = "asset"
)

// Table: ledger_entries. Append-only; OrderID is 0 for deposits.
type Entry struct {
	EntryID      string    `gorm:"column:entry_id;primaryKey;size:32" json:"entry_id"`
	OrderID      uint64    `gorm:"column:order_id;not null;index" json:"order_id"`
	Version      uint64    `gorm:"column:version;not null" json:"version"`
	Kind         EntryKind `gorm:"column:kind;size:8;not null" json:"kind"`
	FromHolder   string    `gorm:"column:from_holder;size:64;not null" json:"from"`
	ToHolder     string    `gorm:"column:to_holder;size:64;not null" json:"to"`
	AmountMicros int64     `gorm:"column:amount_micros;not null" json:"amount_micros"`
	AssetID      string    `gorm:"column:asset_id;size:128;not null;default:''" json:"asset_id,omitempty"`
	CreatedAt    int64     `gorm:"column:created_at;not null" json:"created_at"`
}

func (Entry) TableName() string { return "ledger_entries" }

func (e *Entry) Amount() decimal.Decimal { return FromMicros(e.AmountMicros) }

// DepositSource is the From side of entries that mint balance into an account.
const DepositSource = "deposit"

type Transfer struct {
	From   string
	To     string
	Amount decimal.Decimal
}

type AssetMove struct {
	AssetID string
	From    string
	To      string
}
