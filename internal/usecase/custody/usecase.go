package custody

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nftloan-backend/internal/domain/ledger"
	"nftloan-backend/internal/domain/order"
	"nftloan-backend/internal/domain/uow"
	"nftloan-backend/pkg/id"

	"github.com/shopspring/decimal"
)

// Usecase seeds and inspects ledger state: stablecoin deposits and NFT
// registration. Transitions never go through it.
type Usecase struct {
	uow   uow.UnitOfWork
	clock func() time.Time
}

func NewUsecase(tx uow.UnitOfWork) *Usecase {
	return &Usecase{uow: tx, clock: time.Now}
}

type AccountDTO struct {
	Holder  string          `json:"holder"`
	Balance decimal.Decimal `json:"balance"`
}

type AssetDTO struct {
	AssetID  string `json:"asset_id"`
	Holder   string `json:"holder"`
	InEscrow bool   `json:"in_escrow"`
}

func (u *Usecase) Deposit(ctx context.Context, holder string, amount decimal.Decimal) (*AccountDTO, error) {
	if err := validHolder(holder); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: deposit amount must be positive", order.ErrInvalidInput)
	}
	if err := order.CheckAmount("deposit amount", amount); err != nil {
		return nil, err
	}
	micros, err := ledger.ToMicros(amount)
	if err != nil {
		return nil, err
	}

	var dto *AccountDTO
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Accounts.Credit(ctx, holder, amount); err != nil {
			return err
		}
		if err := r.Entries.Append(ctx, []ledger.Entry{{
			EntryID:      id.NewID32(),
			Kind:         ledger.EntryFunds,
			FromHolder:   ledger.DepositSource,
			ToHolder:     holder,
			AmountMicros: micros,
			CreatedAt:    u.clock().Unix(),
		}}); err != nil {
			return err
		}
		acc, err := r.Accounts.Get(ctx, holder)
		if err != nil {
			return err
		}
		dto = &AccountDTO{Holder: acc.Holder, Balance: acc.Balance()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (u *Usecase) Account(ctx context.Context, holder string) (*AccountDTO, error) {
	var dto *AccountDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		acc, err := r.Accounts.Get(ctx, holder)
		if errors.Is(err, ledger.ErrAccountNotFound) {
			dto = &AccountDTO{Holder: holder, Balance: decimal.Zero}
			return nil
		}
		if err != nil {
			return err
		}
		dto = &AccountDTO{Holder: acc.Holder, Balance: acc.Balance()}
		return nil
	})
	return dto, err
}

func (u *Usecase) RegisterAsset(ctx context.Context, assetID, holder string) (*AssetDTO, error) {
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return nil, fmt.Errorf("%w: asset id is required", order.ErrInvalidInput)
	}
	if err := validHolder(holder); err != nil {
		return nil, err
	}

	a := &ledger.Asset{AssetID: assetID, Holder: holder}
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		return r.Assets.Register(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return toAssetDTO(a), nil
}

func (u *Usecase) Asset(ctx context.Context, assetID string) (*AssetDTO, error) {
	var a *ledger.Asset
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		a, err = r.Assets.Get(ctx, assetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toAssetDTO(a), nil
}

func toAssetDTO(a *ledger.Asset) *AssetDTO {
	return &AssetDTO{AssetID: a.AssetID, Holder: a.Holder, InEscrow: strings.HasPrefix(a.Holder, order.EscrowPrefix)}
}

// escrow holders are reserved for pledged collateral
func validHolder(holder string) error {
	if strings.TrimSpace(holder) == "" {
		return fmt.Errorf("%w: holder is required", order.ErrInvalidInput)
	}
	if strings.HasPrefix(holder, order.EscrowPrefix) || holder == ledger.DepositSource {
		return fmt.Errorf("%w: holder %q is reserved", order.ErrInvalidInput, holder)
	}
	return nil
}
