package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nftloan-backend/internal/domain/event"
	"nftloan-backend/internal/domain/ledger"
	"nftloan-backend/internal/domain/order"
	"nftloan-backend/internal/domain/uow"
	"nftloan-backend/pkg/id"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ ledger.Accessor = (*Accessor)(nil)

// Accessor applies order transitions and their value movements in one
// database transaction. Reads go straight to the order table.
type Accessor struct {
	orders order.Repository
	tx     uow.UnitOfWork
	log    *zap.Logger
}

func NewAccessor(orders order.Repository, tx uow.UnitOfWork, log *zap.Logger) *Accessor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Accessor{orders: orders, tx: tx, log: log}
}

func (a *Accessor) ReadOrder(ctx context.Context, orderID uint64) (*order.Order, error) {
	return a.orders.GetByOrderID(ctx, orderID)
}

func (a *Accessor) ReadAllOrders(ctx context.Context) ([]order.Order, error) {
	return a.orders.List(ctx)
}

func (a *Accessor) CreateOrder(ctx context.Context, o *order.Order) (*ledger.CommitResult, error) {
	var res *ledger.CommitResult
	err := a.tx.WithinTx(ctx, func(r uow.Repos) error {
		// the row lock serialises concurrent pledges of the same asset
		asset, err := r.Assets.GetForUpdate(ctx, o.CollateralAsset)
		if errors.Is(err, ledger.ErrAssetNotFound) {
			return fmt.Errorf("%w: asset %s is not registered", order.ErrPreconditionFailed, o.CollateralAsset)
		}
		if err != nil {
			return err
		}
		if asset.Holder != o.Borrower {
			return fmt.Errorf("%w: asset %s is not held by the borrower", order.ErrPreconditionFailed, o.CollateralAsset)
		}
		pledged, err := r.Orders.HasOpenPledge(ctx, o.CollateralAsset)
		if err != nil {
			return err
		}
		if pledged {
			return fmt.Errorf("%w: asset %s already backs an open order", order.ErrPreconditionFailed, o.CollateralAsset)
		}

		o.OrderStatus = true
		o.Version = 1
		if err := r.Orders.Create(ctx, o); err != nil {
			return err
		}
		ev := newEvent(event.KindOrderCreated, o, time.Unix(o.CreatedAt, 0))
		if err := appendOutbox(ctx, r, ev); err != nil {
			return err
		}
		res = &ledger.CommitResult{Order: *o, Event: ev}
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.log.Debug("order created", zap.Uint64("order_id", o.OrderID), zap.String("asset", o.CollateralAsset))
	return res, nil
}

func (a *Accessor) SubmitAtomic(ctx context.Context, c ledger.Commit) (*ledger.CommitResult, error) {
	if c.Mutate == nil {
		return nil, fmt.Errorf("%w: commit without mutation", order.ErrInvalidInput)
	}
	at := c.At
	if at.IsZero() {
		at = time.Now()
	}

	var res *ledger.CommitResult
	err := a.tx.WithinOrderTx(ctx, c.OrderID, func(r uow.Repos, cur *order.Order) error {
		if cur.Version != c.ExpectedVersion || cur.Status() != c.Expected {
			return fmt.Errorf("%w: order %d is %s at version %d, expected %s at version %d",
				order.ErrConflict, cur.OrderID, cur.Status(), cur.Version, c.Expected, c.ExpectedVersion)
		}

		next := *cur
		c.Mutate(&next)
		next.Version = cur.Version + 1
		if got := next.Status(); got != c.Target {
			return fmt.Errorf("mutation of order %d derives %s, want %s", cur.OrderID, got, c.Target)
		}

		ok, err := r.Orders.UpdateGuarded(ctx, &next, cur.Version, c.Expected)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: order %d changed during commit", order.ErrConflict, cur.OrderID)
		}

		entries, err := applyMovements(ctx, r, next, c, at)
		if err != nil {
			return err
		}

		ev := newEvent(c.EventKind, &next, at)
		if err := appendOutbox(ctx, r, ev); err != nil {
			return err
		}
		res = &ledger.CommitResult{Order: next, Entries: entries, Event: ev}
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.log.Debug("transition committed",
		zap.Uint64("order_id", c.OrderID),
		zap.String("from", string(c.Expected)),
		zap.String("to", string(c.Target)),
		zap.Uint64("version", res.Order.Version),
		zap.Int("entries", len(res.Entries)),
	)
	return res, nil
}

func applyMovements(ctx context.Context, r uow.Repos, o order.Order, c ledger.Commit, at time.Time) ([]ledger.Entry, error) {
	entries := make([]ledger.Entry, 0, len(c.Transfers)+len(c.AssetMoves))

	for _, t := range c.Transfers {
		if !t.Amount.IsPositive() {
			continue
		}
		micros, err := ledger.ToMicros(t.Amount)
		if err != nil {
			return nil, err
		}
		ok, err := r.Accounts.Debit(ctx, t.From, t.Amount)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s cannot cover %s", order.ErrTransferFailed, t.From, t.Amount)
		}
		if err := r.Accounts.Credit(ctx, t.To, t.Amount); err != nil {
			return nil, err
		}
		entries = append(entries, ledger.Entry{
			EntryID:      id.NewID32(),
			OrderID:      o.OrderID,
			Version:      o.Version,
			Kind:         ledger.EntryFunds,
			FromHolder:   t.From,
			ToHolder:     t.To,
			AmountMicros: micros,
			CreatedAt:    at.Unix(),
		})
	}

	for _, m := range c.AssetMoves {
		ok, err := r.Assets.Move(ctx, m.AssetID, m.From, m.To)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: asset %s is not held by %s", order.ErrTransferFailed, m.AssetID, m.From)
		}
		entries = append(entries, ledger.Entry{
			EntryID:    id.NewID32(),
			OrderID:    o.OrderID,
			Version:    o.Version,
			Kind:       ledger.EntryAsset,
			FromHolder: m.From,
			ToHolder:   m.To,
			AssetID:    m.AssetID,
			CreatedAt:  at.Unix(),
		})
	}

	if err := r.Entries.Append(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func newEvent(kind event.Kind, o *order.Order, at time.Time) event.Event {
	return event.Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		OrderID:    o.OrderID,
		Sequence:   o.Version,
		Borrower:   o.Borrower,
		Lender:     o.Lender,
		OccurredAt: at.UTC(),
	}
}

func appendOutbox(ctx context.Context, r uow.Repos, ev event.Event) error {
	rec, err := event.NewOutboxRecord(ev)
	if err != nil {
		return err
	}
	return r.Outbox.Append(ctx, rec)
}
