package ledger

import (
	"context"
	"time"

	"nftloan-backend/internal/domain/event"
	"nftloan-backend/internal/domain/order"
)

// Commit describes one transition: the state the order must still be in,
// the field mutation, and the movements bound to it.
type Commit struct {
	OrderID         uint64
	ExpectedVersion uint64
	Expected        order.Status
	Target          order.Status
	Mutate          func(o *order.Order)
	Transfers       []Transfer
	AssetMoves      []AssetMove
	EventKind       event.Kind
	At              time.Time
}

type CommitResult struct {
	Order   order.Order
	Entries []Entry
	Event   event.Event
}

// Accessor is the only path to durable order and custody state.
type Accessor interface {
	// CreateOrder inserts o as a New order once its collateral is verified
	// to be held by the borrower and not pledged elsewhere.
	CreateOrder(ctx context.Context, o *order.Order) (*CommitResult, error)
	// SubmitAtomic lands every effect of c or none of them.
	SubmitAtomic(ctx context.Context, c Commit) (*CommitResult, error)
	ReadOrder(ctx context.Context, orderID uint64) (*order.Order, error)
	ReadAllOrders(ctx context.Context) ([]order.Order, error)
}
