package order

import "context"

type Repository interface {
	// Create inserts o and fills OrderID.
	Create(ctx context.Context, o *Order) error
	GetByOrderID(ctx context.Context, orderID uint64) (*Order, error)
	List(ctx context.Context) ([]Order, error)

	// UpdateGuarded persists the mutable fields of o only if the stored row is
	// still at prevVersion and still derives expected. Returns false when the
	// guard did not match.
	UpdateGuarded(ctx context.Context, o *Order, prevVersion uint64, expected Status) (bool, error)

	// HasOpenPledge reports whether assetID backs an order that is New or Funded.
	HasOpenPledge(ctx context.Context, assetID string) (bool, error)
}
