package order

import (
	"context"
	"fmt"
	"time"

	"nftloan-backend/internal/domain/event"
	"nftloan-backend/internal/domain/ledger"
	domain "nftloan-backend/internal/domain/order"

	"go.uber.org/zap"
)

// Notifier is told about every committed transition. The event itself is
// already durable in the outbox; implementations only speed up delivery.
type Notifier interface {
	Notify(ctx context.Context, e event.Event)
}

// Recorder receives one observation per transition attempt.
type Recorder interface {
	ObserveTransition(kind, outcome string, elapsed time.Duration)
}

type Options struct {
	DefaultMaturity time.Duration
	// RejectLateRepayment makes Repay fail once the loan has matured.
	RejectLateRepayment bool
	Clock               func() time.Time
}

// Engine is the order lifecycle state machine.
type Engine struct {
	repo     *Repository
	notifier Notifier
	metrics  Recorder
	log      *zap.Logger
	opts     Options
}

func NewEngine(repo *Repository, notifier Notifier, metrics Recorder, log *zap.Logger, opts Options) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.DefaultMaturity <= 0 {
		opts.DefaultMaturity = 7 * 24 * time.Hour
	}
	return &Engine{repo: repo, notifier: notifier, metrics: metrics, log: log, opts: opts}
}

func (e *Engine) Create(ctx context.Context, in CreateOrderInput) (dto *OrderDTO, err error) {
	defer e.observe("create", time.Now(), &err)

	if in.Caller == "" || in.CollateralAsset == "" {
		return nil, fmt.Errorf("%w: caller and collateral asset are required", domain.ErrInvalidInput)
	}
	if !in.RequestedAmount.IsPositive() {
		return nil, fmt.Errorf("%w: requested amount must be positive", domain.ErrInvalidInput)
	}
	if in.InterestAmount.IsNegative() {
		return nil, fmt.Errorf("%w: interest amount must not be negative", domain.ErrInvalidInput)
	}
	if err := domain.CheckAmount("requested amount", in.RequestedAmount); err != nil {
		return nil, err
	}
	if err := domain.CheckAmount("interest amount", in.InterestAmount); err != nil {
		return nil, err
	}
	maturity := in.Maturity
	if maturity == 0 {
		maturity = e.opts.DefaultMaturity
	}
	if maturity < time.Second {
		return nil, fmt.Errorf("%w: maturity must be at least one second", domain.ErrInvalidInput)
	}

	o := &domain.Order{
		Borrower:        in.Caller,
		CollateralAsset: in.CollateralAsset,
		RequestedAmount: in.RequestedAmount,
		InterestAmount:  in.InterestAmount,
		MaturitySeconds: int64(maturity / time.Second),
		OrderStatus:     true,
		CreatedAt:       e.opts.Clock().Unix(),
	}
	res, err := e.repo.Create(ctx, o)
	if err != nil {
		return nil, err
	}
	e.committed(ctx, res)
	return toDTO(&res.Order), nil
}

func (e *Engine) Cancel(ctx context.Context, caller string, orderID uint64) (dto *OrderDTO, err error) {
	defer e.observe("cancel", time.Now(), &err)

	o, err := e.repo.Load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if caller != o.Borrower {
		return nil, fmt.Errorf("%w: only the borrower may cancel order %d", domain.ErrUnauthorized, orderID)
	}
	if err := requireStatus(o, domain.StatusNew); err != nil {
		return nil, err
	}

	return e.apply(ctx, o, ledger.Commit{
		Target:    domain.StatusCanceled,
		Mutate:    func(n *domain.Order) { n.OrderStatus = false },
		EventKind: event.KindOrderCanceled,
	})
}

func (e *Engine) Fund(ctx context.Context, caller string, orderID uint64) (dto *OrderDTO, err error) {
	defer e.observe("fund", time.Now(), &err)

	o, err := e.repo.Load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if caller == "" {
		return nil, fmt.Errorf("%w: caller identity is required", domain.ErrUnauthorized)
	}
	if caller == o.Borrower {
		return nil, fmt.Errorf("%w: borrower cannot fund order %d", domain.ErrPreconditionFailed, orderID)
	}
	if err := requireStatus(o, domain.StatusNew); err != nil {
		return nil, err
	}

	now := e.opts.Clock()
	return e.apply(ctx, o, ledger.Commit{
		Target: domain.StatusFunded,
		Mutate: func(n *domain.Order) {
			n.Lender = caller
			n.LoanStartTime = now.Unix()
			n.OrderStatus = false
		},
		Transfers:  []ledger.Transfer{{From: caller, To: o.Borrower, Amount: o.RequestedAmount}},
		AssetMoves: []ledger.AssetMove{{AssetID: o.CollateralAsset, From: o.Borrower, To: o.EscrowHolder()}},
		EventKind:  event.KindOrderFunded,
		At:         now,
	})
}

func (e *Engine) Repay(ctx context.Context, caller string, orderID uint64) (dto *OrderDTO, err error) {
	defer e.observe("repay", time.Now(), &err)

	o, err := e.repo.Load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if caller != o.Borrower {
		return nil, fmt.Errorf("%w: only the borrower may repay order %d", domain.ErrUnauthorized, orderID)
	}
	if err := requireStatus(o, domain.StatusFunded); err != nil {
		return nil, err
	}
	now := e.opts.Clock()
	if e.opts.RejectLateRepayment && o.Matured(now) {
		return nil, fmt.Errorf("%w: repayment period of order %d ended at %d",
			domain.ErrPreconditionFailed, orderID, o.MaturesAt())
	}

	return e.apply(ctx, o, ledger.Commit{
		Target:     domain.StatusRepaid,
		Mutate:     func(n *domain.Order) { n.PaidBackAt = now.Unix() },
		Transfers:  []ledger.Transfer{{From: o.Borrower, To: o.Lender, Amount: o.RepaymentAmount()}},
		AssetMoves: []ledger.AssetMove{{AssetID: o.CollateralAsset, From: o.EscrowHolder(), To: o.Borrower}},
		EventKind:  event.KindOrderRepaid,
		At:         now,
	})
}

func (e *Engine) Liquidate(ctx context.Context, caller string, orderID uint64) (dto *OrderDTO, err error) {
	defer e.observe("liquidate", time.Now(), &err)

	o, err := e.repo.Load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// an order without a lender has nobody entitled to its collateral
	if o.Lender == "" || caller != o.Lender {
		return nil, fmt.Errorf("%w: only the lender may liquidate order %d", domain.ErrUnauthorized, orderID)
	}
	if err := requireStatus(o, domain.StatusFunded); err != nil {
		return nil, err
	}
	now := e.opts.Clock()
	if !o.Matured(now) {
		return nil, fmt.Errorf("%w: order %d matures at %d", domain.ErrPreconditionFailed, orderID, o.MaturesAt())
	}

	return e.apply(ctx, o, ledger.Commit{
		Target:     domain.StatusLiquidated,
		Mutate:     func(n *domain.Order) { n.WithdrewAt = now.Unix() },
		AssetMoves: []ledger.AssetMove{{AssetID: o.CollateralAsset, From: o.EscrowHolder(), To: o.Lender}},
		EventKind:  event.KindOrderLiquidated,
		At:         now,
	})
}

func (e *Engine) Get(ctx context.Context, orderID uint64) (*OrderDTO, error) {
	o, err := e.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toDTO(o), nil
}

func (e *Engine) List(ctx context.Context, f ListFilter) ([]OrderDTO, error) {
	all, err := e.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]OrderDTO, 0, len(all))
	for i := range all {
		if f.match(&all[i]) {
			out = append(out, *toDTO(&all[i]))
		}
	}
	return out, nil
}

func (e *Engine) apply(ctx context.Context, o *domain.Order, c ledger.Commit) (*OrderDTO, error) {
	c.ExpectedVersion = o.Version
	if c.At.IsZero() {
		c.At = e.opts.Clock()
	}
	res, err := e.repo.ApplyTransition(ctx, o.OrderID, o.Status(), c)
	if err != nil {
		return nil, err
	}
	e.committed(ctx, res)
	return toDTO(&res.Order), nil
}

func (e *Engine) committed(ctx context.Context, res *ledger.CommitResult) {
	e.log.Info("order transition",
		zap.String("event", string(res.Event.Kind)),
		zap.Uint64("order_id", res.Order.OrderID),
		zap.String("status", string(res.Order.Status())),
		zap.Uint64("version", res.Order.Version),
	)
	if e.notifier != nil {
		e.notifier.Notify(ctx, res.Event)
	}
}

func (e *Engine) observe(kind string, start time.Time, err *error) {
	if e.metrics == nil {
		return
	}
	e.metrics.ObserveTransition(kind, domain.Code(*err), time.Since(start))
}

func requireStatus(o *domain.Order, want domain.Status) error {
	if got := o.Status(); got != want {
		return fmt.Errorf("%w: order %d is %s, not %s", domain.ErrPreconditionFailed, o.OrderID, got, want)
	}
	return nil
}
