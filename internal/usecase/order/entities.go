package order

import (
	"time"

	domain "nftloan-backend/internal/domain/order"

	"github.com/shopspring/decimal"
)

type CreateOrderInput struct {
	Caller          string
	CollateralAsset string
	RequestedAmount decimal.Decimal
	InterestAmount  decimal.Decimal
	// Maturity falls back to Options.DefaultMaturity when zero.
	Maturity time.Duration
}

type ListFilter struct {
	Borrower string
	Lender   string
	Status   domain.Status
}

func (f ListFilter) match(o *domain.Order) bool {
	if f.Borrower != "" && o.Borrower != f.Borrower {
		return false
	}
	if f.Lender != "" && o.Lender != f.Lender {
		return false
	}
	if f.Status != "" && o.Status() != f.Status {
		return false
	}
	return true
}

type OrderDTO struct {
	OrderID         uint64          `json:"order_id"`
	Borrower        string          `json:"borrower"`
	Lender          string          `json:"lender,omitempty"`
	CollateralAsset string          `json:"collateral_asset"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	InterestAmount  decimal.Decimal `json:"interest_amount"`
	RepaymentAmount decimal.Decimal `json:"repayment_amount"`
	MaturitySeconds int64           `json:"maturity_seconds"`
	Status          string          `json:"status"`
	LoanStartTime   int64           `json:"loan_start_time"`
	PaidBackAt      int64           `json:"paid_back_at"`
	WithdrewAt      int64           `json:"withdrew_at"`
	MaturesAt       int64           `json:"matures_at"`
	CreatedAt       int64           `json:"created_at"`
	Version         uint64          `json:"version"`
}

func toDTO(o *domain.Order) *OrderDTO {
	return &OrderDTO{
		OrderID:         o.OrderID,
		Borrower:        o.Borrower,
		Lender:          o.Lender,
		CollateralAsset: o.CollateralAsset,
		RequestedAmount: o.RequestedAmount,
		InterestAmount:  o.InterestAmount,
		RepaymentAmount: o.RepaymentAmount(),
		MaturitySeconds: o.MaturitySeconds,
		Status:          string(o.Status()),
		LoanStartTime:   o.LoanStartTime,
		PaidBackAt:      o.PaidBackAt,
		WithdrewAt:      o.WithdrewAt,
		MaturesAt:       o.MaturesAt(),
		CreatedAt:       o.CreatedAt,
		Version:         o.Version,
	}
}
