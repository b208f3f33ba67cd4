package order

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// EscrowPrefix marks the custodial holder of a pledged asset while its loan is live.
const EscrowPrefix = "escrow:"

// Table: orders. Timestamps are unix seconds; 0 means unset.
type Order struct {
	OrderID         uint64          `gorm:"column:order_id;primaryKey;autoIncrement" json:"order_id"`
	Borrower        string          `gorm:"column:borrower;size:64;not null;index:idx_orders_borrower" json:"borrower"`
	Lender          string          `gorm:"column:lender;size:64;not null;default:'';index:idx_orders_lender" json:"lender"`
	CollateralAsset string          `gorm:"column:collateral_asset;size:128;not null;index:idx_orders_collateral" json:"collateral_asset"`
	RequestedAmount decimal.Decimal `gorm:"column:requested_amount;type:decimal(20,6);not null" json:"requested_amount"`
	InterestAmount  decimal.Decimal `gorm:"column:interest_amount;type:decimal(20,6);not null" json:"interest_amount"`
	MaturitySeconds int64           `gorm:"column:maturity_seconds;not null" json:"maturity_seconds"`
	// OrderStatus is the open flag: true from creation until Cancel or Fund.
	OrderStatus   bool   `gorm:"column:order_status;not null" json:"order_status"`
	LoanStartTime int64  `gorm:"column:loan_start_time;not null;default:0" json:"loan_start_time"`
	PaidBackAt    int64  `gorm:"column:paid_back_at;not null;default:0" json:"paid_back_at"`
	WithdrewAt    int64  `gorm:"column:withdrew_at;not null;default:0" json:"withdrew_at"`
	CreatedAt     int64  `gorm:"column:created_at;not null" json:"created_at"`
	Version       uint64 `gorm:"column:version;not null" json:"version"`
}

func (Order) TableName() string { return "orders" }

// Status derives the lifecycle state from the timestamp/flag fields.
func (o *Order) Status() Status {
	return DeriveStatus(o.WithdrewAt, o.PaidBackAt, o.LoanStartTime, o.OrderStatus)
}

func (o *Order) Maturity() time.Duration {
	return time.Duration(o.MaturitySeconds) * time.Second
}

// MaturesAt is the first unix second at which an unpaid loan may be liquidated.
// Zero until the order is funded.
func (o *Order) MaturesAt() int64 {
	if o.LoanStartTime == 0 {
		return 0
	}
	return o.LoanStartTime + o.MaturitySeconds
}

// Matured reports whether liquidation is allowed at now.
func (o *Order) Matured(now time.Time) bool {
	return o.LoanStartTime != 0 && now.Unix() >= o.MaturesAt()
}

// RepaymentAmount is what the borrower owes the lender on Repay.
func (o *Order) RepaymentAmount() decimal.Decimal {
	return o.RequestedAmount.Add(o.InterestAmount)
}

// EscrowHolder is the custodian name used for this order's collateral.
func (o *Order) EscrowHolder() string {
	return EscrowHolder(o.OrderID)
}

func EscrowHolder(orderID uint64) string {
	return EscrowPrefix + strconv.FormatUint(orderID, 10)
}
