package event

import (
	"encoding/json"
	"strconv"
	"time"
)

type Kind string

const (
	KindOrderCreated    Kind = "OrderCreated"
	KindOrderCanceled   Kind = "OrderCanceled"
	KindOrderFunded     Kind = "OrderFunded"
	KindOrderRepaid     Kind = "OrderRepaid"
	KindOrderLiquidated Kind = "OrderLiquidated"
)

// Event is an invalidation hint: it names the order that changed and the
// version it changed to, not the full order state.
type Event struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	OrderID    uint64    `json:"order_id"`
	Sequence   uint64    `json:"sequence"`
	Borrower   string    `json:"borrower"`
	Lender     string    `json:"lender,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DedupKey identifies one committed transition. Redelivered events carry
// the same key.
func (e Event) DedupKey() string {
	return strconv.FormatUint(e.OrderID, 10) + ":" + strconv.FormatUint(e.Sequence, 10)
}

// Table: outbox_events. DeliveredAt is unix seconds, 0 while pending.
type OutboxRecord struct {
	ID          uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	EventID     string `gorm:"column:event_id;size:36;not null;uniqueIndex"`
	OrderID     uint64 `gorm:"column:order_id;not null;index"`
	Sequence    uint64 `gorm:"column:sequence;not null"`
	Kind        Kind   `gorm:"column:kind;size:32;not null"`
	Payload     string `gorm:"column:payload;type:text;not null"`
	CreatedAt   int64  `gorm:"column:created_at;not null"`
	DeliveredAt int64  `gorm:"column:delivered_at;not null;default:0;index"`
}

func (OutboxRecord) TableName() string { return "outbox_events" }

func NewOutboxRecord(e Event) (*OutboxRecord, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return &OutboxRecord{
		EventID:   e.ID,
		OrderID:   e.OrderID,
		Sequence:  e.Sequence,
		Kind:      e.Kind,
		Payload:   string(payload),
		CreatedAt: e.OccurredAt.Unix(),
	}, nil
}

func (r *OutboxRecord) Event() (Event, error) {
	var e Event
	err := json.Unmarshal([]byte(r.Payload), &e)
	return e, err
}
