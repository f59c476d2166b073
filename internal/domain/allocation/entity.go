// internal/domain/allocation/entity.go
package allocation

import (
	"time"

	"github.com/shopspring/decimal"
)

// FulfillmentStatus represents the order fulfillment state. Orders move
// pending -> partial -> completed and are never reopened by the matcher.
type FulfillmentStatus string

const (
	StatusPending   FulfillmentStatus = "pending"
	StatusPartial   FulfillmentStatus = "partial"
	StatusCompleted FulfillmentStatus = "completed"
)

// Order represents a recorded order whose lines are matched against
// aggregate item quantity.
type Order struct {
	ID             uint              `gorm:"primaryKey" json:"-"`
	OrderID        string            `gorm:"uniqueIndex;not null;size:50" json:"order_id"`
	TotalValue     decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"total_value"`
	IsCreditMemo   bool              `gorm:"default:false" json:"is_credit_memo"`
	Status         FulfillmentStatus `gorm:"not null;default:'pending'" json:"fulfillment_status"`
	FulfilledValue decimal.Decimal   `gorm:"type:numeric(14,2);not null;default:0" json:"fulfilled_value"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`

	// Relationships
	Lines []OrderLine `gorm:"foreignKey:OrderRef;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"lines"`
}

// OrderLine is one line item of an order. It doubles as the pending
// allocation against aggregate item stock: lines are matched in the order
// they were recorded, not by receipt date.
type OrderLine struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	OrderRef  uint            `gorm:"not null;index" json:"-"`
	ItemCode  string          `gorm:"not null;size:100;index" json:"item_code"`
	Quantity  float64         `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"line_total"`
	Fulfilled bool            `gorm:"default:false" json:"fulfilled"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderLine) TableName() string { return "order_lines" }

// SummedLineTotal returns the sum of all line totals
func (o *Order) SummedLineTotal() decimal.Decimal {
	sum := decimal.Zero
	for i := range o.Lines {
		sum = sum.Add(o.Lines[i].LineTotal)
	}
	return sum
}

// IsComplete reports whether the fulfilled value covers the order total
// within tolerance.
func (o *Order) IsComplete(tolerance decimal.Decimal) bool {
	return o.FulfilledValue.GreaterThanOrEqual(o.TotalValue.Sub(tolerance))
}

// CompletionEvent is emitted when an order transitions to completed
type CompletionEvent struct {
	OrderID    string          `json:"order_id"`
	TotalValue decimal.Decimal `json:"total_value"`
	ItemCount  int             `json:"item_count"`
}
