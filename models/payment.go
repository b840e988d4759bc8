package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a settlement against an invoice or a payment batch detail.
// AggregateType holds the ledger kind ("invoice", "payment_batch_detail").
type Payment struct {
	ID            string          `json:"id" gorm:"primaryKey;size:36"`
	AggregateType string          `json:"aggregate_type" gorm:"size:32;not null;index:idx_payments_aggregate_paid_at,priority:1"`
	AggregateID   string          `json:"aggregate_id" gorm:"size:36;not null;index:idx_payments_aggregate_paid_at,priority:2"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(14,2);not null"`
	Method        string          `json:"method"`
	Reference     string          `json:"reference"`
	Note          string          `json:"note"`
	PaidAt        time.Time       `json:"paid_at" gorm:"index:idx_payments_aggregate_paid_at,priority:3"`
	CreatedAt     time.Time       `json:"created_at"`
}
