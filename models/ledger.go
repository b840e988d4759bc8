package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Amounts are the cached totals of an invoice or payment batch detail.
// They are derived from the line entries and written by the ledger only.
type Amounts struct {
	Subtotal       decimal.Decimal `json:"subtotal" gorm:"type:numeric(14,2);not null;default:0"`
	DiscountAmount decimal.Decimal `json:"discount_amount" gorm:"type:numeric(14,2);not null;default:0"`
	TaxAmount      decimal.Decimal `json:"tax_amount" gorm:"type:numeric(14,2);not null;default:0"`
	TotalAmount    decimal.Decimal `json:"total_amount" gorm:"type:numeric(14,2);not null;default:0"`
	PaidAmount     decimal.Decimal `json:"paid_amount" gorm:"type:numeric(14,2);not null;default:0"`
	BalanceAmount  decimal.Decimal `json:"balance_amount" gorm:"type:numeric(14,2);not null;default:0"`
}

// Workflow holds the status columns shared by both aggregate tables.
type Workflow struct {
	Status             string     `json:"status" gorm:"size:20;not null;default:draft;index"`
	IssuedAt           *time.Time `json:"issued_at"`
	CancelledAt        *time.Time `json:"cancelled_at"`
	CancellationReason string     `json:"cancellation_reason"`
}

// LineFields are the priced columns shared by invoice line items and claims.
type LineFields struct {
	ServiceID      *string         `json:"service_id" gorm:"size:36;index"`
	Reference      string          `json:"reference" gorm:"size:64"`
	Name           string          `json:"name" gorm:"not null"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity" gorm:"type:numeric(14,2);not null"`
	UnitOfMeasure  string          `json:"unit_of_measure" gorm:"size:32"`
	UnitCost       decimal.Decimal `json:"unit_cost" gorm:"type:numeric(14,2);not null"`
	Subtotal       decimal.Decimal `json:"subtotal" gorm:"type:numeric(14,2);not null"`
	DiscountAmount decimal.Decimal `json:"discount_amount" gorm:"type:numeric(14,2);not null;default:0"`
	TaxAmount      decimal.Decimal `json:"tax_amount" gorm:"type:numeric(14,2);not null;default:0"`
	LineTotal      decimal.Decimal `json:"line_total" gorm:"type:numeric(14,2);not null"`
}
