/*
Package ledger keeps derived aggregate totals consistent with their line entries.

An Aggregate (an invoice, a payment batch detail) caches subtotal, discount, tax,
total, paid and balance amounts. Those cached values are always re-derived from the
full set of Line Entries (invoice line items, claims) owned by the aggregate:

	subtotal = Σ entry.subtotal
	discount = Σ entry.discount
	tax      = Σ entry.tax
	total    = subtotal - discount + tax
	balance  = total - paid

Every mutation of an entry runs inside one store transaction that locks the
aggregate row, applies the change, recalculates and persists the totals. Audit
events are emitted after the transaction commits and never fail the mutation.
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"healthadmin-backend/utils"
)

// Kind names the aggregate family a Ledger manages.
type Kind string

const (
	KindInvoice            Kind = "invoice"
	KindPaymentBatchDetail Kind = "payment_batch_detail"
)

// Status is the workflow state of an aggregate.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusIssued        Status = "issued"
	StatusPartiallyPaid Status = "partially_paid"
	StatusPaid          Status = "paid"
	StatusCancelled     Status = "cancelled"
)

// EntityType identifies a collaborator record checked through a Directory.
type EntityType string

const (
	EntityProvider     EntityType = "provider"
	EntityEnrollee     EntityType = "enrollee"
	EntityClient       EntityType = "client"
	EntityPaymentBatch EntityType = "payment_batch"
	EntityService      EntityType = "service"
)

// Totals are the derived monetary fields cached on an aggregate.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	BalanceAmount  decimal.Decimal `json:"balance_amount"`
}

// Equal reports whether all six amounts match numerically.
func (t Totals) Equal(o Totals) bool {
	return t.Subtotal.Equal(o.Subtotal) &&
		t.DiscountAmount.Equal(o.DiscountAmount) &&
		t.TaxAmount.Equal(o.TaxAmount) &&
		t.TotalAmount.Equal(o.TotalAmount) &&
		t.PaidAmount.Equal(o.PaidAmount) &&
		t.BalanceAmount.Equal(o.BalanceAmount)
}

// Aggregate is the parent record holding cached totals and workflow state.
type Aggregate struct {
	ID         string  `json:"id"`
	Kind       Kind    `json:"kind"`
	Number     string  `json:"number"`
	BatchID    *string `json:"payment_batch_id,omitempty"`
	ProviderID string  `json:"provider_id"`
	EnrolleeID *string `json:"enrollee_id,omitempty"`
	ClientID   *string `json:"client_id,omitempty"`
	Status     Status  `json:"status"`
	Totals
	Notes              string     `json:"notes"`
	DueDate            *time.Time `json:"due_date,omitempty"`
	IssuedAt           *time.Time `json:"issued_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Entry is a line entry contributing to its aggregate's totals.
type Entry struct {
	ID             string          `json:"id"`
	AggregateID    string          `json:"aggregate_id"`
	SequenceNumber int             `json:"sequence_number"`
	ServiceID      *string         `json:"service_id,omitempty"`
	Reference      string          `json:"reference"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitOfMeasure  string          `json:"unit_of_measure"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	LineTotal      decimal.Decimal `json:"line_total"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Header carries the caller-supplied fields of a new aggregate.
type Header struct {
	Number     string
	BatchID    *string
	ProviderID string
	EnrolleeID *string
	ClientID   *string
	Notes      string
	DueDate    *time.Time
}

// NewEntry carries the caller-supplied fields of a new line entry.
type NewEntry struct {
	ServiceID      *string
	Reference      string
	Name           string
	Description    string
	Quantity       decimal.Decimal
	UnitOfMeasure  string
	UnitCost       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
}

// EntryPatch is a partial update: unset fields are untouched, nulled fields are cleared.
type EntryPatch struct {
	ServiceID      utils.Optional[string]
	Reference      utils.Optional[string]
	Name           utils.Optional[string]
	Description    utils.Optional[string]
	Quantity       utils.Optional[decimal.Decimal]
	UnitOfMeasure  utils.Optional[string]
	UnitCost       utils.Optional[decimal.Decimal]
	DiscountAmount utils.Optional[decimal.Decimal]
	TaxAmount      utils.Optional[decimal.Decimal]
}

// Payment is a settlement recorded against an aggregate.
type Payment struct {
	ID          string          `json:"id"`
	AggregateID string          `json:"aggregate_id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Reference   string          `json:"reference"`
	Note        string          `json:"note"`
	PaidAt      time.Time       `json:"paid_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PaymentInput carries the caller-supplied fields of a payment.
type PaymentInput struct {
	Amount    decimal.Decimal
	Method    string
	Reference string
	Note      string
	PaidAt    *time.Time
}

// ListFilter narrows ListAggregates. Zero values mean "any".
type ListFilter struct {
	Status     Status
	ProviderID string
	BatchID    string
	Limit      int
	Offset     int
}
