package database

import (
	"time"

	"gorm.io/gorm"

	"healthadmin-backend/ledger"
	"healthadmin-backend/models"
)

// NewInvoiceStore stores invoices and their line items.
func NewInvoiceStore(db *gorm.DB) *LedgerStore[models.Invoice, models.InvoiceLineItem] {
	return &LedgerStore[models.Invoice, models.InvoiceLineItem]{db: db, m: &ledgerMapping[models.Invoice, models.InvoiceLineItem]{
		kind:         ledger.KindInvoice,
		parentColumn: "invoice_id",
		numberColumn: "invoice_number",
		toAggregate: func(r *models.Invoice) ledger.Aggregate {
			return ledger.Aggregate{
				ID:                 r.ID,
				Kind:               ledger.KindInvoice,
				Number:             r.InvoiceNumber,
				ProviderID:         r.ProviderID,
				EnrolleeID:         r.EnrolleeID,
				ClientID:           r.ClientID,
				Status:             ledger.Status(r.Status),
				Totals:             totalsOf(r.Amounts),
				Notes:              r.Notes,
				DueDate:            r.DueDate,
				IssuedAt:           r.IssuedAt,
				CancelledAt:        r.CancelledAt,
				CancellationReason: r.CancellationReason,
				CreatedAt:          r.CreatedAt,
				UpdatedAt:          r.UpdatedAt,
			}
		},
		fromAggregate: func(a *ledger.Aggregate) models.Invoice {
			return models.Invoice{
				ID:            a.ID,
				InvoiceNumber: a.Number,
				ProviderID:    a.ProviderID,
				EnrolleeID:    a.EnrolleeID,
				ClientID:      a.ClientID,
				Amounts:       amountsOf(a.Totals),
				Workflow:      workflowOf(a),
				Notes:         a.Notes,
				DueDate:       a.DueDate,
				CreatedAt:     a.CreatedAt,
				UpdatedAt:     a.UpdatedAt,
			}
		},
		toEntry: func(r *models.InvoiceLineItem) ledger.Entry {
			return entryOf(r.ID, r.InvoiceID, r.SequenceNumber, r.LineFields, r.CreatedAt, r.UpdatedAt)
		},
		fromEntry: func(e *ledger.Entry) models.InvoiceLineItem {
			return models.InvoiceLineItem{
				ID:             e.ID,
				InvoiceID:      e.AggregateID,
				SequenceNumber: e.SequenceNumber,
				LineFields:     lineFieldsOf(e),
				CreatedAt:      e.CreatedAt,
				UpdatedAt:      e.UpdatedAt,
			}
		},
	}}
}

// NewPaymentBatchStore stores payment batch details and their claims.
func NewPaymentBatchStore(db *gorm.DB) *LedgerStore[models.PaymentBatchDetail, models.Claim] {
	return &LedgerStore[models.PaymentBatchDetail, models.Claim]{db: db, m: &ledgerMapping[models.PaymentBatchDetail, models.Claim]{
		kind:         ledger.KindPaymentBatchDetail,
		parentColumn: "payment_batch_detail_id",
		numberColumn: "detail_number",
		batchColumn:  "payment_batch_id",
		toAggregate: func(r *models.PaymentBatchDetail) ledger.Aggregate {
			return ledger.Aggregate{
				ID:                 r.ID,
				Kind:               ledger.KindPaymentBatchDetail,
				Number:             r.DetailNumber,
				BatchID:            r.PaymentBatchID,
				ProviderID:         r.ProviderID,
				EnrolleeID:         r.EnrolleeID,
				ClientID:           r.ClientID,
				Status:             ledger.Status(r.Status),
				Totals:             totalsOf(r.Amounts),
				Notes:              r.Notes,
				DueDate:            r.DueDate,
				IssuedAt:           r.IssuedAt,
				CancelledAt:        r.CancelledAt,
				CancellationReason: r.CancellationReason,
				CreatedAt:          r.CreatedAt,
				UpdatedAt:          r.UpdatedAt,
			}
		},
		fromAggregate: func(a *ledger.Aggregate) models.PaymentBatchDetail {
			return models.PaymentBatchDetail{
				ID:             a.ID,
				DetailNumber:   a.Number,
				PaymentBatchID: a.BatchID,
				ProviderID:     a.ProviderID,
				EnrolleeID:     a.EnrolleeID,
				ClientID:       a.ClientID,
				Amounts:        amountsOf(a.Totals),
				Workflow:       workflowOf(a),
				Notes:          a.Notes,
				DueDate:        a.DueDate,
				CreatedAt:      a.CreatedAt,
				UpdatedAt:      a.UpdatedAt,
			}
		},
		toEntry: func(r *models.Claim) ledger.Entry {
			return entryOf(r.ID, r.PaymentBatchDetailID, r.SequenceNumber, r.LineFields, r.CreatedAt, r.UpdatedAt)
		},
		fromEntry: func(e *ledger.Entry) models.Claim {
			return models.Claim{
				ID:                   e.ID,
				PaymentBatchDetailID: e.AggregateID,
				SequenceNumber:       e.SequenceNumber,
				LineFields:           lineFieldsOf(e),
				CreatedAt:            e.CreatedAt,
				UpdatedAt:            e.UpdatedAt,
			}
		},
	}}
}

func totalsOf(a models.Amounts) ledger.Totals {
	return ledger.Totals{
		Subtotal:       a.Subtotal,
		DiscountAmount: a.DiscountAmount,
		TaxAmount:      a.TaxAmount,
		TotalAmount:    a.TotalAmount,
		PaidAmount:     a.PaidAmount,
		BalanceAmount:  a.BalanceAmount,
	}
}

func amountsOf(t ledger.Totals) models.Amounts {
	return models.Amounts{
		Subtotal:       t.Subtotal,
		DiscountAmount: t.DiscountAmount,
		TaxAmount:      t.TaxAmount,
		TotalAmount:    t.TotalAmount,
		PaidAmount:     t.PaidAmount,
		BalanceAmount:  t.BalanceAmount,
	}
}

func workflowOf(a *ledger.Aggregate) models.Workflow {
	return models.Workflow{
		Status:             string(a.Status),
		IssuedAt:           a.IssuedAt,
		CancelledAt:        a.CancelledAt,
		CancellationReason: a.CancellationReason,
	}
}

func lineFieldsOf(e *ledger.Entry) models.LineFields {
	return models.LineFields{
		ServiceID:      e.ServiceID,
		Reference:      e.Reference,
		Name:           e.Name,
		Description:    e.Description,
		Quantity:       e.Quantity,
		UnitOfMeasure:  e.UnitOfMeasure,
		UnitCost:       e.UnitCost,
		Subtotal:       e.Subtotal,
		DiscountAmount: e.DiscountAmount,
		TaxAmount:      e.TaxAmount,
		LineTotal:      e.LineTotal,
	}
}

func entryOf(id, aggregateID string, seq int, f models.LineFields, createdAt, updatedAt time.Time) ledger.Entry {
	return ledger.Entry{
		ID:             id,
		AggregateID:    aggregateID,
		SequenceNumber: seq,
		ServiceID:      f.ServiceID,
		Reference:      f.Reference,
		Name:           f.Name,
		Description:    f.Description,
		Quantity:       f.Quantity,
		UnitOfMeasure:  f.UnitOfMeasure,
		UnitCost:       f.UnitCost,
		Subtotal:       f.Subtotal,
		DiscountAmount: f.DiscountAmount,
		TaxAmount:      f.TaxAmount,
		LineTotal:      f.LineTotal,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
}
