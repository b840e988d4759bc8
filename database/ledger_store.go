package database

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"healthadmin-backend/ledger"
	"healthadmin-backend/models"
)

// ledgerMapping binds an aggregate table A and its entry table E to the ledger types.
type ledgerMapping[A any, E any] struct {
	kind         ledger.Kind
	parentColumn string // entry column referencing the aggregate
	numberColumn string
	batchColumn  string // "" when the aggregate has no batch

	toAggregate   func(*A) ledger.Aggregate
	fromAggregate func(*ledger.Aggregate) A
	toEntry       func(*E) ledger.Entry
	fromEntry     func(*ledger.Entry) E
}

// LedgerStore implements ledger.Store on GORM for one aggregate kind.
// Outside a transaction every call runs in its own short tenant transaction.
type LedgerStore[A any, E any] struct {
	db   *gorm.DB
	inTx bool
	m    *ledgerMapping[A, E]
}

var _ ledger.Store = (*LedgerStore[models.Invoice, models.InvoiceLineItem])(nil)

func (s *LedgerStore[A, E]) run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.inTx {
		return fn(s.db.WithContext(ctx))
	}
	return InTenant(ctx, s.db, fn)
}

// WithTx runs fn in one tenant transaction. Nested calls join the outer transaction.
func (s *LedgerStore[A, E]) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return InTenant(ctx, s.db, func(tx *gorm.DB) error {
		return fn(&LedgerStore[A, E]{db: tx, inTx: true, m: s.m})
	})
}

func notFound(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.NewNotFound(entity, id)
	}
	return err
}

func (s *LedgerStore[A, E]) findAggregate(ctx context.Context, id string, lock bool) (*ledger.Aggregate, error) {
	var row A
	err := s.run(ctx, func(tx *gorm.DB) error {
		if lock {
			tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		return tx.Where("id = ?", id).First(&row).Error
	})
	if err != nil {
		return nil, notFound(err, string(s.m.kind), id)
	}
	agg := s.m.toAggregate(&row)
	return &agg, nil
}

// LockAggregate selects the row FOR UPDATE. SQLite ignores the locking clause.
func (s *LedgerStore[A, E]) LockAggregate(ctx context.Context, id string) (*ledger.Aggregate, error) {
	return s.findAggregate(ctx, id, true)
}

func (s *LedgerStore[A, E]) GetAggregate(ctx context.Context, id string) (*ledger.Aggregate, error) {
	return s.findAggregate(ctx, id, false)
}

func (s *LedgerStore[A, E]) ListAggregates(ctx context.Context, f ledger.ListFilter) ([]ledger.Aggregate, int64, error) {
	if f.BatchID != "" && s.m.batchColumn == "" {
		return []ledger.Aggregate{}, 0, nil
	}

	var (
		rows  []A
		total int64
	)
	err := s.run(ctx, func(tx *gorm.DB) error {
		filtered := func() *gorm.DB {
			q := tx.Model(new(A))
			if f.Status != "" {
				q = q.Where("status = ?", string(f.Status))
			}
			if f.ProviderID != "" {
				q = q.Where("provider_id = ?", f.ProviderID)
			}
			if f.BatchID != "" {
				q = q.Where(s.m.batchColumn+" = ?", f.BatchID)
			}
			return q
		}
		if err := filtered().Count(&total).Error; err != nil {
			return err
		}
		q := filtered().Order("created_at DESC, id DESC").Offset(f.Offset)
		if f.Limit > 0 {
			q = q.Limit(f.Limit)
		}
		return q.Find(&rows).Error
	})
	if err != nil {
		return nil, 0, err
	}

	out := make([]ledger.Aggregate, len(rows))
	for i := range rows {
		out[i] = s.m.toAggregate(&rows[i])
	}
	return out, total, nil
}

func (s *LedgerStore[A, E]) CreateAggregate(ctx context.Context, a *ledger.Aggregate) error {
	row := s.m.fromAggregate(a)
	return s.run(ctx, func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
}

func (s *LedgerStore[A, E]) updateAggregate(ctx context.Context, id string, values map[string]any) error {
	return s.run(ctx, func(tx *gorm.DB) error {
		res := tx.Model(new(A)).Where("id = ?", id).Updates(values)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ledger.NewNotFound(string(s.m.kind), id)
		}
		return nil
	})
}

func (s *LedgerStore[A, E]) UpdateTotals(ctx context.Context, id string, t ledger.Totals) error {
	return s.updateAggregate(ctx, id, map[string]any{
		"subtotal":        t.Subtotal,
		"discount_amount": t.DiscountAmount,
		"tax_amount":      t.TaxAmount,
		"total_amount":    t.TotalAmount,
		"paid_amount":     t.PaidAmount,
		"balance_amount":  t.BalanceAmount,
	})
}

func (s *LedgerStore[A, E]) UpdateStatus(ctx context.Context, a *ledger.Aggregate) error {
	return s.updateAggregate(ctx, a.ID, map[string]any{
		"status":              string(a.Status),
		"issued_at":           a.IssuedAt,
		"cancelled_at":        a.CancelledAt,
		"cancellation_reason": a.CancellationReason,
		"updated_at":          a.UpdatedAt,
	})
}

// DeleteAggregate removes the entries explicitly; SQLite runs without foreign keys.
func (s *LedgerStore[A, E]) DeleteAggregate(ctx context.Context, id string) error {
	return s.run(ctx, func(tx *gorm.DB) error {
		if err := tx.Where(s.m.parentColumn+" = ?", id).Delete(new(E)).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(new(A))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ledger.NewNotFound(string(s.m.kind), id)
		}
		return nil
	})
}

func (s *LedgerStore[A, E]) NumberExists(ctx context.Context, number string) (bool, error) {
	var n int64
	err := s.run(ctx, func(tx *gorm.DB) error {
		return tx.Model(new(A)).Where(s.m.numberColumn+" = ?", number).Count(&n).Error
	})
	return n > 0, err
}

func (s *LedgerStore[A, E]) GetEntry(ctx context.Context, id string) (*ledger.Entry, error) {
	var row E
	err := s.run(ctx, func(tx *gorm.DB) error {
		return tx.Where("id = ?", id).First(&row).Error
	})
	if err != nil {
		return nil, notFound(err, "entry", id)
	}
	e := s.m.toEntry(&row)
	return &e, nil
}

func (s *LedgerStore[A, E]) ListEntries(ctx context.Context, aggregateID string) ([]ledger.Entry, error) {
	var rows []E
	err := s.run(ctx, func(tx *gorm.DB) error {
		return tx.Where(s.m.parentColumn+" = ?", aggregateID).Order("sequence_number ASC").Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Entry, len(rows))
	for i := range rows {
		out[i] = s.m.toEntry(&rows[i])
	}
	return out, nil
}

func (s *LedgerStore[A, E]) MaxSequence(ctx context.Context, aggregateID string) (int, error) {
	var maxSeq int
	err := s.run(ctx, func(tx *gorm.DB) error {
		return tx.Model(new(E)).
			Where(s.m.parentColumn+" = ?", aggregateID).
			Select("COALESCE(MAX(sequence_number), 0)").
			Row().Scan(&maxSeq)
	})
	return maxSeq, err
}

func (s *LedgerStore[A, E]) CountEntries(ctx context.Context, aggregateID string) (int64, error) {
	var n int64
	err := s.run(ctx, func(tx *gorm.DB) error {
		return tx.Model(new(E)).Where(s.m.parentColumn+" = ?", aggregateID).Count(&n).Error
	})
	return n, err
}

func (s *LedgerStore[A, E]) CreateEntry(ctx context.Context, e *ledger.Entry) error {
	row := s.m.fromEntry(e)
	return s.run(ctx, func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
}

func (s *LedgerStore[A, E]) SaveEntry(ctx context.Context, e *ledger.Entry) error {
	row := s.m.fromEntry(e)
	return s.run(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&row).Select("*").Omit("id", "created_at", s.m.parentColumn).Updates(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ledger.NewNotFound("entry", e.ID)
		}
		return nil
	})
}

func (s *LedgerStore[A, E]) DeleteEntry(ctx context.Context, id string) error {
	return s.run(ctx, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(new(E))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ledger.NewNotFound("entry", id)
		}
		return nil
	})
}

func (s *LedgerStore[A, E]) CreatePayment(ctx context.Context, p *ledger.Payment) error {
	row := models.Payment{
		ID:            p.ID,
		AggregateType: string(s.m.kind),
		AggregateID:   p.AggregateID,
		Amount:        p.Amount,
		Method:        p.Method,
		Reference:     p.Reference,
		Note:          p.Note,
		PaidAt:        p.PaidAt,
		CreatedAt:     p.CreatedAt,
	}
	return s.run(ctx, func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
}

func (s *LedgerStore[A, E]) ListPayments(ctx context.Context, aggregateID string) ([]ledger.Payment, error) {
	var rows []models.Payment
	err := s.run(ctx, func(tx *gorm.DB) error {
		return tx.Where("aggregate_type = ? AND aggregate_id = ?", string(s.m.kind), aggregateID).
			Order("paid_at ASC").
			Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Payment, len(rows))
	for i, r := range rows {
		out[i] = ledger.Payment{
			ID:          r.ID,
			AggregateID: r.AggregateID,
			Amount:      r.Amount,
			Method:      r.Method,
			Reference:   r.Reference,
			Note:        r.Note,
			PaidAt:      r.PaidAt,
			CreatedAt:   r.CreatedAt,
		}
	}
	return out, nil
}
