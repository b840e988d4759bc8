package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Recalculate re-derives and persists the totals of aggregateID from its current entries.
func (l *Ledger) Recalculate(ctx context.Context, aggregateID string) (Totals, error) {
	var totals Totals
	err := l.store.WithTx(ctx, func(s Store) error {
		agg, err := s.LockAggregate(ctx, aggregateID)
		if err != nil {
			return err
		}
		totals, err = recalculate(ctx, s, agg)
		return err
	})
	if err != nil {
		return Totals{}, err
	}
	l.log.Debug().Str("aggregate_id", aggregateID).Str("total", totals.TotalAmount.String()).Msg("totals recalculated")
	return totals, nil
}

// recalculate loads every entry of agg, derives the totals and writes them back.
// The caller must hold the aggregate lock. PaidAmount and Status are left untouched.
func recalculate(ctx context.Context, s Store, agg *Aggregate) (Totals, error) {
	entries, err := s.ListEntries(ctx, agg.ID)
	if err != nil {
		return Totals{}, err
	}

	t := Totals{PaidAmount: agg.PaidAmount}
	if len(entries) == 0 {
		// No entries left: amounts reset to zero, balance still reflects payments.
		t.Subtotal = decimal.Zero
		t.DiscountAmount = decimal.Zero
		t.TaxAmount = decimal.Zero
		t.TotalAmount = decimal.Zero
		t.BalanceAmount = decimal.Zero.Sub(agg.PaidAmount)
	} else {
		t.Subtotal, t.DiscountAmount, t.TaxAmount = sumEntries(entries)
		t.TotalAmount = t.Subtotal.Sub(t.DiscountAmount).Add(t.TaxAmount)
		t.BalanceAmount = t.TotalAmount.Sub(agg.PaidAmount)
	}

	if err := s.UpdateTotals(ctx, agg.ID, t); err != nil {
		return Totals{}, err
	}
	agg.Totals = t
	return t, nil
}
