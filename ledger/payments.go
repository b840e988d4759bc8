package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"healthadmin-backend/utils"
)

// RecordPayment applies a payment to an issued aggregate and moves it to
// partially_paid or paid. Overpayment is accepted and leaves a negative balance.
func (l *Ledger) RecordPayment(ctx context.Context, aggregateID string, in PaymentInput) (*Payment, *Aggregate, error) {
	amount := utils.Round2(in.Amount)
	if !amount.IsPositive() {
		return nil, nil, invalid("amount", "must be greater than zero")
	}

	var (
		payment Payment
		agg     *Aggregate
	)
	err := l.store.WithTx(ctx, func(s Store) error {
		var err error
		agg, err = s.LockAggregate(ctx, aggregateID)
		if err != nil {
			return err
		}
		if agg.Status != StatusIssued && agg.Status != StatusPartiallyPaid {
			return &InvalidStateError{Op: "record payment", Status: agg.Status}
		}

		now := l.now().UTC()
		payment = Payment{
			ID:          uuid.NewString(),
			AggregateID: aggregateID,
			Amount:      amount,
			Method:      strings.TrimSpace(in.Method),
			Reference:   strings.TrimSpace(in.Reference),
			Note:        strings.TrimSpace(in.Note),
			PaidAt:      now,
			CreatedAt:   now,
		}
		if in.PaidAt != nil {
			payment.PaidAt = in.PaidAt.UTC()
		}
		if err := s.CreatePayment(ctx, &payment); err != nil {
			return err
		}

		t := agg.Totals
		t.PaidAmount = t.PaidAmount.Add(amount)
		t.BalanceAmount = t.TotalAmount.Sub(t.PaidAmount)
		if err := s.UpdateTotals(ctx, aggregateID, t); err != nil {
			return err
		}
		agg.Totals = t

		next := StatusPartiallyPaid
		if !t.BalanceAmount.IsPositive() {
			next = StatusPaid
		}
		if next != agg.Status {
			agg.Status = next
			agg.UpdatedAt = now
			return s.UpdateStatus(ctx, agg)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	l.emit(ctx, "payment_recorded", fmt.Sprintf("recorded payment of %s on %s %s", amount.StringFixed(2), l.kind, agg.Number), map[string]any{
		"aggregate_id":   aggregateID,
		"payment_id":     payment.ID,
		"amount":         amount.String(),
		"balance_amount": agg.BalanceAmount.String(),
		"status":         string(agg.Status),
	})
	return &payment, agg, nil
}

// Payments lists the payments recorded against an aggregate.
func (l *Ledger) Payments(ctx context.Context, aggregateID string) ([]Payment, error) {
	if _, err := l.store.GetAggregate(ctx, aggregateID); err != nil {
		return nil, err
	}
	return l.store.ListPayments(ctx, aggregateID)
}
