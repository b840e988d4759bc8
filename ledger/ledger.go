package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"healthadmin-backend/logger"
	"healthadmin-backend/utils"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

var numberPrefixes = map[Kind]string{
	KindInvoice:            "INV",
	KindPaymentBatchDetail: "PBD",
}

// Ledger orchestrates mutations of one aggregate kind.
type Ledger struct {
	kind  Kind
	store Store
	dir   Directory
	audit AuditSink
	log   zerolog.Logger
	now   func() time.Time
}

type Option func(*Ledger)

// WithLogger replaces the component logger.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New wires a Ledger for kind. Store, directory and sink are required.
func New(kind Kind, store Store, dir Directory, sink AuditSink, opts ...Option) *Ledger {
	l := &Ledger{
		kind:  kind,
		store: store,
		dir:   dir,
		audit: sink,
		log:   logger.WithComponent("ledger").With().Str("kind", string(kind)).Logger(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Kind returns the aggregate kind managed by l.
func (l *Ledger) Kind() Kind { return l.kind }

// Create persists a new draft aggregate with its entries numbered 1..N.
func (l *Ledger) Create(ctx context.Context, h Header, in []NewEntry) (*Aggregate, []Entry, error) {
	h.ProviderID = strings.TrimSpace(h.ProviderID)
	h.EnrolleeID = trimPtr(h.EnrolleeID)
	h.ClientID = trimPtr(h.ClientID)
	h.BatchID = trimPtr(h.BatchID)
	h.Number = strings.TrimSpace(h.Number)

	if h.ProviderID == "" {
		return nil, nil, invalid("provider_id", "is required")
	}
	if h.EnrolleeID != nil && h.ClientID != nil {
		return nil, nil, invalid("client_id", "only one of enrollee_id and client_id may be set")
	}
	if len(in) == 0 {
		return nil, nil, invalid("entries", "at least one entry is required")
	}

	now := l.now().UTC()
	agg := &Aggregate{
		ID:         uuid.NewString(),
		Kind:       l.kind,
		Number:     h.Number,
		BatchID:    h.BatchID,
		ProviderID: h.ProviderID,
		EnrolleeID: h.EnrolleeID,
		ClientID:   h.ClientID,
		Status:     StatusDraft,
		Notes:      strings.TrimSpace(h.Notes),
		DueDate:    h.DueDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	entries := make([]Entry, len(in))
	for i, ne := range in {
		e := entryFrom(agg.ID, i+1, ne)
		if err := e.validate(entryField(i)); err != nil {
			return nil, nil, err
		}
		e.ID = uuid.NewString()
		e.CreatedAt, e.UpdatedAt = now, now
		entries[i] = e
	}

	if err := l.checkHeaderRefs(ctx, agg); err != nil {
		return nil, nil, err
	}
	for i := range entries {
		if err := l.checkRef(ctx, EntityService, entries[i].ServiceID); err != nil {
			return nil, nil, err
		}
	}
	if err := l.assignNumber(ctx, agg); err != nil {
		return nil, nil, err
	}

	// Nothing is persisted yet, so the totals are summed directly.
	agg.Subtotal, agg.DiscountAmount, agg.TaxAmount = sumEntries(entries)
	agg.TotalAmount = agg.Subtotal.Sub(agg.DiscountAmount).Add(agg.TaxAmount)
	agg.BalanceAmount = agg.TotalAmount.Sub(agg.PaidAmount)

	err := l.store.WithTx(ctx, func(s Store) error {
		if err := s.CreateAggregate(ctx, agg); err != nil {
			return err
		}
		for i := range entries {
			if err := s.CreateEntry(ctx, &entries[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	l.emit(ctx, "created", fmt.Sprintf("created %s %s with %d entries", l.kind, agg.Number, len(entries)), map[string]any{
		"aggregate_id": agg.ID,
		"number":       agg.Number,
		"entries":      len(entries),
		"total_amount": agg.TotalAmount.String(),
	})
	return agg, entries, nil
}

// AddEntry appends an entry with sequence number max+1 and recalculates the totals.
func (l *Ledger) AddEntry(ctx context.Context, aggregateID string, in NewEntry) (*Entry, error) {
	entry := entryFrom(aggregateID, 0, in)
	if err := entry.validate(""); err != nil {
		return nil, err
	}
	if err := l.checkRef(ctx, EntityService, entry.ServiceID); err != nil {
		return nil, err
	}

	var totals Totals
	err := l.store.WithTx(ctx, func(s Store) error {
		agg, err := s.LockAggregate(ctx, aggregateID)
		if err != nil {
			return err
		}
		maxSeq, err := s.MaxSequence(ctx, aggregateID)
		if err != nil {
			return err
		}
		now := l.now().UTC()
		entry.ID = uuid.NewString()
		entry.SequenceNumber = maxSeq + 1
		entry.CreatedAt, entry.UpdatedAt = now, now
		if err := s.CreateEntry(ctx, &entry); err != nil {
			return err
		}
		totals, err = recalculate(ctx, s, agg)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.emit(ctx, "entry_added", fmt.Sprintf("added entry #%d to %s %s", entry.SequenceNumber, l.kind, aggregateID), map[string]any{
		"aggregate_id":    aggregateID,
		"entry_id":        entry.ID,
		"sequence_number": entry.SequenceNumber,
		"line_total":      entry.LineTotal.String(),
		"total_amount":    totals.TotalAmount.String(),
	})
	return &entry, nil
}

// UpdateEntry applies a partial update to an entry and recalculates its aggregate.
func (l *Ledger) UpdateEntry(ctx context.Context, entryID string, patch EntryPatch) (*Entry, error) {
	if patch.ServiceID.Set && !patch.ServiceID.Null {
		if err := l.checkRef(ctx, EntityService, trimPtr(&patch.ServiceID.Value)); err != nil {
			return nil, err
		}
	}

	var (
		updated Entry
		totals  Totals
	)
	err := l.store.WithTx(ctx, func(s Store) error {
		current, err := s.GetEntry(ctx, entryID)
		if err != nil {
			return err
		}
		agg, err := s.LockAggregate(ctx, current.AggregateID)
		if err != nil {
			return err
		}
		// Re-read under the aggregate lock.
		current, err = s.GetEntry(ctx, entryID)
		if err != nil {
			return err
		}

		updated = *current
		if err := updated.apply(patch); err != nil {
			return err
		}
		updated.UpdatedAt = l.now().UTC()
		if err := s.SaveEntry(ctx, &updated); err != nil {
			return err
		}
		totals, err = recalculate(ctx, s, agg)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.emit(ctx, "entry_updated", fmt.Sprintf("updated entry #%d of %s %s", updated.SequenceNumber, l.kind, updated.AggregateID), map[string]any{
		"aggregate_id":    updated.AggregateID,
		"entry_id":        updated.ID,
		"sequence_number": updated.SequenceNumber,
		"line_total":      updated.LineTotal.String(),
		"total_amount":    totals.TotalAmount.String(),
	})
	return &updated, nil
}

// DeleteEntry removes an entry and recalculates its aggregate. Siblings keep their numbers.
func (l *Ledger) DeleteEntry(ctx context.Context, entryID string) error {
	var (
		deleted Entry
		totals  Totals
	)
	err := l.store.WithTx(ctx, func(s Store) error {
		e, err := s.GetEntry(ctx, entryID)
		if err != nil {
			return err
		}
		agg, err := s.LockAggregate(ctx, e.AggregateID)
		if err != nil {
			return err
		}
		if err := s.DeleteEntry(ctx, entryID); err != nil {
			return err
		}
		deleted = *e
		totals, err = recalculate(ctx, s, agg)
		return err
	})
	if err != nil {
		return err
	}

	l.emit(ctx, "entry_deleted", fmt.Sprintf("deleted entry #%d of %s %s", deleted.SequenceNumber, l.kind, deleted.AggregateID), map[string]any{
		"aggregate_id":    deleted.AggregateID,
		"entry_id":        deleted.ID,
		"sequence_number": deleted.SequenceNumber,
		"total_amount":    totals.TotalAmount.String(),
	})
	return nil
}

// DeleteAggregate removes a draft aggregate and all of its entries.
func (l *Ledger) DeleteAggregate(ctx context.Context, aggregateID string) error {
	var (
		agg     *Aggregate
		removed int64
	)
	err := l.store.WithTx(ctx, func(s Store) error {
		var err error
		agg, err = s.LockAggregate(ctx, aggregateID)
		if err != nil {
			return err
		}
		if !agg.Status.Deletable() {
			return &InvalidStateError{Op: "delete", Status: agg.Status}
		}
		removed, err = s.CountEntries(ctx, aggregateID)
		if err != nil {
			return err
		}
		return s.DeleteAggregate(ctx, aggregateID)
	})
	if err != nil {
		return err
	}

	l.emit(ctx, "deleted", fmt.Sprintf("deleted %s %s", l.kind, agg.Number), map[string]any{
		"aggregate_id":    aggregateID,
		"number":          agg.Number,
		"entries_removed": removed,
	})
	return nil
}

// Get returns an aggregate with its entries.
func (l *Ledger) Get(ctx context.Context, aggregateID string) (*Aggregate, []Entry, error) {
	agg, err := l.store.GetAggregate(ctx, aggregateID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := l.store.ListEntries(ctx, aggregateID)
	if err != nil {
		return nil, nil, err
	}
	return agg, entries, nil
}

// Entry returns a single line entry.
func (l *Ledger) Entry(ctx context.Context, entryID string) (*Entry, error) {
	return l.store.GetEntry(ctx, entryID)
}

// List pages through aggregates, newest first.
func (l *Ledger) List(ctx context.Context, f ListFilter) ([]Aggregate, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, invalid("status", "unknown status %q", f.Status)
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return l.store.ListAggregates(ctx, f)
}

// Issue moves a draft aggregate to issued.
func (l *Ledger) Issue(ctx context.Context, aggregateID string) (*Aggregate, error) {
	var agg *Aggregate
	err := l.store.WithTx(ctx, func(s Store) error {
		var err error
		agg, err = s.LockAggregate(ctx, aggregateID)
		if err != nil {
			return err
		}
		if !CanTransition(agg.Status, StatusIssued) {
			return &InvalidStateError{Op: "issue", Status: agg.Status}
		}
		n, err := s.CountEntries(ctx, aggregateID)
		if err != nil {
			return err
		}
		if n == 0 {
			return invalid("entries", "cannot issue without entries")
		}
		now := l.now().UTC()
		agg.Status = StatusIssued
		agg.IssuedAt = &now
		agg.UpdatedAt = now
		return s.UpdateStatus(ctx, agg)
	})
	if err != nil {
		return nil, err
	}

	l.emit(ctx, "issued", fmt.Sprintf("issued %s %s", l.kind, agg.Number), map[string]any{
		"aggregate_id": agg.ID,
		"total_amount": agg.TotalAmount.String(),
	})
	return agg, nil
}

// Cancel moves a non-terminal aggregate to cancelled, recording the reason.
func (l *Ledger) Cancel(ctx context.Context, aggregateID, reason string) (*Aggregate, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason", "is required")
	}

	var (
		agg  *Aggregate
		prev Status
	)
	err := l.store.WithTx(ctx, func(s Store) error {
		var err error
		agg, err = s.LockAggregate(ctx, aggregateID)
		if err != nil {
			return err
		}
		if !CanTransition(agg.Status, StatusCancelled) {
			return &InvalidStateError{Op: "cancel", Status: agg.Status}
		}
		now := l.now().UTC()
		prev = agg.Status
		agg.Status = StatusCancelled
		agg.CancelledAt = &now
		agg.CancellationReason = reason
		agg.UpdatedAt = now
		return s.UpdateStatus(ctx, agg)
	})
	if err != nil {
		return nil, err
	}

	l.emit(ctx, "cancelled", fmt.Sprintf("cancelled %s %s: %s", l.kind, agg.Number, reason), map[string]any{
		"aggregate_id":    agg.ID,
		"previous_status": string(prev),
		"reason":          reason,
	})
	return agg, nil
}

func (l *Ledger) checkHeaderRefs(ctx context.Context, agg *Aggregate) error {
	provider := agg.ProviderID
	refs := []struct {
		entity EntityType
		id     *string
	}{
		{EntityProvider, &provider},
		{EntityEnrollee, agg.EnrolleeID},
		{EntityClient, agg.ClientID},
		{EntityPaymentBatch, agg.BatchID},
	}
	for _, r := range refs {
		if err := l.checkRef(ctx, r.entity, r.id); err != nil {
			return err
		}
	}
	return nil
}

// checkRef verifies that a non-nil reference points at an existing record.
func (l *Ledger) checkRef(ctx context.Context, entity EntityType, id *string) error {
	if id == nil {
		return nil
	}
	ok, err := l.dir.Exists(ctx, entity, *id)
	if err != nil {
		return err
	}
	if !ok {
		return NewNotFound(string(entity), *id)
	}
	return nil
}

func (l *Ledger) assignNumber(ctx context.Context, agg *Aggregate) error {
	if agg.Number != "" {
		taken, err := l.store.NumberExists(ctx, agg.Number)
		if err != nil {
			return err
		}
		if taken {
			return invalid("number", "%s is already in use", agg.Number)
		}
		return nil
	}
	prefix := numberPrefixes[l.kind]
	number, err := utils.GenerateUnique(ctx, func() string {
		return utils.DatedCode(prefix, l.now())
	}, l.store.NumberExists, utils.DefaultCodeAttempts)
	if err != nil {
		return err
	}
	agg.Number = number
	return nil
}
