// Package memstore provides an in-memory ledger.Store (for testing/dev).
package memstore

import (
	"context"
	"sort"
	"sync"

	"healthadmin-backend/ledger"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Memory is a ledger.Store kept in maps. WithTx holds the store lock for the
// whole callback and restores a snapshot when the callback fails.
type Memory struct {
	mu   sync.Mutex
	data state
}

type state struct {
	aggregates map[string]ledger.Aggregate
	entries    map[string]ledger.Entry
	payments   map[string]ledger.Payment
}

func New() *Memory {
	return &Memory{data: state{
		aggregates: make(map[string]ledger.Aggregate),
		entries:    make(map[string]ledger.Entry),
		payments:   make(map[string]ledger.Payment),
	}}
}

func (s state) clone() state {
	c := state{
		aggregates: make(map[string]ledger.Aggregate, len(s.aggregates)),
		entries:    make(map[string]ledger.Entry, len(s.entries)),
		payments:   make(map[string]ledger.Payment, len(s.payments)),
	}
	for k, v := range s.aggregates {
		c.aggregates[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	return c
}

// WithTx executes fn within a transaction.
// Simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.clone()
	if err := fn(&view{st: &m.data}); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

func (m *Memory) locked() (*view, func()) {
	m.mu.Lock()
	return &view{st: &m.data}, m.mu.Unlock
}

func (m *Memory) LockAggregate(ctx context.Context, id string) (*ledger.Aggregate, error) {
	v, unlock := m.locked()
	defer unlock()
	return v.LockAggregate(ctx, id)
}

func (m *Memory) GetAggregate(ctx context.Context, id string) (*ledger.Aggregate, error) {
	v, unlock := m.locked()
	defer unlock()
	return v.GetAggregate(ctx, id)
}

func (m *Memory) ListAggregates(ctx context.Context, f ledger.ListFilter) ([]ledger.Aggregate, int64, error) {
	v, unlock := m.locked()
	defer unlock()
	return v.ListAggregates(ctx, f)
}

func (m *Memory) CreateAggregate(ctx context.Context, a *ledger.Aggregate) error {
	v, unlock := m.locked()
	defer unlock()
	return v.CreateAggregate(ctx, a)
}

func (m *Memory) UpdateTotals(ctx context.Context, id string, t ledger.Totals) error {
	v, unlock := m.locked()
	defer unlock()
	return v.UpdateTotals(ctx, id, t)
}

func (m *Memory) UpdateStatus(ctx context.Context, a *ledger.Aggregate) error {
	v, unlock := m.locked()
	defer unlock()
	return v.UpdateStatus(ctx, a)
}

func (m *Memory) DeleteAggregate(ctx context.Context, id string) error {
	v, unlock := m.locked()
	defer unlock()
	return v.DeleteAggregate(ctx, id)
}

func (m *Memory) NumberExists(ctx context.Context, number string) (bool, error) {
	v, unlock := m.locked()
	defer unlock()
	return v.NumberExists(ctx, number)
}

func (m *Memory) GetEntry(ctx context.Context, id string) (*ledger.Entry, error) {
	v, unlock := m.locked()
	defer unlock()
	return v.GetEntry(ctx, id)
}

func (m *Memory) ListEntries(ctx context.Context, aggregateID string) ([]ledger.Entry, error) {
	v, unlock := m.locked()
	defer unlock()
	return v.ListEntries(ctx, aggregateID)
}

func (m *Memory) MaxSequence(ctx context.Context, aggregateID string) (int, error) {
	v, unlock := m.locked()
	defer unlock()
	return v.MaxSequence(ctx, aggregateID)
}

func (m *Memory) CountEntries(ctx context.Context, aggregateID string) (int64, error) {
	v, unlock := m.locked()
	defer unlock()
	return v.CountEntries(ctx, aggregateID)
}

func (m *Memory) CreateEntry(ctx context.Context, e *ledger.Entry) error {
	v, unlock := m.locked()
	defer unlock()
	return v.CreateEntry(ctx, e)
}

func (m *Memory) SaveEntry(ctx context.Context, e *ledger.Entry) error {
	v, unlock := m.locked()
	defer unlock()
	return v.SaveEntry(ctx, e)
}

func (m *Memory) DeleteEntry(ctx context.Context, id string) error {
	v, unlock := m.locked()
	defer unlock()
	return v.DeleteEntry(ctx, id)
}

func (m *Memory) CreatePayment(ctx context.Context, p *ledger.Payment) error {
	v, unlock := m.locked()
	defer unlock()
	return v.CreatePayment(ctx, p)
}

func (m *Memory) ListPayments(ctx context.Context, aggregateID string) ([]ledger.Payment, error) {
	v, unlock := m.locked()
	defer unlock()
	return v.ListPayments(ctx, aggregateID)
}

// =============================================================================
// VIEW - unlocked operations, used directly inside WithTx
// =============================================================================

type view struct {
	st *state
}

// WithTx inside a transaction joins it.
func (v *view) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	return fn(v)
}

// LockAggregate is GetAggregate: the store lock is already held.
func (v *view) LockAggregate(ctx context.Context, id string) (*ledger.Aggregate, error) {
	return v.GetAggregate(ctx, id)
}

func (v *view) GetAggregate(_ context.Context, id string) (*ledger.Aggregate, error) {
	a, ok := v.st.aggregates[id]
	if !ok {
		return nil, ledger.NewNotFound("aggregate", id)
	}
	return &a, nil
}

func (v *view) ListAggregates(_ context.Context, f ledger.ListFilter) ([]ledger.Aggregate, int64, error) {
	var matched []ledger.Aggregate
	for _, a := range v.st.aggregates {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.ProviderID != "" && a.ProviderID != f.ProviderID {
			continue
		}
		if f.BatchID != "" && (a.BatchID == nil || *a.BatchID != f.BatchID) {
			continue
		}
		matched = append(matched, a)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if f.Offset >= len(matched) {
		return []ledger.Aggregate{}, total, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func (v *view) CreateAggregate(_ context.Context, a *ledger.Aggregate) error {
	v.st.aggregates[a.ID] = *a
	return nil
}

func (v *view) UpdateTotals(_ context.Context, id string, t ledger.Totals) error {
	a, ok := v.st.aggregates[id]
	if !ok {
		return ledger.NewNotFound("aggregate", id)
	}
	a.Totals = t
	v.st.aggregates[id] = a
	return nil
}

func (v *view) UpdateStatus(_ context.Context, in *ledger.Aggregate) error {
	a, ok := v.st.aggregates[in.ID]
	if !ok {
		return ledger.NewNotFound("aggregate", in.ID)
	}
	a.Status = in.Status
	a.IssuedAt = in.IssuedAt
	a.CancelledAt = in.CancelledAt
	a.CancellationReason = in.CancellationReason
	a.UpdatedAt = in.UpdatedAt
	v.st.aggregates[in.ID] = a
	return nil
}

func (v *view) DeleteAggregate(_ context.Context, id string) error {
	if _, ok := v.st.aggregates[id]; !ok {
		return ledger.NewNotFound("aggregate", id)
	}
	for eid, e := range v.st.entries {
		if e.AggregateID == id {
			delete(v.st.entries, eid)
		}
	}
	delete(v.st.aggregates, id)
	return nil
}

func (v *view) NumberExists(_ context.Context, number string) (bool, error) {
	for _, a := range v.st.aggregates {
		if a.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (v *view) GetEntry(_ context.Context, id string) (*ledger.Entry, error) {
	e, ok := v.st.entries[id]
	if !ok {
		return nil, ledger.NewNotFound("entry", id)
	}
	return &e, nil
}

func (v *view) ListEntries(_ context.Context, aggregateID string) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for _, e := range v.st.entries {
		if e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNumber < out[j].SequenceNumber })
	return out, nil
}

func (v *view) MaxSequence(_ context.Context, aggregateID string) (int, error) {
	maxSeq := 0
	for _, e := range v.st.entries {
		if e.AggregateID == aggregateID && e.SequenceNumber > maxSeq {
			maxSeq = e.SequenceNumber
		}
	}
	return maxSeq, nil
}

func (v *view) CountEntries(_ context.Context, aggregateID string) (int64, error) {
	var n int64
	for _, e := range v.st.entries {
		if e.AggregateID == aggregateID {
			n++
		}
	}
	return n, nil
}

func (v *view) CreateEntry(_ context.Context, e *ledger.Entry) error {
	if _, ok := v.st.aggregates[e.AggregateID]; !ok {
		return ledger.NewNotFound("aggregate", e.AggregateID)
	}
	v.st.entries[e.ID] = *e
	return nil
}

func (v *view) SaveEntry(_ context.Context, e *ledger.Entry) error {
	if _, ok := v.st.entries[e.ID]; !ok {
		return ledger.NewNotFound("entry", e.ID)
	}
	v.st.entries[e.ID] = *e
	return nil
}

func (v *view) DeleteEntry(_ context.Context, id string) error {
	if _, ok := v.st.entries[id]; !ok {
		return ledger.NewNotFound("entry", id)
	}
	delete(v.st.entries, id)
	return nil
}

func (v *view) CreatePayment(_ context.Context, p *ledger.Payment) error {
	v.st.payments[p.ID] = *p
	return nil
}

func (v *view) ListPayments(_ context.Context, aggregateID string) ([]ledger.Payment, error) {
	var out []ledger.Payment
	for _, p := range v.st.payments {
		if p.AggregateID == aggregateID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.Before(out[j].PaidAt) })
	return out, nil
}
