package ledger

import (
	"context"
	"time"
)

// Store persists aggregates, their entries and payments.
//
// Lookups of missing rows return a NotFoundError (see NewNotFound). Every other
// error is treated as a storage failure and propagated unchanged.
type Store interface {
	// WithTx runs fn in one transaction; fn's error rolls everything back.
	WithTx(ctx context.Context, fn func(Store) error) error

	// LockAggregate loads the aggregate and holds a row lock until the
	// surrounding transaction ends (SELECT ... FOR UPDATE).
	LockAggregate(ctx context.Context, id string) (*Aggregate, error)
	GetAggregate(ctx context.Context, id string) (*Aggregate, error)
	ListAggregates(ctx context.Context, filter ListFilter) ([]Aggregate, int64, error)
	CreateAggregate(ctx context.Context, a *Aggregate) error
	UpdateTotals(ctx context.Context, id string, t Totals) error
	// UpdateStatus persists Status, IssuedAt, CancelledAt and CancellationReason.
	UpdateStatus(ctx context.Context, a *Aggregate) error
	// DeleteAggregate removes the aggregate together with its entries.
	DeleteAggregate(ctx context.Context, id string) error
	NumberExists(ctx context.Context, number string) (bool, error)

	GetEntry(ctx context.Context, id string) (*Entry, error)
	// ListEntries returns all entries of an aggregate ordered by sequence number.
	ListEntries(ctx context.Context, aggregateID string) ([]Entry, error)
	// MaxSequence returns the highest sequence number in use, 0 when none.
	MaxSequence(ctx context.Context, aggregateID string) (int, error)
	CountEntries(ctx context.Context, aggregateID string) (int64, error)
	CreateEntry(ctx context.Context, e *Entry) error
	SaveEntry(ctx context.Context, e *Entry) error
	DeleteEntry(ctx context.Context, id string) error

	CreatePayment(ctx context.Context, p *Payment) error
	ListPayments(ctx context.Context, aggregateID string) ([]Payment, error)
}

// Directory answers existence checks for referenced records.
type Directory interface {
	Exists(ctx context.Context, entity EntityType, id string) (bool, error)
}

// AuditEvent is one append-only audit record.
type AuditEvent struct {
	Action     string         `json:"action"`
	Message    string         `json:"message"`
	ActorID    string         `json:"actor_id"`
	ActorType  string         `json:"actor_type"`
	Meta       map[string]any `json:"meta"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// AuditSink receives audit events. Failures are logged by the caller, never returned.
type AuditSink interface {
	Record(ctx context.Context, ev AuditEvent) error
}

// Actor is who performed a mutation.
type Actor struct {
	ID   string
	Type string
}

// SystemActor is used when the context carries no actor.
var SystemActor = Actor{ID: "system", Type: "system"}

type actorKey struct{}

// WithActor stores the acting principal in ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the actor stored in ctx, or SystemActor.
func ActorFrom(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok && a.ID != "" {
		return a
	}
	return SystemActor
}
