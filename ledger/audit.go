package ledger

import (
	"context"
	"fmt"
)

// emit sends an audit event after a committed mutation. Sink failures are logged only.
func (l *Ledger) emit(ctx context.Context, action, message string, meta map[string]any) {
	if l.audit == nil {
		return
	}
	actor := ActorFrom(ctx)
	ev := AuditEvent{
		Action:     fmt.Sprintf("%s.%s", l.kind, action),
		Message:    message,
		ActorID:    actor.ID,
		ActorType:  actor.Type,
		Meta:       meta,
		OccurredAt: l.now().UTC(),
	}
	if err := l.audit.Record(ctx, ev); err != nil {
		l.log.Warn().Err(err).Str("action", ev.Action).Msg("audit record failed")
	}
}
