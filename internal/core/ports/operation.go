package ports

import (
	"context"

	"github.com/netfleet/backend/internal/domain"
)

// EventSink receives progress/log lines from a running operation. Emission is
// non-blocking; a sink bound to the task and target is handed to each Run call.
type EventSink interface {
	Emit(level, message string)
}

// Operation is the per-target unit of work. Run is invoked once per connected
// target with the task parameters; it should emit at least one event per
// meaningful phase and honor ctx cancellation between phases.
type Operation interface {
	Kind() string
	Run(ctx context.Context, sess Session, params domain.JSONB, emit EventSink) (domain.JSONB, error)
}

// PartialPolicy lets an operation opt out of the default any-target-failure
// aggregation: when AllowPartial reports true, a task succeeds as long as at
// least one target succeeded.
type PartialPolicy interface {
	AllowPartial() bool
}
