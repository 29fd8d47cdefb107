package operations

import (
	"context"
	"fmt"

	"github.com/netfleet/backend/internal/core/ports"
	"github.com/netfleet/backend/internal/domain"
)

// ConfigRollback restores a previous committed configuration by rollback
// index (1 = previous commit).
type ConfigRollback struct{}

func (o *ConfigRollback) Kind() string { return KindConfigRollback }

func (o *ConfigRollback) Run(ctx context.Context, sess ports.Session, params domain.JSONB, emit ports.EventSink) (domain.JSONB, error) {
	rollbackID := intParam(params, "rollback_id", 1)
	if rollbackID < 0 || rollbackID > 49 {
		return nil, fmt.Errorf("config_rollback: rollback_id %d out of range 0-49", rollbackID)
	}

	emit.Emit("info", fmt.Sprintf("rolling back to configuration %d", rollbackID))
	if _, err := sess.Run(ctx, "configure exclusive"); err != nil {
		return nil, fmt.Errorf("failed to lock candidate: %w", err)
	}
	if _, err := sess.Run(ctx, fmt.Sprintf("rollback %d", rollbackID)); err != nil {
		_, _ = sess.Run(ctx, "exit configuration-mode")
		return nil, fmt.Errorf("rollback %d failed: %w", rollbackID, err)
	}

	if ctx.Err() != nil {
		_, _ = sess.Run(context.Background(), "rollback 0")
		_, _ = sess.Run(context.Background(), "exit configuration-mode")
		return nil, ctx.Err()
	}

	emit.Emit("info", "committing rolled-back configuration")
	if _, err := sess.Run(ctx, fmt.Sprintf("commit comment %q", fmt.Sprintf("netfleet rollback %d", rollbackID))); err != nil {
		return nil, fmt.Errorf("commit failed: %w", err)
	}
	emit.Emit("info", "rollback committed")

	return domain.JSONB{
		"rolled_back": true,
		"rollback_id": rollbackID,
	}, nil
}
