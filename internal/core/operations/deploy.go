package operations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/netfleet/backend/internal/core/ports"
	"github.com/netfleet/backend/internal/domain"
)

var ErrConfigRequired = errors.New("config_deploy: 'config' parameter is required")

// ConfigDeploy pushes a candidate configuration to a device: lock, load,
// commit check, commit. The captured diff is returned in the result so a
// partial fleet rollout stays auditable per device.
type ConfigDeploy struct{}

func (o *ConfigDeploy) Kind() string { return KindConfigDeploy }

func (o *ConfigDeploy) Run(ctx context.Context, sess ports.Session, params domain.JSONB, emit ports.EventSink) (domain.JSONB, error) {
	config := stringParam(params, "config", "")
	if config == "" {
		return nil, ErrConfigRequired
	}
	comment := stringParam(params, "comment", "netfleet config deploy")

	emit.Emit("info", "locking candidate configuration")
	if _, err := sess.Run(ctx, "configure exclusive"); err != nil {
		return nil, fmt.Errorf("failed to lock candidate: %w", err)
	}

	emit.Emit("info", fmt.Sprintf("loading configuration (%d lines)", len(strings.Split(config, "\n"))))
	if _, err := sess.Run(ctx, "load set terminal\n"+config); err != nil {
		o.abort(ctx, sess)
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if ctx.Err() != nil {
		o.abort(ctx, sess)
		return nil, ctx.Err()
	}

	emit.Emit("info", "running commit check")
	if _, err := sess.Run(ctx, "commit check"); err != nil {
		o.abort(ctx, sess)
		return nil, fmt.Errorf("commit check failed: %w", err)
	}

	diff, err := sess.Run(ctx, "show configuration | compare rollback 0")
	if err != nil {
		diff = ""
	}

	emit.Emit("info", "committing configuration")
	if _, err := sess.Run(ctx, fmt.Sprintf("commit comment %q", comment)); err != nil {
		o.abort(ctx, sess)
		return nil, fmt.Errorf("commit failed: %w", err)
	}
	emit.Emit("info", "commit complete")

	return domain.JSONB{
		"committed": true,
		"diff":      strings.TrimSpace(diff),
		"comment":   comment,
	}, nil
}

// abort releases the candidate lock after a failed load or commit. Best
// effort on a fresh context so cleanup still runs when the task context is
// already cancelled.
func (o *ConfigDeploy) abort(ctx context.Context, sess ports.Session) {
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	_, _ = sess.Run(ctx, "rollback 0")
	_, _ = sess.Run(ctx, "exit configuration-mode")
}
