package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/netfleet/backend/internal/config"
	"github.com/netfleet/backend/internal/core/ports"
	"github.com/netfleet/backend/internal/domain"
	"github.com/netfleet/backend/internal/infrastructure/logger"
	"github.com/netfleet/backend/internal/infrastructure/remote"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(config.LoggerConfig{
		Level:            "error",
		Encoding:         "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	require.NoError(t, err)
	return log
}

func newPendingTask(owner, kind string, targets ...string) *domain.Task {
	task := &domain.Task{
		ID:            uuid.New().String(),
		OperationKind: kind,
		Targets:       targets,
		Owner:         owner,
		Status:        domain.TaskPending,
		TargetStatus:  make(map[string]domain.TargetStatus, len(targets)),
		CreatedAt:     time.Now(),
	}
	for _, target := range targets {
		task.TargetStatus[target] = domain.TargetPending
	}
	return task
}

// stubOp is a scriptable operation for runner tests. With no run func it
// succeeds immediately.
type stubOp struct {
	kind    string
	partial bool
	run     func(ctx context.Context, sess ports.Session, params domain.JSONB, emit ports.EventSink) (domain.JSONB, error)
}

func (o *stubOp) Kind() string { return o.kind }

func (o *stubOp) AllowPartial() bool { return o.partial }

func (o *stubOp) Run(ctx context.Context, sess ports.Session, params domain.JSONB, emit ports.EventSink) (domain.JSONB, error) {
	if o.run == nil {
		return domain.JSONB{"ok": true}, nil
	}
	return o.run(ctx, sess, params, emit)
}

type runnerFixture struct {
	runner   *Runner
	store    *TaskStore
	bus      *Broadcaster
	registry *Registry
	provider *remote.MockProvider
}

func newRunnerFixture(t *testing.T, mutate func(cfg *config.RunnerConfig)) *runnerFixture {
	t.Helper()
	cfg := config.RunnerConfig{
		MaxConcurrentTasks:   2,
		MaxTargetsPerTask:    4,
		QueueCapacity:        16,
		ConnectRetries:       3,
		ConnectBackoff:       time.Millisecond,
		ConnectTimeout:       time.Second,
		TaskTimeout:          5 * time.Second,
		HistorySize:          100,
		RetentionMaxFinished: 100,
		RetentionMaxAge:      time.Hour,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	log := testLogger(t)
	store := NewTaskStore(cfg.RetentionMaxFinished, cfg.RetentionMaxAge, log)
	bus := NewBroadcaster(cfg.HistorySize, log)
	registry := NewRegistry()
	provider := remote.NewMockProvider()

	runner := NewRunner(RunnerParams{
		Config:      cfg,
		Store:       store,
		Registry:    registry,
		Broadcaster: bus,
		Provider:    provider,
		Resolver:    remote.PassthroughResolver{},
		Logger:      log,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = runner.Shutdown(ctx)
	})

	return &runnerFixture{
		runner:   runner,
		store:    store,
		bus:      bus,
		registry: registry,
		provider: provider,
	}
}

func waitTerminal(t *testing.T, store *TaskStore, id string) *domain.Task {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		task, err := store.Get(id)
		require.NoError(t, err)
		if task.Status.Terminal() {
			return task
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %s never reached a terminal state", id)
	return nil
}

func waitStatus(t *testing.T, store *TaskStore, id string, status domain.TaskStatus) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		task, err := store.Get(id)
		require.NoError(t, err)
		if task.Status == status {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %s never reached status %s", id, status)
}
