package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/netfleet/backend/internal/config"
	"github.com/netfleet/backend/internal/core/ports"
	"github.com/netfleet/backend/internal/domain"
	"github.com/netfleet/backend/internal/infrastructure/logger"
)

type RunnerParams struct {
	Config      config.RunnerConfig
	Store       *TaskStore
	Registry    *Registry
	Broadcaster ports.Broadcaster
	Provider    ports.SessionProvider
	Resolver    ports.EndpointResolver
	Archive     ports.TaskArchiveRepository // optional
	Logger      *logger.Logger
}

// Runner admits tasks, bounds concurrency and drives operations to a terminal
// state. A fixed pool of workers consumes a FIFO queue, so submission order is
// admission order; completion order is not guaranteed.
type Runner struct {
	cfg      config.RunnerConfig
	store    *TaskStore
	registry *Registry
	bus      ports.Broadcaster
	provider ports.SessionProvider
	resolver ports.EndpointResolver
	archive  ports.TaskArchiveRepository
	log      *logger.Logger

	queue chan string

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	closed  bool

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

func NewRunner(p RunnerParams) *Runner {
	baseCtx, stop := context.WithCancel(context.Background())
	r := &Runner{
		cfg:      p.Config,
		store:    p.Store,
		registry: p.Registry,
		bus:      p.Broadcaster,
		provider: p.Provider,
		resolver: p.Resolver,
		archive:  p.Archive,
		log:      p.Logger,
		queue:    make(chan string, p.Config.QueueCapacity),
		cancels:  make(map[string]context.CancelFunc),
		baseCtx:  baseCtx,
		stop:     stop,
	}
	for i := 0; i < p.Config.MaxConcurrentTasks; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
	return r
}

func (r *Runner) worker(n int) {
	defer r.wg.Done()
	for id := range r.queue {
		r.execute(id)
	}
	r.log.Debugw("runner_worker_stopped", "worker", n)
}

// Submit validates the request, creates a pending record and enqueues it.
// It returns the created record snapshot without waiting for execution.
func (r *Runner) Submit(ctx context.Context, input ports.SubmitInput) (*domain.Task, error) {
	if len(input.Targets) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, ErrEmptyTargets)
	}
	seen := make(map[string]struct{}, len(input.Targets))
	for _, t := range input.Targets {
		if t == "" {
			return nil, fmt.Errorf("%w: empty target identity", ErrInvalidRequest)
		}
		if _, dup := seen[t]; dup {
			return nil, fmt.Errorf("%w: %w: %q", ErrInvalidRequest, ErrDuplicateTarget, t)
		}
		seen[t] = struct{}{}
	}
	if _, ok := r.registry.Get(input.OperationKind); !ok {
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidRequest, ErrUnknownOperation, input.OperationKind)
	}

	task := &domain.Task{
		ID:            uuid.New().String(),
		OperationKind: input.OperationKind,
		Targets:       append([]string(nil), input.Targets...),
		Parameters:    input.Parameters,
		Owner:         input.Owner,
		Status:        domain.TaskPending,
		TargetStatus:  make(map[string]domain.TargetStatus, len(input.Targets)),
		CreatedAt:     time.Now(),
	}
	for _, t := range input.Targets {
		task.TargetStatus[t] = domain.TargetPending
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrShuttingDown
	}
	r.store.Create(task)
	select {
	case r.queue <- task.ID:
	default:
		r.store.Remove(task.ID)
		r.mu.Unlock()
		return nil, ErrQueueFull
	}
	r.mu.Unlock()

	r.log.Infow("task_submitted",
		"task_id", task.ID,
		"operation", task.OperationKind,
		"targets", len(task.Targets),
		"owner", task.Owner,
	)
	return task.Clone(), nil
}

// Cancel requests cooperative cancellation. A still-pending task flips to
// cancelled immediately; a running task is signalled and transitions once the
// operation acknowledges at its next checkpoint.
func (r *Runner) Cancel(id string) error {
	flipped, err := r.store.CancelPending(id)
	if err != nil {
		return err
	}
	if flipped {
		r.log.Infow("task_cancelled_pending", "task_id", id)
		if snap, err := r.store.Get(id); err == nil {
			r.publishFinished(snap)
			r.archiveTask(snap)
		}
		return nil
	}

	r.mu.Lock()
	cancel, ok := r.cancels[id]
	r.mu.Unlock()
	if ok {
		r.log.Infow("task_cancel_requested", "task_id", id)
		cancel()
	}
	return nil
}

func (r *Runner) Get(id string) (*domain.Task, error) {
	return r.store.Get(id)
}

func (r *Runner) List(filter domain.TaskFilter) []*domain.Task {
	return r.store.List(filter)
}

// Shutdown stops intake, cancels in-flight tasks and waits for the workers to
// drain, bounded by ctx.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.stop()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) registerCancel(id string, cancel context.CancelFunc) {
	r.mu.Lock()
	r.cancels[id] = cancel
	r.mu.Unlock()
}

func (r *Runner) unregisterCancel(id string) {
	r.mu.Lock()
	delete(r.cancels, id)
	r.mu.Unlock()
}

// targetOutcome separates a real per-target result from a cancellation that
// left the target unprocessed.
type targetOutcome struct {
	result    *domain.TargetResult
	cancelled bool
}

func (r *Runner) execute(id string) {
	snap, err := r.store.Get(id)
	if err != nil {
		return
	}
	if snap.Status != domain.TaskPending {
		// Cancelled while queued; nothing to do.
		return
	}

	op, ok := r.registry.Get(snap.OperationKind)
	if !ok {
		r.finalize(id, domain.TaskFailed, &domain.TaskError{
			Kind:    domain.ErrKindInternalFault,
			Message: fmt.Sprintf("operation %q disappeared from registry", snap.OperationKind),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.baseCtx, r.cfg.TaskTimeout)
	r.registerCancel(id, cancel)
	defer r.unregisterCancel(id)
	defer cancel()

	if err := r.store.MarkRunning(id); err != nil {
		// Lost the race with a cancellation.
		return
	}
	r.publishUpdate(id, domain.TaskRunning, 0)
	r.log.Infow("task_started", "task_id", id, "operation", snap.OperationKind)

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Errorw("task_panic", "task_id", id, "panic", rec)
			r.finalize(id, domain.TaskFailed, &domain.TaskError{
				Kind:    domain.ErrKindInternalFault,
				Message: fmt.Sprintf("panic: %v", rec),
			})
		}
	}()

	outcomes := r.runTargets(ctx, id, op, snap)

	if ctx.Err() != nil {
		msg := "cancellation requested"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			msg = "task timeout exceeded"
		}
		// All target goroutines have returned here, so every session opened
		// for this task is closed again.
		r.finalize(id, domain.TaskCancelled, &domain.TaskError{
			Kind:    domain.ErrKindCancelled,
			Message: msg,
		})
		return
	}

	var succeeded, failed int
	for _, o := range outcomes {
		if o.result == nil {
			continue
		}
		switch o.result.Status {
		case domain.TargetSucceeded:
			succeeded++
		case domain.TargetFailed:
			failed++
		}
	}

	allowPartial := false
	if pp, ok := op.(ports.PartialPolicy); ok {
		allowPartial = pp.AllowPartial()
	}

	switch {
	case failed == 0:
		r.finalize(id, domain.TaskSucceeded, nil)
	case allowPartial && succeeded > 0:
		r.finalize(id, domain.TaskSucceeded, nil)
	default:
		r.finalize(id, domain.TaskFailed, &domain.TaskError{
			Kind:    domain.ErrKindAggregateFailure,
			Message: fmt.Sprintf("%d of %d targets failed", failed, len(snap.Targets)),
		})
	}
}

// runTargets fans execution out across the task's targets, bounded by
// max_targets_per_task. Per-target failures are isolated; only cancellation
// stops the remaining targets.
func (r *Runner) runTargets(ctx context.Context, id string, op ports.Operation, snap *domain.Task) []targetOutcome {
	total := len(snap.Targets)
	outcomes := make([]targetOutcome, total)
	sem := make(chan struct{}, r.cfg.MaxTargetsPerTask)
	var done int64
	var wg sync.WaitGroup

	for i, target := range snap.Targets {
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					r.log.Errorw("target_panic", "task_id", id, "target", target, "panic", rec)
					outcomes[i] = targetOutcome{result: r.failTarget(id, target, domain.ErrKindInternalFault,
						fmt.Sprintf("panic: %v", rec), 0)}
				}
			}()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				outcomes[i] = targetOutcome{cancelled: true}
				return
			}

			outcomes[i] = r.runTarget(ctx, id, op, target, snap.Parameters)

			n := atomic.AddInt64(&done, 1)
			progress := int(n) * 100 / total
			if err := r.store.SetProgress(id, progress); err == nil {
				r.publishUpdate(id, domain.TaskRunning, progress)
			}
		}(i, target)
	}
	wg.Wait()
	return outcomes
}

// runTarget opens a session for one target and runs the operation against it.
// Connect failures are retried with linear backoff; execution failures are
// not, since re-running a partially applied device change risks
// double-application.
func (r *Runner) runTarget(ctx context.Context, id string, op ports.Operation, target string, params domain.JSONB) targetOutcome {
	// Checkpoint before any session is opened.
	if ctx.Err() != nil {
		return targetOutcome{cancelled: true}
	}

	endpoint, err := r.resolver.ResolveEndpoint(ctx, target)
	if err != nil {
		r.emitLog(id, target, "error", fmt.Sprintf("endpoint resolution failed: %v", err))
		return targetOutcome{result: r.failTarget(id, target, domain.ErrKindConnect,
			fmt.Sprintf("resolve endpoint: %v", err), 0)}
	}

	var sess ports.Session
	var connectErr error
	attempts := 0
	for attempt := 1; attempt <= r.cfg.ConnectRetries; attempt++ {
		if ctx.Err() != nil {
			return targetOutcome{cancelled: true}
		}
		attempts = attempt
		connectCtx, cancel := context.WithTimeout(ctx, r.cfg.ConnectTimeout)
		sess, connectErr = r.provider.Open(connectCtx, endpoint)
		cancel()
		if connectErr == nil {
			break
		}
		r.emitLog(id, target, "warn",
			fmt.Sprintf("connect attempt %d/%d failed: %v", attempt, r.cfg.ConnectRetries, connectErr))
		if attempt < r.cfg.ConnectRetries {
			backoff := time.Duration(attempt) * r.cfg.ConnectBackoff
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return targetOutcome{cancelled: true}
			}
		}
	}
	if connectErr != nil {
		return targetOutcome{result: r.failTarget(id, target, domain.ErrKindConnect,
			connectErr.Error(), attempts)}
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			r.log.Warnw("session_close_failed", "task_id", id, "target", target, "error", cerr)
		}
	}()

	r.advanceTarget(id, target, domain.TargetConnected)
	r.emitLog(id, target, "info", "session established")

	// Checkpoint between connect and execute.
	if ctx.Err() != nil {
		return targetOutcome{cancelled: true}
	}

	r.advanceTarget(id, target, domain.TargetRunning)

	sink := &eventSink{bus: r.bus, taskID: id, target: target}
	output, runErr := op.Run(ctx, sess, params, sink)
	if runErr != nil {
		if ctx.Err() != nil {
			return targetOutcome{cancelled: true}
		}
		return targetOutcome{result: r.failTarget(id, target, domain.ErrKindExecution,
			runErr.Error(), attempts)}
	}

	result := &domain.TargetResult{
		Target:   target,
		Status:   domain.TargetSucceeded,
		Attempts: attempts,
		Output:   output,
	}
	if err := r.store.SetTargetResult(id, result); err != nil {
		r.log.Warnw("target_result_store_failed", "task_id", id, "target", target, "error", err)
	}
	r.publishTargetState(id, target, domain.TargetSucceeded)
	return targetOutcome{result: result}
}

func (r *Runner) failTarget(id, target string, kind domain.ErrorKind, msg string, attempts int) *domain.TargetResult {
	result := &domain.TargetResult{
		Target:   target,
		Status:   domain.TargetFailed,
		Attempts: attempts,
		Error:    fmt.Sprintf("%s: %s", kind, msg),
	}
	if err := r.store.SetTargetResult(id, result); err != nil {
		r.log.Warnw("target_result_store_failed", "task_id", id, "target", target, "error", err)
	}
	r.publishTargetState(id, target, domain.TargetFailed)
	return result
}

func (r *Runner) advanceTarget(id, target string, state domain.TargetStatus) {
	if err := r.store.AdvanceTarget(id, target, state); err != nil {
		r.log.Warnw("target_advance_failed", "task_id", id, "target", target, "error", err)
		return
	}
	r.publishTargetState(id, target, state)
}

func (r *Runner) finalize(id string, status domain.TaskStatus, terr *domain.TaskError) {
	if err := r.store.Finalize(id, status, terr); err != nil {
		r.log.Warnw("task_finalize_failed", "task_id", id, "status", status, "error", err)
		return
	}
	snap, err := r.store.Get(id)
	if err != nil {
		return
	}
	r.log.Infow("task_finished",
		"task_id", id,
		"status", status,
		"duration_ms", durationMillis(snap),
	)
	r.publishFinished(snap)
	r.archiveTask(snap)
}

func durationMillis(t *domain.Task) int64 {
	if t.StartedAt == nil || t.FinishedAt == nil {
		return 0
	}
	return t.FinishedAt.Sub(*t.StartedAt).Milliseconds()
}

// archiveTask persists a terminal record for history queries. Best effort and
// asynchronous; a storage failure never affects the task outcome.
func (r *Runner) archiveTask(t *domain.Task) {
	if r.archive == nil {
		return
	}
	record := &domain.ArchivedTask{
		TaskID:        t.ID,
		OperationKind: t.OperationKind,
		Owner:         t.Owner,
		Status:        t.Status,
		TargetCount:   len(t.Targets),
		SubmittedAt:   t.CreatedAt,
		StartedAt:     t.StartedAt,
		FinishedAt:    t.FinishedAt,
		Summary:       summarize(t),
	}
	if t.Error != nil {
		record.ErrorKind = string(t.Error.Kind)
		record.ErrorMessage = t.Error.Message
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.archive.Create(ctx, record); err != nil {
			r.log.Warnw("task_archive_failed", "task_id", t.ID, "error", err)
		}
	}()
}

func summarize(t *domain.Task) domain.JSONB {
	perTarget := make(map[string]interface{}, len(t.TargetStatus))
	var succeeded, failed int
	for target, status := range t.TargetStatus {
		perTarget[target] = string(status)
		switch status {
		case domain.TargetSucceeded:
			succeeded++
		case domain.TargetFailed:
			failed++
		}
	}
	return domain.JSONB{
		"per_target_status": perTarget,
		"succeeded":         succeeded,
		"failed":            failed,
	}
}

// ==================== event emission ====================

type eventSink struct {
	bus    ports.Broadcaster
	taskID string
	target string
}

func (s *eventSink) Emit(level, message string) {
	s.bus.Publish(domain.Event{
		TaskID:    s.taskID,
		Type:      domain.EventLog,
		Target:    s.target,
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
	})
}

func (r *Runner) emitLog(taskID, target, level, message string) {
	r.bus.Publish(domain.Event{
		TaskID:    taskID,
		Type:      domain.EventLog,
		Target:    target,
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
	})
}

func (r *Runner) publishTargetState(taskID, target string, state domain.TargetStatus) {
	r.bus.Publish(domain.Event{
		TaskID:    taskID,
		Type:      domain.EventTargetStatus,
		Target:    target,
		State:     state,
		Timestamp: time.Now(),
	})
}

func (r *Runner) publishUpdate(taskID string, status domain.TaskStatus, progress int) {
	r.bus.Publish(domain.Event{
		TaskID:    taskID,
		Type:      domain.EventTaskUpdate,
		Status:    status,
		Progress:  progress,
		Timestamp: time.Now(),
	})
}

func (r *Runner) publishFinished(t *domain.Task) {
	r.bus.Publish(domain.Event{
		TaskID:    t.ID,
		Type:      domain.EventTaskFinished,
		Status:    t.Status,
		Progress:  t.Progress,
		Payload:   summarize(t),
		Timestamp: time.Now(),
	})
}
