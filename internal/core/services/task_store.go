package services

import (
	"sort"
	"sync"
	"time"

	"github.com/netfleet/backend/internal/domain"
	"github.com/netfleet/backend/internal/infrastructure/logger"
)

// taskEntry pairs one task record with its own mutex so that unrelated tasks
// never contend on a shared lock. The store-level RWMutex guards only the map.
type taskEntry struct {
	mu   sync.Mutex
	task *domain.Task
}

// TaskStore is the in-memory registry of task records. All mutation goes
// through guarded transition methods; illegal transitions are rejected, never
// silently applied. Reads return deep copies.
type TaskStore struct {
	mu      sync.RWMutex
	entries map[string]*taskEntry

	retentionCount int
	retentionAge   time.Duration
	log            *logger.Logger
}

func NewTaskStore(retentionCount int, retentionAge time.Duration, log *logger.Logger) *TaskStore {
	return &TaskStore{
		entries:        make(map[string]*taskEntry),
		retentionCount: retentionCount,
		retentionAge:   retentionAge,
		log:            log,
	}
}

// Create inserts a new pending record and evicts finished records that fall
// outside the retention window.
func (s *TaskStore) Create(task *domain.Task) {
	s.mu.Lock()
	s.entries[task.ID] = &taskEntry{task: task}
	s.evictLocked()
	s.mu.Unlock()
}

func (s *TaskStore) entry(id string) (*taskEntry, bool) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	return e, ok
}

// Get returns a snapshot of the record.
func (s *TaskStore) Get(id string) (*domain.Task, error) {
	e, ok := s.entry(id)
	if !ok {
		return nil, ErrTaskNotFound
	}
	e.mu.Lock()
	snap := e.task.Clone()
	e.mu.Unlock()
	return snap, nil
}

// List returns snapshots matching the filter, newest first.
func (s *TaskStore) List(filter domain.TaskFilter) []*domain.Task {
	s.mu.RLock()
	entries := make([]*taskEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]*domain.Task, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if filter.Matches(e.task) {
			out = append(out, e.task.Clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// update runs fn under the entry lock.
func (s *TaskStore) update(id string, fn func(t *domain.Task) error) error {
	e, ok := s.entry(id)
	if !ok {
		return ErrTaskNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.task)
}

// MarkRunning transitions pending -> running and stamps StartedAt.
func (s *TaskStore) MarkRunning(id string) error {
	return s.update(id, func(t *domain.Task) error {
		if t.Status.Terminal() {
			return ErrAlreadyTerminal
		}
		if t.Status != domain.TaskPending {
			return ErrBadTransition
		}
		now := time.Now()
		t.Status = domain.TaskRunning
		t.StartedAt = &now
		return nil
	})
}

// CancelPending flips a still-pending record straight to cancelled. It returns
// true when the flip happened, false when the task is already running (the
// caller must then cancel cooperatively), and ErrAlreadyTerminal otherwise.
func (s *TaskStore) CancelPending(id string) (bool, error) {
	var flipped bool
	err := s.update(id, func(t *domain.Task) error {
		switch {
		case t.Status == domain.TaskPending:
			now := time.Now()
			t.Status = domain.TaskCancelled
			t.FinishedAt = &now
			t.Error = &domain.TaskError{Kind: domain.ErrKindCancelled, Message: "cancelled before execution"}
			flipped = true
			return nil
		case t.Status == domain.TaskRunning:
			return nil
		default:
			return ErrAlreadyTerminal
		}
	})
	return flipped, err
}

// SetProgress clamps progress to be monotonically non-decreasing while the
// task is running. Updates after the terminal state are ignored.
func (s *TaskStore) SetProgress(id string, progress int) error {
	return s.update(id, func(t *domain.Task) error {
		if t.Status != domain.TaskRunning {
			return nil
		}
		if progress > 100 {
			progress = 100
		}
		if progress > t.Progress {
			t.Progress = progress
		}
		return nil
	})
}

// AdvanceTarget moves one target's status forward. Regressions (including any
// move out of succeeded/failed) are dropped.
func (s *TaskStore) AdvanceTarget(id, target string, status domain.TargetStatus) error {
	return s.update(id, func(t *domain.Task) error {
		cur, ok := t.TargetStatus[target]
		if !ok {
			return nil
		}
		if !cur.CanAdvanceTo(status) {
			return nil
		}
		t.TargetStatus[target] = status
		return nil
	})
}

// SetTargetResult records the terminal per-target outcome.
func (s *TaskStore) SetTargetResult(id string, result *domain.TargetResult) error {
	return s.update(id, func(t *domain.Task) error {
		if t.Results == nil {
			t.Results = make(map[string]*domain.TargetResult)
		}
		t.Results[result.Target] = result
		if cur, ok := t.TargetStatus[result.Target]; ok && cur.CanAdvanceTo(result.Status) {
			t.TargetStatus[result.Target] = result.Status
		}
		return nil
	})
}

// Finalize moves a running (or pending, for cancellation) record into a
// terminal state. Finalizing an already-terminal record is rejected.
func (s *TaskStore) Finalize(id string, status domain.TaskStatus, terr *domain.TaskError) error {
	if !status.Terminal() {
		return ErrBadTransition
	}
	return s.update(id, func(t *domain.Task) error {
		if t.Status.Terminal() {
			return ErrAlreadyTerminal
		}
		now := time.Now()
		t.Status = status
		t.FinishedAt = &now
		t.Error = terr
		if status == domain.TaskSucceeded {
			t.Progress = 100
		}
		return nil
	})
}

// Remove deletes a record outright. Used only to roll back a submission that
// could not be enqueued.
func (s *TaskStore) Remove(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// evictLocked drops finished records beyond the retention count or age.
// Caller holds s.mu.
func (s *TaskStore) evictLocked() {
	type finished struct {
		id string
		at time.Time
	}
	var done []finished
	cutoff := time.Now().Add(-s.retentionAge)
	for id, e := range s.entries {
		e.mu.Lock()
		if e.task.Status.Terminal() && e.task.FinishedAt != nil {
			if s.retentionAge > 0 && e.task.FinishedAt.Before(cutoff) {
				delete(s.entries, id)
			} else {
				done = append(done, finished{id: id, at: *e.task.FinishedAt})
			}
		}
		e.mu.Unlock()
	}
	if s.retentionCount <= 0 || len(done) <= s.retentionCount {
		return
	}
	sort.Slice(done, func(i, j int) bool { return done[i].at.Before(done[j].at) })
	for _, f := range done[:len(done)-s.retentionCount] {
		delete(s.entries, f.id)
		if s.log != nil {
			s.log.Debugw("task_store_evicted", "task_id", f.id)
		}
	}
}
