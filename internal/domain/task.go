package domain

import "time"

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// Terminal reports whether no further status transition is permitted.
func (s TaskStatus) Terminal() bool {
	return s == TaskSucceeded || s == TaskFailed || s == TaskCancelled
}

type TargetStatus string

const (
	TargetPending   TargetStatus = "pending"
	TargetConnected TargetStatus = "connected"
	TargetRunning   TargetStatus = "running"
	TargetSucceeded TargetStatus = "succeeded"
	TargetFailed    TargetStatus = "failed"
)

// rank orders target states so that a terminal per-target state never regresses.
func (s TargetStatus) rank() int {
	switch s {
	case TargetPending:
		return 0
	case TargetConnected:
		return 1
	case TargetRunning:
		return 2
	case TargetSucceeded, TargetFailed:
		return 3
	}
	return -1
}

// CanAdvanceTo reports whether a transition from s to next is allowed.
func (s TargetStatus) CanAdvanceTo(next TargetStatus) bool {
	return next.rank() > s.rank()
}

type ErrorKind string

const (
	ErrKindInvalidRequest   ErrorKind = "invalid_request"
	ErrKindConnect          ErrorKind = "connect_error"
	ErrKindExecution        ErrorKind = "execution_error"
	ErrKindAggregateFailure ErrorKind = "aggregate_failure"
	ErrKindCancelled        ErrorKind = "cancelled"
	ErrKindInternalFault    ErrorKind = "internal_fault"
)

type TaskError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// TargetResult holds the per-device outcome of one task execution.
type TargetResult struct {
	Target   string       `json:"target"`
	Status   TargetStatus `json:"status"`
	Attempts int          `json:"attempts,omitempty"`
	Output   JSONB        `json:"output,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// Task is the record tracking one submitted operation across its lifecycle.
// Its JSON shape is the wire contract for every transport binding.
type Task struct {
	ID            string                   `json:"id"`
	OperationKind string                   `json:"operation_kind"`
	Targets       []string                 `json:"targets"`
	Parameters    JSONB                    `json:"parameters,omitempty"`
	Owner         string                   `json:"owner,omitempty"`
	Status        TaskStatus               `json:"status"`
	Progress      int                      `json:"progress"`
	TargetStatus  map[string]TargetStatus  `json:"per_target_status"`
	Results       map[string]*TargetResult `json:"results,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	StartedAt     *time.Time               `json:"started_at,omitempty"`
	FinishedAt    *time.Time               `json:"finished_at,omitempty"`
	Error         *TaskError               `json:"error,omitempty"`
}

// Clone returns a deep copy safe to hand out while workers keep mutating the
// original.
func (t *Task) Clone() *Task {
	cp := *t
	cp.Targets = append([]string(nil), t.Targets...)
	cp.TargetStatus = make(map[string]TargetStatus, len(t.TargetStatus))
	for k, v := range t.TargetStatus {
		cp.TargetStatus[k] = v
	}
	if t.Results != nil {
		cp.Results = make(map[string]*TargetResult, len(t.Results))
		for k, v := range t.Results {
			rc := *v
			cp.Results[k] = &rc
		}
	}
	if t.Parameters != nil {
		cp.Parameters = make(JSONB, len(t.Parameters))
		for k, v := range t.Parameters {
			cp.Parameters[k] = v
		}
	}
	if t.StartedAt != nil {
		ts := *t.StartedAt
		cp.StartedAt = &ts
	}
	if t.FinishedAt != nil {
		ts := *t.FinishedAt
		cp.FinishedAt = &ts
	}
	if t.Error != nil {
		e := *t.Error
		cp.Error = &e
	}
	return &cp
}

// TaskFilter narrows List results. Zero values match everything.
type TaskFilter struct {
	Owner         string
	Status        TaskStatus
	OperationKind string
}

func (f TaskFilter) Matches(t *Task) bool {
	if f.Owner != "" && t.Owner != f.Owner {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.OperationKind != "" && t.OperationKind != f.OperationKind {
		return false
	}
	return true
}
