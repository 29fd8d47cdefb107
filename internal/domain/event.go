package domain

import "time"

type EventType string

const (
	EventTaskUpdate   EventType = "task_update"
	EventLog          EventType = "log"
	EventTargetStatus EventType = "target_status"
	EventTaskFinished EventType = "task_finished"
)

// Event is one progress/log notification emitted by a running operation.
// Events for a single target are delivered in emission order; no ordering is
// guaranteed across targets or tasks.
type Event struct {
	TaskID    string       `json:"task_id"`
	Type      EventType    `json:"type"`
	Target    string       `json:"target,omitempty"`
	Level     string       `json:"level,omitempty"`
	Message   string       `json:"message,omitempty"`
	Progress  int          `json:"progress,omitempty"`
	Status    TaskStatus   `json:"status,omitempty"`
	State     TargetStatus `json:"target_state,omitempty"`
	Payload   JSONB        `json:"payload,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}
