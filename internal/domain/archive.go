package domain

import (
	"time"

	"gorm.io/gorm"
)

// ArchivedTask is the flattened terminal form of a Task Record, persisted for
// history queries after the in-memory store evicts the live entry.
type ArchivedTask struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TaskID        string     `gorm:"size:36;uniqueIndex;not null" json:"task_id"`
	OperationKind string     `gorm:"size:50;index" json:"operation_kind"`
	Owner         string     `gorm:"size:100;index" json:"owner,omitempty"`
	Status        TaskStatus `gorm:"size:20;not null" json:"status"`
	TargetCount   int        `json:"target_count"`
	ErrorKind     string     `gorm:"size:30" json:"error_kind,omitempty"`
	ErrorMessage  string     `gorm:"type:text" json:"error_message,omitempty"`
	Summary       JSONB      `gorm:"type:jsonb" json:"summary,omitempty"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}
