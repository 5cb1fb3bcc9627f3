package task

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a generation task.
type Status string

// Possible task status values. A task starts pending, moves to processing
// when work begins, and ends in exactly one of completed or failed. There
// are no transitions out of a terminal state.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Progress milestones reported while a task runs. Progress never
// decreases for a task that has not failed.
const (
	ProgressStarted   = 10
	ProgressGenerated = 50
	ProgressStored    = 80
	ProgressDone      = 100
)

// Result is the payload of a completed task: the stable URL of the stored
// sticker and the identifier of its generation record.
type Result struct {
	ImageURL     string    `json:"imageUrl"`
	GenerationID uuid.UUID `json:"generationId"`
}

// Task is one tracked unit of asynchronous generation work. Payload holds
// the original request verbatim; Result is set only on completion and
// ErrorMessage only on failure, never both.
type Task struct {
	ID           uuid.UUID
	Status       Status
	Progress     int
	Payload      json.RawMessage
	Result       json.RawMessage
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsTerminal reports whether the task has reached a terminal state.
func (t *Task) IsTerminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// Update describes a partial update to a stored task. Nil fields are left
// untouched.
type Update struct {
	Status       *Status
	Progress     *int
	Result       json.RawMessage
	ErrorMessage *string
}

// TaskStore defines the interface for persisting tasks.
type TaskStore interface {
	// CreateTask persists a new task record.
	CreateTask(ctx context.Context, t *Task) error

	// GetTask fetches a task by ID. Returns store.ErrTaskNotFound when no
	// such task exists.
	GetTask(ctx context.Context, id uuid.UUID) (*Task, error)

	// UpdateTask applies a partial update to a task.
	UpdateTask(ctx context.Context, id uuid.UUID, update Update) error
}
