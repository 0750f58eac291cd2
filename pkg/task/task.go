package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"worklane/pkg/duebucket"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusInReview   Status = "in_review"
	StatusCanceled   Status = "canceled"
	StatusCompleted  Status = "completed"
)

// Statuses lists every status in board order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusInReview, StatusCanceled, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusInReview, StatusCanceled, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus validates a raw status value.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// Priority is the urgency of a task. A task may have no priority at all,
// which is represented by a nil *Priority.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Priorities lists every priority from most to least urgent.
var Priorities = []Priority{PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow}

func (p Priority) Valid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// ParsePriority validates a raw priority value.
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

// MaxNameLength bounds Task.Name.
const MaxNameLength = 200

// Timeframe is the optional scheduling window of a task. End doubles as the
// due date.
type Timeframe struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// BlockedReason explains why a task is blocked. BlockedAt is always stamped
// by the server.
type BlockedReason struct {
	Category    string    `json:"category"`
	Description string    `json:"description"`
	BlockedAt   time.Time `json:"blockedAt"`
}

// Task is the unit of work. Progress, StartedAt, CompletedAt,
// StatusChangedAt and DueDate are derived and never taken from clients.
type Task struct {
	ID               string         `json:"id"`
	TaskID           string         `json:"taskId"`
	ListID           string         `json:"listId"`
	SpaceID          string         `json:"spaceId"`
	WorkspaceID      string         `json:"workspaceId"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	Status           Status         `json:"status"`
	Priority         *Priority      `json:"priority"`
	Timeframe        *Timeframe     `json:"timeframe"`
	DueDate          *time.Time     `json:"dueDate"`
	AssigneeIDs      IDSet          `json:"assigneeIds"`
	BlockedByTaskIDs IDSet          `json:"blockedByTaskIds"`
	BlockedReason    *BlockedReason `json:"blockedReason"`
	EstimatedHours   *float64       `json:"estimatedHours"`
	ActualHours      *float64       `json:"actualHours"`
	Tags             []string       `json:"tags"`
	Progress         int            `json:"progress"`
	StartedAt        *time.Time     `json:"startedAt"`
	CompletedAt      *time.Time     `json:"completedAt"`
	StatusChangedAt  *time.Time     `json:"statusChangedAt"`
	IsDeleted        bool           `json:"-"`
	CreatedByID      string         `json:"createdById"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// Query selects non-deleted tasks of one list. Zero-valued fields do not
// filter. Results are ordered by CreatedAt DESC, then ID DESC.
type Query struct {
	WorkspaceID string
	ListID      string

	// AssigneeID keeps tasks whose assignee set contains the id.
	AssigneeID string
	// Unassigned keeps tasks with an empty assignee set.
	Unassigned bool

	Statuses   []Status
	Priorities []Priority
	// NoPriority keeps tasks whose priority is unset. Combined with
	// Priorities it widens the match.
	NoPriority bool

	Due *duebucket.Window

	Limit  int
	Offset int
}

// ErrDuplicateTaskID is returned by Store.Create when the human-facing
// task number is already taken.
var ErrDuplicateTaskID = errors.New("duplicate task_id")

// Store is the contract for task persistence.
type Store interface {
	Create(ctx context.Context, t *Task) (*Task, error)
	// Get returns a non-deleted task of the given list and workspace.
	Get(ctx context.Context, workspaceID, listID, id string) (*Task, error)
	// Update writes the given column changes (as produced by Apply).
	Update(ctx context.Context, id string, changes Changes) (*Task, error)
	SetProgress(ctx context.Context, id string, progress int) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	Find(ctx context.Context, q Query) ([]Task, error)
	Count(ctx context.Context, q Query) (int, error)
	EnsureTable(ctx context.Context) error
}
