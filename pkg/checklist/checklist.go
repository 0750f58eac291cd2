// Package checklist owns the checklist items attached to a task.
package checklist

import (
	"context"
	"strings"
	"time"

	"worklane/pkg/apperr"
)

// MaxTitleLength bounds an item title.
const MaxTitleLength = 200

// Item is one checklist entry under a task.
type Item struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	Title     string    `json:"title"`
	IsDone    bool      `json:"isDone"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Counts is the completion tally of a task's checklist.
type Counts struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// Edit is a partial item update. Nil fields are left unchanged.
type Edit struct {
	Title  *string `json:"title,omitempty"`
	IsDone *bool   `json:"isDone,omitempty"`
}

// Validate checks the edit's fields.
func (e Edit) Validate() error {
	if e.Title == nil && e.IsDone == nil {
		return apperr.BadRequest("nothing to update")
	}
	if e.Title != nil {
		return ValidateTitle(*e.Title)
	}
	return nil
}

// ValidateTitle rejects empty and oversized titles.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperr.BadRequest("title is required")
	}
	if len([]rune(title)) > MaxTitleLength {
		return apperr.BadRequest("title exceeds %d characters", MaxTitleLength)
	}
	return nil
}

// Counter is the read side the progress recalculation depends on.
type Counter interface {
	CountByTask(ctx context.Context, taskID string) (Counts, error)
}

// Store is the contract for checklist persistence.
type Store interface {
	Counter

	// Create appends an item at the end of the task's checklist.
	Create(ctx context.Context, taskID, title string) (*Item, error)
	Get(ctx context.Context, id string) (*Item, error)
	Update(ctx context.Context, id string, edit Edit) (*Item, error)
	Delete(ctx context.Context, id string) error
	// ByTask returns the task's items ordered by position.
	ByTask(ctx context.Context, taskID string) ([]Item, error)

	EnsureTable(ctx context.Context) error
}
