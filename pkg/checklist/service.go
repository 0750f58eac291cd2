package checklist

import (
	"context"
	"fmt"
	"strings"

	"worklane/pkg/apperr"
)

// Recalculator is notified after every mutation of a task's checklist.
type Recalculator interface {
	Recalculate(ctx context.Context, taskID string) (int, error)
}

// Service applies checklist mutations and triggers progress recomputation.
type Service struct {
	store  Store
	recalc Recalculator
}

// NewService creates a Service.
func NewService(store Store, recalc Recalculator) *Service {
	return &Service{store: store, recalc: recalc}
}

// Result is an item mutation together with the task's recomputed progress.
type Result struct {
	Item     *Item `json:"item,omitempty"`
	Progress int   `json:"progress"`
}

// Add creates an item under taskID.
func (s *Service) Add(ctx context.Context, taskID, title string) (*Result, error) {
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}
	item, err := s.store.Create(ctx, taskID, strings.TrimSpace(title))
	if err != nil {
		return nil, fmt.Errorf("add checklist item to task %s: %w", taskID, err)
	}
	return s.settle(ctx, taskID, item)
}

// Edit renames or toggles an item belonging to taskID.
func (s *Service) Edit(ctx context.Context, taskID, itemID string, edit Edit) (*Result, error) {
	if err := edit.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, taskID, itemID); err != nil {
		return nil, err
	}
	if edit.Title != nil {
		t := strings.TrimSpace(*edit.Title)
		edit.Title = &t
	}
	item, err := s.store.Update(ctx, itemID, edit)
	if err != nil {
		return nil, fmt.Errorf("update checklist item %s: %w", itemID, err)
	}
	return s.settle(ctx, taskID, item)
}

// Remove deletes an item belonging to taskID.
func (s *Service) Remove(ctx context.Context, taskID, itemID string) (*Result, error) {
	if _, err := s.owned(ctx, taskID, itemID); err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, itemID); err != nil {
		return nil, fmt.Errorf("delete checklist item %s: %w", itemID, err)
	}
	return s.settle(ctx, taskID, nil)
}

// Items lists the checklist of taskID.
func (s *Service) Items(ctx context.Context, taskID string) ([]Item, error) {
	items, err := s.store.ByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("checklist of task %s: %w", taskID, err)
	}
	return items, nil
}

func (s *Service) owned(ctx context.Context, taskID, itemID string) (*Item, error) {
	item, err := s.store.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.TaskID != taskID {
		return nil, apperr.NotFound("checklist item %s on task %s", itemID, taskID)
	}
	return item, nil
}

func (s *Service) settle(ctx context.Context, taskID string, item *Item) (*Result, error) {
	progress, err := s.recalc.Recalculate(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("recalculate progress of task %s: %w", taskID, err)
	}
	return &Result{Item: item, Progress: progress}, nil
}
