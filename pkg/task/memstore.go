package task

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"worklane/pkg/apperr"
)

// MemStore is an in-memory Store for development and tests.
type MemStore struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{tasks: make(map[string]*Task)}
}

func (s *MemStore) EnsureTable(context.Context) error { return nil }

func (s *MemStore) Create(_ context.Context, t *Task) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tasks {
		if existing.TaskID == t.TaskID {
			return nil, fmt.Errorf("task_id %s: %w", t.TaskID, ErrDuplicateTaskID)
		}
	}
	cp := clone(t)
	s.tasks[t.ID] = cp
	return clone(cp), nil
}

func (s *MemStore) Get(_ context.Context, workspaceID, listID, id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok || t.IsDeleted || t.ListID != listID || t.WorkspaceID != workspaceID {
		return nil, apperr.NotFound("task %s", id)
	}
	return clone(t), nil
}

func (s *MemStore) Update(_ context.Context, id string, changes Changes) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.IsDeleted {
		return nil, apperr.NotFound("task %s", id)
	}
	changes.ApplyTo(t)
	t.UpdatedAt = time.Now()
	return clone(t), nil
}

func (s *MemStore) SetProgress(_ context.Context, id string, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.IsDeleted {
		return apperr.NotFound("task %s", id)
	}
	t.Progress = progress
	t.UpdatedAt = time.Now()
	return nil
}

func (s *MemStore) SoftDelete(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.IsDeleted {
		return apperr.NotFound("task %s", id)
	}
	t.IsDeleted = true
	t.UpdatedAt = at
	return nil
}

func (s *MemStore) Find(_ context.Context, q Query) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := s.match(q)
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return []Task{}, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	out := make([]Task, 0, len(matched))
	for _, t := range matched {
		out = append(out, *clone(t))
	}
	return out, nil
}

func (s *MemStore) Count(_ context.Context, q Query) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.match(q)), nil
}

func (s *MemStore) match(q Query) []*Task {
	var out []*Task
	for _, t := range s.tasks {
		if Matches(t, q) {
			out = append(out, t)
		}
	}
	return out
}

// Matches reports whether t satisfies every filter of q. It is the
// reference semantics the Postgres query mirrors.
func Matches(t *Task, q Query) bool {
	if t.IsDeleted || t.WorkspaceID != q.WorkspaceID || t.ListID != q.ListID {
		return false
	}
	if q.AssigneeID != "" && !t.AssigneeIDs.Contains(q.AssigneeID) {
		return false
	}
	if q.Unassigned && t.AssigneeIDs.Len() != 0 {
		return false
	}
	if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, t.Status) {
		return false
	}
	if len(q.Priorities) > 0 || q.NoPriority {
		ok := (q.NoPriority && t.Priority == nil) ||
			(t.Priority != nil && slices.Contains(q.Priorities, *t.Priority))
		if !ok {
			return false
		}
	}
	if q.Due != nil && !q.Due.Contains(t.DueDate) {
		return false
	}
	return true
}

func clone(t *Task) *Task {
	cp := *t
	cp.AssigneeIDs = slices.Clone(t.AssigneeIDs)
	cp.BlockedByTaskIDs = slices.Clone(t.BlockedByTaskIDs)
	cp.Tags = slices.Clone(t.Tags)
	return &cp
}
