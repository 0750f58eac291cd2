package checklist

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"worklane/pkg/apperr"
)

// MemStore is an in-memory Store.
type MemStore struct {
	mu    sync.RWMutex
	items map[string]Item
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{items: make(map[string]Item)}
}

func (s *MemStore) EnsureTable(context.Context) error { return nil }

func (s *MemStore) Create(_ context.Context, taskID, title string) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos := 0
	for _, it := range s.items {
		if it.TaskID == taskID && it.Position >= pos {
			pos = it.Position + 1
		}
	}
	now := time.Now()
	it := Item{
		ID:        uuid.Must(uuid.NewV7()).String(),
		TaskID:    taskID,
		Title:     title,
		Position:  pos,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.items[it.ID] = it
	return &it, nil
}

func (s *MemStore) Get(_ context.Context, id string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return nil, apperr.NotFound("checklist item %s", id)
	}
	return &it, nil
}

func (s *MemStore) Update(_ context.Context, id string, edit Edit) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, apperr.NotFound("checklist item %s", id)
	}
	if edit.Title != nil {
		it.Title = *edit.Title
	}
	if edit.IsDone != nil {
		it.IsDone = *edit.IsDone
	}
	it.UpdatedAt = time.Now()
	s.items[id] = it
	return &it, nil
}

func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return apperr.NotFound("checklist item %s", id)
	}
	delete(s.items, id)
	return nil
}

func (s *MemStore) ByTask(_ context.Context, taskID string) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Item{}
	for _, it := range s.items {
		if it.TaskID == taskID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) CountByTask(_ context.Context, taskID string) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var c Counts
	for _, it := range s.items {
		if it.TaskID != taskID {
			continue
		}
		c.Total++
		if it.IsDone {
			c.Done++
		}
	}
	return c, nil
}
