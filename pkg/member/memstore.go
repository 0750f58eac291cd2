package member

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
	mu      sync.RWMutex
	members map[string]Member
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{members: make(map[string]Member)}
}

func (s *MemStore) EnsureTable(context.Context) error { return nil }

func (s *MemStore) Register(_ context.Context, workspaceID, name, email, avatarURL string) (*Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.WorkspaceID == workspaceID && m.Email == email {
			return &m, nil
		}
	}
	m := Member{
		ID:          uuid.Must(uuid.NewV7()).String(),
		WorkspaceID: workspaceID,
		Name:        name,
		Email:       email,
		AvatarURL:   avatarURL,
		CreatedAt:   time.Now(),
	}
	s.members[m.ID] = m
	return &m, nil
}

func (s *MemStore) Get(_ context.Context, id string) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return nil, apperr.NotFound("member %s", id)
	}
	return &m, nil
}

func (s *MemStore) List(_ context.Context, workspaceID string) ([]Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Member{}
	for _, m := range s.members {
		if m.WorkspaceID == workspaceID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) FindByIDs(_ context.Context, workspaceID string, ids []string) ([]Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Member{}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if m, ok := s.members[id]; ok && m.WorkspaceID == workspaceID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
