package participation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"worklane/pkg/apperr"
)

// MemStore is an in-memory Store for development and tests.
type MemStore struct {
	mu           sync.RWMutex
	spaces       map[string]Space
	lists        map[string]List
	participants map[string]Participant // keyed by memberID + "/" + spaceID
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		spaces:       make(map[string]Space),
		lists:        make(map[string]List),
		participants: make(map[string]Participant),
	}
}

func (s *MemStore) EnsureTable(context.Context) error { return nil }

func (s *MemStore) FindSpace(_ context.Context, spaceID string) (*Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.spaces[spaceID]
	if !ok {
		return nil, nil
	}
	return &sp, nil
}

func (s *MemStore) FindList(_ context.Context, listID string) (*List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lists[listID]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (s *MemStore) FindActiveParticipant(_ context.Context, spaceID, memberID, workspaceID string) (*Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[participantKey(memberID, spaceID)]
	if !ok || p.Status != Active || p.WorkspaceID != workspaceID {
		return nil, nil
	}
	return &p, nil
}

func (s *MemStore) CreateSpace(_ context.Context, workspaceID, name string) (*Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp := Space{
		ID:          uuid.Must(uuid.NewV7()).String(),
		WorkspaceID: workspaceID,
		Name:        name,
		CreatedAt:   time.Now(),
	}
	s.spaces[sp.ID] = sp
	return &sp, nil
}

func (s *MemStore) CreateList(_ context.Context, spaceID, name string) (*List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.spaces[spaceID]
	if !ok {
		return nil, apperr.NotFound("space %s", spaceID)
	}
	l := List{
		ID:          uuid.Must(uuid.NewV7()).String(),
		SpaceID:     sp.ID,
		WorkspaceID: sp.WorkspaceID,
		Name:        name,
		CreatedAt:   time.Now(),
	}
	s.lists[l.ID] = l
	return &l, nil
}

func (s *MemStore) Lists(_ context.Context, spaceID string) ([]List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []List{}
	for _, l := range s.lists {
		if l.SpaceID == spaceID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) AddParticipant(_ context.Context, spaceID, memberID string, perm Permission) (*Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.spaces[spaceID]
	if !ok {
		return nil, apperr.NotFound("space %s", spaceID)
	}
	key := participantKey(memberID, spaceID)
	p, exists := s.participants[key]
	if !exists {
		p = Participant{
			ID:          uuid.Must(uuid.NewV7()).String(),
			SpaceID:     spaceID,
			MemberID:    memberID,
			WorkspaceID: sp.WorkspaceID,
			CreatedAt:   time.Now(),
		}
	}
	p.Permissions = perm
	p.Status = Active
	s.participants[key] = p
	return &p, nil
}

func (s *MemStore) SetParticipantStatus(_ context.Context, spaceID, memberID string, status Status) (*Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := participantKey(memberID, spaceID)
	p, ok := s.participants[key]
	if !ok {
		return nil, apperr.NotFound("participant %s in space %s", memberID, spaceID)
	}
	p.Status = status
	s.participants[key] = p
	return &p, nil
}

func participantKey(memberID, spaceID string) string {
	return memberID + "/" + spaceID
}
