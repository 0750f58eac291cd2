package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store.
type MemStore struct {
	mu     sync.RWMutex
	chains map[string][]Event
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{chains: make(map[string][]Event)}
}

func (s *MemStore) EnsureTable(context.Context) error { return nil }

func (s *MemStore) Append(_ context.Context, in Entry) (*Event, error) {
	content := in.Content
	if content == nil {
		content = map[string]any{}
	}
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	chain := s.chains[in.WorkspaceID]
	var (
		prevHash string
		headTS   time.Time
	)
	if len(chain) > 0 {
		prevHash = chain[len(chain)-1].Hash
		headTS = chain[len(chain)-1].Timestamp
	}
	e := Event{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Type:        in.Type,
		Timestamp:   nextTimestamp(time.Now(), headTS),
		WorkspaceID: in.WorkspaceID,
		TaskID:      in.TaskID,
		ActorID:     in.ActorID,
		PrevHash:    prevHash,
	}
	e.Hash = computeHash(prevHash, e.ID, e.Type, e.WorkspaceID, e.TaskID, e.ActorID, e.Timestamp, contentJSON)
	// Keep a private copy so later edits by the caller cannot break the chain.
	if err := json.Unmarshal(contentJSON, &e.Content); err != nil {
		return nil, fmt.Errorf("unmarshal content: %w", err)
	}
	s.chains[in.WorkspaceID] = append(chain, e)
	return &e, nil
}

func (s *MemStore) ByTask(_ context.Context, workspaceID, taskID string, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Event{}
	for _, e := range s.chains[workspaceID] {
		if e.TaskID != taskID {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemStore) Recent(_ context.Context, workspaceID string, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chain := s.chains[workspaceID]
	out := []Event{}
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemStore) Count(_ context.Context, workspaceID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chains[workspaceID]), nil
}

func (s *MemStore) VerifyChain(_ context.Context, workspaceID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prevHash := ""
	for i, e := range s.chains[workspaceID] {
		contentJSON, err := json.Marshal(e.Content)
		if err != nil {
			return fmt.Errorf("event %d (%s): %w", i, e.ID, err)
		}
		if err := verifyLink(i, e, prevHash, contentJSON); err != nil {
			return err
		}
		prevHash = e.Hash
	}
	return nil
}
