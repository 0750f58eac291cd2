// Package activity keeps a hash-chained, append-only audit trail of task
// and checklist mutations, one chain per workspace.
package activity

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"
)

// Event types.
const (
	TaskCreated       = "task.created"
	TaskUpdated       = "task.updated"
	TaskStatusChanged = "task.status_changed"
	TaskDeleted       = "task.deleted"
	ChecklistAdded    = "checklist.item_added"
	ChecklistUpdated  = "checklist.item_updated"
	ChecklistRemoved  = "checklist.item_removed"
)

// Event is a single entry in a workspace's activity chain.
type Event struct {
	ID          string         `json:"id"` // UUID v7
	Type        string         `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	WorkspaceID string         `json:"workspaceId"`
	TaskID      string         `json:"taskId"`
	ActorID     string         `json:"actorId"`
	Content     map[string]any `json:"content"`
	Hash        string         `json:"hash"`     // SHA-256 of canonical form
	PrevHash    string         `json:"prevHash"` // previous event of the same workspace
}

// Entry is what callers append; the store assigns id, time and hashes.
type Entry struct {
	Type        string
	WorkspaceID string
	TaskID      string
	ActorID     string
	Content     map[string]any
}

// Store is the contract for activity persistence.
type Store interface {
	Append(ctx context.Context, e Entry) (*Event, error)
	// ByTask returns a task's events oldest first.
	ByTask(ctx context.Context, workspaceID, taskID string, limit int) ([]Event, error)
	// Recent returns a workspace's newest events first.
	Recent(ctx context.Context, workspaceID string, limit int) ([]Event, error)
	Count(ctx context.Context, workspaceID string) (int, error)
	// VerifyChain walks a workspace's chain and checks every link.
	VerifyChain(ctx context.Context, workspaceID string) error
	EnsureTable(ctx context.Context) error
}

func computeHash(prevHash, id, eventType, workspaceID, taskID, actorID string, timestamp time.Time, contentJSON []byte) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%d|%s", prevHash, id, eventType, workspaceID, taskID, actorID, timestamp.UnixNano(), string(contentJSON))
	h := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", h)
}
