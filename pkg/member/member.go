// Package member is the directory of workspace members used to enrich task
// assignees.
package member

import (
	"context"
	"time"
)

// Member is a person who can be assigned to tasks.
type Member struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Summary is the slice of a member embedded in task responses.
type Summary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Summary returns the public view of m.
func (m Member) Summary() Summary {
	return Summary{ID: m.ID, Name: m.Name, Email: m.Email, AvatarURL: m.AvatarURL}
}

// Directory resolves member ids of one workspace in bulk. Unknown ids and
// members of other workspaces are omitted from the result rather than
// reported as errors.
type Directory interface {
	FindByIDs(ctx context.Context, workspaceID string, ids []string) ([]Member, error)
}

// Store is the contract for member persistence.
type Store interface {
	Directory

	// Register creates or returns an existing member. Idempotent on
	// (workspace, email).
	Register(ctx context.Context, workspaceID, name, email, avatarURL string) (*Member, error)

	// Get returns a member by ID.
	Get(ctx context.Context, id string) (*Member, error)

	// List returns the members of a workspace in registration order.
	List(ctx context.Context, workspaceID string) ([]Member, error)

	EnsureTable(ctx context.Context) error
}
