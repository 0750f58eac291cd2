// Package participation resolves a member's standing in a space and gates
// every task and list operation on it.
package participation

import (
	"context"
	"time"
)

// Permission is the role a participant holds in a space.
type Permission string

const (
	Admin   Permission = "admin"
	Regular Permission = "regular"
)

func (p Permission) Valid() bool {
	switch p {
	case Admin, Regular:
		return true
	}
	return false
}

// Status tells whether a participation record currently grants access.
type Status string

const (
	Active   Status = "active"
	Inactive Status = "inactive"
)

func (s Status) Valid() bool {
	switch s {
	case Active, Inactive:
		return true
	}
	return false
}

// Space is a tenant-scoped container of lists.
type Space struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
}

// List is a named bucket of tasks within a space.
type List struct {
	ID          string    `json:"id"`
	SpaceID     string    `json:"spaceId"`
	WorkspaceID string    `json:"workspaceId"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Participant ties a member to a space. (MemberID, SpaceID) is unique.
type Participant struct {
	ID          string     `json:"id"`
	SpaceID     string     `json:"spaceId"`
	MemberID    string     `json:"memberId"`
	WorkspaceID string     `json:"workspaceId"`
	Permissions Permission `json:"permissions"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Store is the contract for space, list and participant persistence.
// Lookups return (nil, nil) when the record does not exist.
type Store interface {
	FindSpace(ctx context.Context, spaceID string) (*Space, error)
	FindList(ctx context.Context, listID string) (*List, error)
	FindActiveParticipant(ctx context.Context, spaceID, memberID, workspaceID string) (*Participant, error)

	// Provisioning.
	CreateSpace(ctx context.Context, workspaceID, name string) (*Space, error)
	CreateList(ctx context.Context, spaceID, name string) (*List, error)
	Lists(ctx context.Context, spaceID string) ([]List, error)
	// AddParticipant creates or replaces the (member, space) record.
	AddParticipant(ctx context.Context, spaceID, memberID string, perm Permission) (*Participant, error)
	SetParticipantStatus(ctx context.Context, spaceID, memberID string, status Status) (*Participant, error)

	EnsureTable(ctx context.Context) error
}
