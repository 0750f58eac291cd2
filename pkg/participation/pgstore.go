package participation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"worklane/pkg/apperr"
)

// PgStore is a PostgreSQL-backed participation store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the spaces, lists and space_participants tables.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS spaces (
			id           TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			name         TEXT NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_spaces_workspace ON spaces(workspace_id)`,
		`CREATE TABLE IF NOT EXISTS lists (
			id           TEXT PRIMARY KEY,
			space_id     TEXT NOT NULL REFERENCES spaces(id),
			workspace_id TEXT NOT NULL,
			name         TEXT NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lists_space ON lists(space_id)`,
		`CREATE TABLE IF NOT EXISTS space_participants (
			id           TEXT PRIMARY KEY,
			space_id     TEXT NOT NULL REFERENCES spaces(id),
			member_id    TEXT NOT NULL,
			workspace_id TEXT NOT NULL,
			permissions  TEXT NOT NULL DEFAULT 'regular',
			status       TEXT NOT NULL DEFAULT 'active',
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_participants_member_space ON space_participants(member_id, space_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// FindSpace returns the space, or nil when it does not exist.
func (s *PgStore) FindSpace(ctx context.Context, spaceID string) (*Space, error) {
	var sp Space
	err := s.pool.QueryRow(ctx, `
		SELECT id, workspace_id, name, created_at FROM spaces WHERE id = $1`, spaceID).
		Scan(&sp.ID, &sp.WorkspaceID, &sp.Name, &sp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find space %s: %w", spaceID, err)
	}
	return &sp, nil
}

// FindList returns the list, or nil when it does not exist.
func (s *PgStore) FindList(ctx context.Context, listID string) (*List, error) {
	l, err := s.scanList(ctx, `
		SELECT id, space_id, workspace_id, name, created_at FROM lists WHERE id = $1`, listID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find list %s: %w", listID, err)
	}
	return l, nil
}

// FindActiveParticipant returns the member's active record in the space,
// or nil when there is none.
func (s *PgStore) FindActiveParticipant(ctx context.Context, spaceID, memberID, workspaceID string) (*Participant, error) {
	p, err := s.scanParticipant(ctx, `
		SELECT id, space_id, member_id, workspace_id, permissions, status, created_at
		FROM space_participants
		WHERE space_id = $1 AND member_id = $2 AND workspace_id = $3 AND status = 'active'`,
		spaceID, memberID, workspaceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find participant %s in space %s: %w", memberID, spaceID, err)
	}
	return p, nil
}

// CreateSpace inserts a new space.
func (s *PgStore) CreateSpace(ctx context.Context, workspaceID, name string) (*Space, error) {
	sp := &Space{
		ID:          uuid.Must(uuid.NewV7()).String(),
		WorkspaceID: workspaceID,
		Name:        name,
		CreatedAt:   time.Now().Truncate(time.Microsecond),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO spaces (id, workspace_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		sp.ID, sp.WorkspaceID, sp.Name, sp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create space: %w", err)
	}
	return sp, nil
}

// CreateList inserts a list under spaceID, copying the space's workspace.
func (s *PgStore) CreateList(ctx context.Context, spaceID, name string) (*List, error) {
	l, err := s.scanList(ctx, `
		INSERT INTO lists (id, space_id, workspace_id, name, created_at)
		SELECT $1, id, workspace_id, $2, $3 FROM spaces WHERE id = $4
		RETURNING id, space_id, workspace_id, name, created_at`,
		uuid.Must(uuid.NewV7()).String(), name, time.Now().Truncate(time.Microsecond), spaceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("space %s", spaceID)
	}
	if err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}
	return l, nil
}

// Lists returns the lists of a space in creation order.
func (s *PgStore) Lists(ctx context.Context, spaceID string) ([]List, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, space_id, workspace_id, name, created_at
		FROM lists WHERE space_id = $1 ORDER BY created_at ASC, id ASC`, spaceID)
	if err != nil {
		return nil, fmt.Errorf("lists of space %s: %w", spaceID, err)
	}
	defer rows.Close()

	lists := []List{}
	for rows.Next() {
		var l List
		if err := rows.Scan(&l.ID, &l.SpaceID, &l.WorkspaceID, &l.Name, &l.CreatedAt); err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

// AddParticipant creates or reactivates a participant. Idempotent on
// (member, space).
func (s *PgStore) AddParticipant(ctx context.Context, spaceID, memberID string, perm Permission) (*Participant, error) {
	p, err := s.scanParticipant(ctx, `
		INSERT INTO space_participants (id, space_id, member_id, workspace_id, permissions, status, created_at)
		SELECT $1, id, $2, workspace_id, $3, 'active', $4 FROM spaces WHERE id = $5
		ON CONFLICT (member_id, space_id) DO UPDATE SET permissions = EXCLUDED.permissions, status = 'active'
		RETURNING id, space_id, member_id, workspace_id, permissions, status, created_at`,
		uuid.Must(uuid.NewV7()).String(), memberID, string(perm), time.Now().Truncate(time.Microsecond), spaceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("space %s", spaceID)
	}
	if err != nil {
		return nil, fmt.Errorf("add participant %s to space %s: %w", memberID, spaceID, err)
	}
	return p, nil
}

// SetParticipantStatus activates or deactivates a participant.
func (s *PgStore) SetParticipantStatus(ctx context.Context, spaceID, memberID string, status Status) (*Participant, error) {
	p, err := s.scanParticipant(ctx, `
		UPDATE space_participants SET status = $1
		WHERE space_id = $2 AND member_id = $3
		RETURNING id, space_id, member_id, workspace_id, permissions, status, created_at`,
		string(status), spaceID, memberID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("participant %s in space %s", memberID, spaceID)
	}
	if err != nil {
		return nil, fmt.Errorf("set participant status %s/%s: %w", spaceID, memberID, err)
	}
	return p, nil
}

func (s *PgStore) scanList(ctx context.Context, query string, args ...any) (*List, error) {
	var l List
	err := s.pool.QueryRow(ctx, query, args...).Scan(&l.ID, &l.SpaceID, &l.WorkspaceID, &l.Name, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *PgStore) scanParticipant(ctx context.Context, query string, args ...any) (*Participant, error) {
	var p Participant
	var perm, status string
	err := s.pool.QueryRow(ctx, query, args...).
		Scan(&p.ID, &p.SpaceID, &p.MemberID, &p.WorkspaceID, &perm, &status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Permissions = Permission(perm)
	p.Status = Status(status)
	return &p, nil
}
