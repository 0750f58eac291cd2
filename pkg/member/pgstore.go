package member

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

const memberColumns = `id, workspace_id, name, email, avatar_url, created_at`

// PgStore is a PostgreSQL-backed member store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the members table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS members (
			id           TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			name         TEXT NOT NULL,
			email        TEXT NOT NULL,
			avatar_url   TEXT,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE UNIQUE INDEX IF NOT EXISTS members_workspace_email_idx ON members(workspace_id, email)`)
	return err
}

// Register creates or returns an existing member. Idempotent.
func (s *PgStore) Register(ctx context.Context, workspaceID, name, email, avatarURL string) (*Member, error) {
	m, err := s.scanOne(ctx, `SELECT `+memberColumns+` FROM members WHERE workspace_id = $1 AND email = $2`, workspaceID, email)
	if err == nil {
		return m, nil
	}

	id := uuid.Must(uuid.NewV7()).String()
	now := time.Now().Truncate(time.Microsecond)
	_, err = s.pool.Exec(ctx, `
		INSERT INTO members (id, workspace_id, name, email, avatar_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING`,
		id, workspaceID, name, email, nilIfEmpty(avatarURL), now)
	if err != nil {
		return nil, fmt.Errorf("register member %s: %w", email, err)
	}

	// Re-fetch in case a concurrent register won the insert.
	m, err = s.scanOne(ctx, `SELECT `+memberColumns+` FROM members WHERE workspace_id = $1 AND email = $2`, workspaceID, email)
	if err != nil {
		return nil, fmt.Errorf("register member %s: re-fetch failed: %w", email, err)
	}
	return m, nil
}

// Get returns a member by ID.
func (s *PgStore) Get(ctx context.Context, id string) (*Member, error) {
	m, err := s.scanOne(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("member %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get member %s: %w", id, err)
	}
	return m, nil
}

// List returns the members of a workspace.
func (s *PgStore) List(ctx context.Context, workspaceID string) ([]Member, error) {
	return s.query(ctx, `SELECT `+memberColumns+` FROM members WHERE workspace_id = $1 ORDER BY created_at ASC, id ASC`, workspaceID)
}

// FindByIDs returns the workspace's members with the given ids, in id order.
func (s *PgStore) FindByIDs(ctx context.Context, workspaceID string, ids []string) ([]Member, error) {
	if len(ids) == 0 {
		return []Member{}, nil
	}
	members, err := s.query(ctx, `SELECT `+memberColumns+` FROM members
		WHERE workspace_id = $1 AND id = ANY($2) ORDER BY id`, workspaceID, ids)
	if err != nil {
		return nil, fmt.Errorf("find members: %w", err)
	}
	return members, nil
}

func (s *PgStore) query(ctx context.Context, query string, args ...any) ([]Member, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		var m Member
		var avatar *string
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.Name, &m.Email, &avatar, &m.CreatedAt); err != nil {
			return nil, err
		}
		if avatar != nil {
			m.AvatarURL = *avatar
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *PgStore) scanOne(ctx context.Context, query string, args ...any) (*Member, error) {
	var m Member
	var avatar *string
	err := s.pool.QueryRow(ctx, query, args...).Scan(&m.ID, &m.WorkspaceID, &m.Name, &m.Email, &avatar, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if avatar != nil {
		m.AvatarURL = *avatar
	}
	return &m, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
