package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, type, timestamp, workspace_id, task_id, actor_id, content, hash, prev_hash`

// PgStore is a PostgreSQL-backed Store with hash-chained integrity.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the task_activity table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS task_activity (
			id           TEXT PRIMARY KEY,
			type         TEXT NOT NULL,
			timestamp    TIMESTAMPTZ NOT NULL,
			workspace_id TEXT NOT NULL,
			task_id      TEXT NOT NULL DEFAULT '',
			actor_id     TEXT NOT NULL DEFAULT '',
			content      JSONB NOT NULL DEFAULT '{}',
			hash         TEXT NOT NULL,
			prev_hash    TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_activity_workspace_ts ON task_activity(workspace_id, timestamp, id)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_activity_task ON task_activity(task_id, timestamp)`)
	return err
}

// Append stores a new event, linking it to the workspace's previous one.
func (s *PgStore) Append(ctx context.Context, in Entry) (*Event, error) {
	content := in.Content
	if content == nil {
		content = map[string]any{}
	}
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialises appends per workspace, including the very first one.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, in.WorkspaceID); err != nil {
		return nil, fmt.Errorf("lock chain %s: %w", in.WorkspaceID, err)
	}
	var (
		prevHash string
		headTS   time.Time
	)
	err = tx.QueryRow(ctx, `
		SELECT hash, timestamp FROM task_activity WHERE workspace_id = $1
		ORDER BY timestamp DESC, id DESC LIMIT 1`, in.WorkspaceID).Scan(&prevHash, &headTS)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("chain head %s: %w", in.WorkspaceID, err)
	}

	// Stamped under the lock so chain order and timestamp order agree.
	now := nextTimestamp(time.Now(), headTS)
	id := uuid.Must(uuid.NewV7()).String()

	e := &Event{
		ID:          id,
		Type:        in.Type,
		Timestamp:   now,
		WorkspaceID: in.WorkspaceID,
		TaskID:      in.TaskID,
		ActorID:     in.ActorID,
		Content:     content,
		PrevHash:    prevHash,
	}
	e.Hash = computeHash(prevHash, e.ID, e.Type, e.WorkspaceID, e.TaskID, e.ActorID, now, contentJSON)

	_, err = tx.Exec(ctx, `
		INSERT INTO task_activity (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9)`,
		e.ID, e.Type, e.Timestamp, e.WorkspaceID, e.TaskID, e.ActorID, string(contentJSON), e.Hash, e.PrevHash)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit activity: %w", err)
	}
	return e, nil
}

// ByTask returns a task's events oldest first.
func (s *PgStore) ByTask(ctx context.Context, workspaceID, taskID string, limit int) ([]Event, error) {
	events, err := s.scanMany(ctx, `
		SELECT `+eventColumns+` FROM task_activity
		WHERE workspace_id = $1 AND task_id = $2
		ORDER BY timestamp ASC, id ASC LIMIT $3`, workspaceID, taskID, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("activity of task %s: %w", taskID, err)
	}
	return events, nil
}

// Recent returns the newest events of a workspace.
func (s *PgStore) Recent(ctx context.Context, workspaceID string, limit int) ([]Event, error) {
	events, err := s.scanMany(ctx, `
		SELECT `+eventColumns+` FROM task_activity
		WHERE workspace_id = $1
		ORDER BY timestamp DESC, id DESC LIMIT $2`, workspaceID, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("recent activity of %s: %w", workspaceID, err)
	}
	return events, nil
}

// Count returns the number of events in a workspace's chain.
func (s *PgStore) Count(ctx context.Context, workspaceID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM task_activity WHERE workspace_id = $1`, workspaceID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count activity of %s: %w", workspaceID, err)
	}
	return n, nil
}

// VerifyChain walks a workspace's chain chronologically and verifies every
// hash link.
func (s *PgStore) VerifyChain(ctx context.Context, workspaceID string) error {
	rows, err := s.pool.Query(ctx, `
		SELECT `+eventColumns+` FROM task_activity
		WHERE workspace_id = $1 ORDER BY timestamp ASC, id ASC`, workspaceID)
	if err != nil {
		return fmt.Errorf("verify chain query: %w", err)
	}
	defer rows.Close()

	prevHash := ""
	i := 0
	for rows.Next() {
		var e Event
		var contentJSON []byte
		if err := rows.Scan(&e.ID, &e.Type, &e.Timestamp, &e.WorkspaceID, &e.TaskID, &e.ActorID, &contentJSON, &e.Hash, &e.PrevHash); err != nil {
			return fmt.Errorf("verify chain scan row %d: %w", i, err)
		}
		if err := json.Unmarshal(contentJSON, &e.Content); err != nil {
			e.Content = map[string]any{"_raw": string(contentJSON)}
		}
		// JSONB normalises whitespace, so the stored text is re-marshalled
		// before comparing.
		remarshalled, _ := json.Marshal(e.Content)
		if err := verifyLink(i, e, prevHash, remarshalled, contentJSON); err != nil {
			return err
		}
		prevHash = e.Hash
		i++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("verify chain rows: %w", err)
	}
	return nil
}

func (s *PgStore) scanMany(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		var contentJSON []byte
		if err := rows.Scan(&e.ID, &e.Type, &e.Timestamp, &e.WorkspaceID, &e.TaskID, &e.ActorID, &contentJSON, &e.Hash, &e.PrevHash); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(contentJSON, &e.Content); err != nil {
			return nil, fmt.Errorf("unmarshal content: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return events, nil
}

// limitOrAll maps a non-positive limit to Postgres' LIMIT ALL.
func limitOrAll(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}
