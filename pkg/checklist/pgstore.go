package checklist

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

const itemColumns = `id, task_id, title, is_done, position, created_at, updated_at`

// PgStore is a PostgreSQL-backed checklist store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the checklist_items table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS checklist_items (
			id         TEXT PRIMARY KEY,
			task_id    TEXT NOT NULL,
			title      TEXT NOT NULL,
			is_done    BOOLEAN NOT NULL DEFAULT FALSE,
			position   INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_checklist_items_task ON checklist_items(task_id, position)`)
	return err
}

// Create appends an item after the task's last position.
func (s *PgStore) Create(ctx context.Context, taskID, title string) (*Item, error) {
	now := time.Now().Truncate(time.Microsecond)
	row := s.pool.QueryRow(ctx, `
		INSERT INTO checklist_items (id, task_id, title, is_done, position, created_at, updated_at)
		VALUES ($1, $2, $3, FALSE,
			(SELECT COALESCE(MAX(position), -1) + 1 FROM checklist_items WHERE task_id = $2),
			$4, $4)
		RETURNING `+itemColumns,
		uuid.Must(uuid.NewV7()).String(), taskID, title, now)
	item, err := scanItem(row)
	if err != nil {
		return nil, fmt.Errorf("create checklist item: %w", err)
	}
	return item, nil
}

// Get returns an item by ID.
func (s *PgStore) Get(ctx context.Context, id string) (*Item, error) {
	item, err := scanItem(s.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM checklist_items WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("checklist item %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get checklist item %s: %w", id, err)
	}
	return item, nil
}

// Update applies the non-nil fields of edit.
func (s *PgStore) Update(ctx context.Context, id string, edit Edit) (*Item, error) {
	item, err := scanItem(s.pool.QueryRow(ctx, `
		UPDATE checklist_items
		SET title = COALESCE($1, title), is_done = COALESCE($2, is_done), updated_at = $3
		WHERE id = $4
		RETURNING `+itemColumns,
		edit.Title, edit.IsDone, time.Now().Truncate(time.Microsecond), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("checklist item %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("update checklist item %s: %w", id, err)
	}
	return item, nil
}

// Delete removes an item.
func (s *PgStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM checklist_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete checklist item %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("checklist item %s", id)
	}
	return nil
}

// ByTask returns the task's items ordered by position.
func (s *PgStore) ByTask(ctx context.Context, taskID string) ([]Item, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+itemColumns+` FROM checklist_items
		WHERE task_id = $1 ORDER BY position ASC, id ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("checklist items of task %s: %w", taskID, err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// CountByTask tallies done and total items of a task.
func (s *PgStore) CountByTask(ctx context.Context, taskID string) (Counts, error) {
	var c Counts
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE is_done), COUNT(*)
		FROM checklist_items WHERE task_id = $1`, taskID).Scan(&c.Done, &c.Total)
	if err != nil {
		return Counts{}, fmt.Errorf("count checklist items of task %s: %w", taskID, err)
	}
	return c, nil
}

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	if err := row.Scan(&it.ID, &it.TaskID, &it.Title, &it.IsDone, &it.Position, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}
