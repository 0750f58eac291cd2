package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"worklane/pkg/apperr"
)

const (
	uniqueViolation  = "23505"
	taskIDConstraint = "tasks_task_id_key"
)

// PgStore is a PostgreSQL-backed task store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const taskColumns = `id, task_id, list_id, space_id, workspace_id, name, description, status, priority,
	timeframe_start, timeframe_end, due_date, assignee_ids, blocked_by_task_ids, blocked_reason,
	estimated_hours, actual_hours, tags, progress, started_at, completed_at, status_changed_at,
	is_deleted, created_by_id, created_at, updated_at`

// EnsureTable creates the tasks table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id                  TEXT PRIMARY KEY,
			task_id             TEXT NOT NULL UNIQUE,
			list_id             TEXT NOT NULL,
			space_id            TEXT NOT NULL,
			workspace_id        TEXT NOT NULL,
			name                VARCHAR(200) NOT NULL,
			description         TEXT NOT NULL DEFAULT '',
			status              TEXT NOT NULL DEFAULT 'todo',
			priority            TEXT,
			timeframe_start     TIMESTAMPTZ,
			timeframe_end       TIMESTAMPTZ,
			due_date            TIMESTAMPTZ,
			assignee_ids        TEXT[] NOT NULL DEFAULT '{}',
			blocked_by_task_ids TEXT[] NOT NULL DEFAULT '{}',
			blocked_reason      JSONB,
			estimated_hours     DOUBLE PRECISION,
			actual_hours        DOUBLE PRECISION,
			tags                TEXT[] NOT NULL DEFAULT '{}',
			progress            INTEGER NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
			started_at          TIMESTAMPTZ,
			completed_at        TIMESTAMPTZ,
			status_changed_at   TIMESTAMPTZ,
			is_deleted          BOOLEAN NOT NULL DEFAULT FALSE,
			created_by_id       TEXT NOT NULL,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_list_created ON tasks(workspace_id, list_id, created_at DESC, id DESC) WHERE NOT is_deleted`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(list_id, due_date) WHERE NOT is_deleted`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_assignees ON tasks USING GIN(assignee_ids)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts a new task.
func (s *PgStore) Create(ctx context.Context, t *Task) (*Task, error) {
	reason, err := encodeReason(t.BlockedReason)
	if err != nil {
		return nil, err
	}
	start, end := splitTimeframe(t.Timeframe)
	_, err = s.pool.Exec(ctx, `
		INSERT INTO tasks (id, task_id, list_id, space_id, workspace_id, name, description, status, priority,
			timeframe_start, timeframe_end, due_date, assignee_ids, blocked_by_task_ids, blocked_reason,
			estimated_hours, actual_hours, tags, progress, started_at, completed_at, status_changed_at,
			is_deleted, created_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15::jsonb, $16, $17, $18, $19, $20, $21, $22, FALSE, $23, $24, $25)`,
		t.ID, t.TaskID, t.ListID, t.SpaceID, t.WorkspaceID, t.Name, t.Description, string(t.Status), priorityArg(t.Priority),
		start, end, t.DueDate, t.AssigneeIDs.Strings(), t.BlockedByTaskIDs.Strings(), reason,
		t.EstimatedHours, t.ActualHours, nonNil(t.Tags), t.Progress, t.StartedAt, t.CompletedAt, t.StatusChangedAt,
		t.CreatedByID, t.CreatedAt, t.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == taskIDConstraint {
		return nil, fmt.Errorf("task_id %s: %w", t.TaskID, ErrDuplicateTaskID)
	}
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

// Get retrieves a single non-deleted task scoped to its list and workspace.
func (s *PgStore) Get(ctx context.Context, workspaceID, listID, id string) (*Task, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+taskColumns+`
		FROM tasks WHERE id = $1 AND list_id = $2 AND workspace_id = $3 AND NOT is_deleted`,
		id, listID, workspaceID)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("task %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

// Update writes only the changed columns and returns the stored row.
func (s *PgStore) Update(ctx context.Context, id string, changes Changes) (*Task, error) {
	now := time.Now().Truncate(time.Microsecond)

	setClauses := "updated_at = $1"
	args := []any{now}
	argIdx := 2
	set := func(column, cast string, v any) {
		setClauses += fmt.Sprintf(", %s = $%d%s", column, argIdx, cast)
		args = append(args, v)
		argIdx++
	}

	for _, k := range changes.Fields() {
		v := changes[k]
		switch k {
		case ColName, ColDescription, ColProgress, ColDueDate, ColStartedAt, ColCompletedAt, ColStatusChangedAt,
			ColEstimatedHours, ColActualHours:
			set(k, "", v)
		case ColStatus:
			set(k, "", string(v.(Status)))
		case ColPriority:
			set(k, "", priorityArg(v.(*Priority)))
		case ColTimeframe:
			start, end := splitTimeframe(v.(*Timeframe))
			set("timeframe_start", "", start)
			set("timeframe_end", "", end)
		case ColAssigneeIDs, ColBlockedBy:
			set(k, "", v.(IDSet).Strings())
		case ColTags:
			set(k, "", nonNil(v.([]string)))
		case ColBlockedReason:
			reason, err := encodeReason(v.(*BlockedReason))
			if err != nil {
				return nil, err
			}
			set(k, "::jsonb", reason)
		}
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = $%d AND NOT is_deleted RETURNING %s", setClauses, argIdx, taskColumns)
	t, err := scanTask(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("task %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	return t, nil
}

// SetProgress overwrites the derived progress column.
func (s *PgStore) SetProgress(ctx context.Context, id string, progress int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks SET progress = $1, updated_at = $2 WHERE id = $3 AND NOT is_deleted`,
		progress, time.Now().Truncate(time.Microsecond), id)
	if err != nil {
		return fmt.Errorf("set progress %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("task %s", id)
	}
	return nil
}

// SoftDelete flags a task as deleted. The row stays for audit.
func (s *PgStore) SoftDelete(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks SET is_deleted = TRUE, updated_at = $1 WHERE id = $2 AND NOT is_deleted`,
		at.Truncate(time.Microsecond), id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("task %s", id)
	}
	return nil
}

// Find returns tasks matching q, newest first.
func (s *PgStore) Find(ctx context.Context, q Query) ([]Task, error) {
	where, args := buildWhere(q)
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + where + ` ORDER BY created_at DESC, id DESC`
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	defer rows.Close()
	return scanTaskRows(rows)
}

// Count returns the number of tasks matching q, ignoring Limit and Offset.
func (s *PgStore) Count(ctx context.Context, q Query) (int, error) {
	where, args := buildWhere(q)
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// buildWhere mirrors Matches.
func buildWhere(q Query) (string, []any) {
	clauses := []string{"NOT is_deleted", "workspace_id = $1", "list_id = $2"}
	args := []any{q.WorkspaceID, q.ListID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.AssigneeID != "" {
		clauses = append(clauses, arg(q.AssigneeID)+" = ANY(assignee_ids)")
	}
	if q.Unassigned {
		clauses = append(clauses, "cardinality(assignee_ids) = 0")
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, st := range q.Statuses {
			statuses[i] = string(st)
		}
		clauses = append(clauses, "status = ANY("+arg(statuses)+")")
	}
	if len(q.Priorities) > 0 || q.NoPriority {
		var alts []string
		if len(q.Priorities) > 0 {
			priorities := make([]string, len(q.Priorities))
			for i, p := range q.Priorities {
				priorities[i] = string(p)
			}
			alts = append(alts, "priority = ANY("+arg(priorities)+")")
		}
		if q.NoPriority {
			alts = append(alts, "priority IS NULL")
		}
		clauses = append(clauses, "("+strings.Join(alts, " OR ")+")")
	}
	if w := q.Due; w != nil {
		switch {
		case w.Empty:
			clauses = append(clauses, "FALSE")
		case w.NoDue:
			clauses = append(clauses, "due_date IS NULL")
		default:
			clauses = append(clauses, "due_date IS NOT NULL")
			if w.From != nil {
				clauses = append(clauses, "due_date >= "+arg(*w.From))
			}
			if w.To != nil {
				clauses = append(clauses, "due_date < "+arg(*w.To))
			}
		}
	}
	return strings.Join(clauses, " AND "), args
}

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	var status string
	var priority *string
	var start, end *time.Time
	var assignees, blockedBy []string
	var reason []byte
	err := row.Scan(&t.ID, &t.TaskID, &t.ListID, &t.SpaceID, &t.WorkspaceID, &t.Name, &t.Description, &status, &priority,
		&start, &end, &t.DueDate, &assignees, &blockedBy, &reason,
		&t.EstimatedHours, &t.ActualHours, &t.Tags, &t.Progress, &t.StartedAt, &t.CompletedAt, &t.StatusChangedAt,
		&t.IsDeleted, &t.CreatedByID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = Status(status)
	if priority != nil {
		p := Priority(*priority)
		t.Priority = &p
	}
	if start != nil || end != nil {
		t.Timeframe = &Timeframe{Start: start, End: end}
	}
	t.AssigneeIDs = NewIDSet(assignees...)
	t.BlockedByTaskIDs = NewIDSet(blockedBy...)
	if len(reason) > 0 {
		var br BlockedReason
		if err := json.Unmarshal(reason, &br); err != nil {
			return nil, fmt.Errorf("unmarshal blocked reason: %w", err)
		}
		t.BlockedReason = &br
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return &t, nil
}

func scanTaskRows(rows pgx.Rows) ([]Task, error) {
	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return tasks, nil
}

func splitTimeframe(tf *Timeframe) (start, end *time.Time) {
	if tf == nil {
		return nil, nil
	}
	return tf.Start, tf.End
}

func priorityArg(p *Priority) *string {
	if p == nil {
		return nil
	}
	s := string(*p)
	return &s
}

func encodeReason(br *BlockedReason) (*string, error) {
	if br == nil {
		return nil, nil
	}
	b, err := json.Marshal(br)
	if err != nil {
		return nil, fmt.Errorf("marshal blocked reason: %w", err)
	}
	s := string(b)
	return &s, nil
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
