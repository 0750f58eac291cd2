package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"worklane/pkg/activity"
	"worklane/pkg/apperr"
	"worklane/pkg/grouping"
	"worklane/pkg/participation"
	"worklane/pkg/task"
)

const taskNumberAttempts = 5

// CreateTask adds a task to the scoped list.
func (e *Engine) CreateTask(ctx context.Context, sc participation.Scope, in task.CreateInput) (*grouping.TaskView, error) {
	st, err := e.listStanding(ctx, sc)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, badRequest(err)
	}

	t := task.New(in, sc.WorkspaceID, st.Space.ID, st.List.ID, sc.MemberID, e.clock())
	created, err := e.insertTask(ctx, t)
	if err != nil {
		return nil, err
	}
	e.record(ctx, sc, activity.TaskCreated, created.ID, map[string]any{
		"taskId": created.TaskID,
		"name":   created.Name,
		"status": string(created.Status),
	})
	e.log.WithFields(logrus.Fields{"task": created.ID, "list": created.ListID}).Debug("task created")
	return e.view(ctx, created)
}

// insertTask stores t, drawing a new task number whenever the current one
// is already taken.
func (e *Engine) insertTask(ctx context.Context, t *task.Task) (*task.Task, error) {
	var err error
	for attempt := 0; attempt < taskNumberAttempts; attempt++ {
		t.TaskID = e.numbers()
		var created *task.Task
		created, err = e.tasks.Create(ctx, t)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, task.ErrDuplicateTaskID) {
			return nil, fmt.Errorf("create task: %w", err)
		}
		e.log.WithField("task_id", t.TaskID).Warn("task number collision, retrying")
	}
	return nil, fmt.Errorf("create task after %d attempts: %w", taskNumberAttempts, err)
}

// GetTask returns a non-deleted task of the scoped list.
func (e *Engine) GetTask(ctx context.Context, sc participation.Scope, taskID string) (*grouping.TaskView, error) {
	if _, err := e.listStanding(ctx, sc); err != nil {
		return nil, err
	}
	t, err := e.visibleTask(ctx, sc, taskID)
	if err != nil {
		return nil, err
	}
	return e.view(ctx, t)
}

// UpdateTask applies a partial update through the status state machine.
// An empty patch returns the task unchanged.
func (e *Engine) UpdateTask(ctx context.Context, sc participation.Scope, taskID string, p task.Patch) (*grouping.TaskView, error) {
	if _, err := e.listStanding(ctx, sc); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, badRequest(err)
	}
	cur, err := e.visibleTask(ctx, sc, taskID)
	if err != nil {
		return nil, err
	}

	total := 0
	if p.Completes(cur) {
		counts, err := e.items.CountByTask(ctx, cur.ID)
		if err != nil {
			return nil, fmt.Errorf("count checklist of task %s: %w", cur.ID, err)
		}
		total = counts.Total
	}
	changes := task.Apply(cur, p, e.clock(), total)
	if len(changes) == 0 {
		return e.view(ctx, cur)
	}

	updated, err := e.tasks.Update(ctx, cur.ID, changes)
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", cur.ID, err)
	}
	e.record(ctx, sc, activity.TaskUpdated, updated.ID, map[string]any{"fields": changes.Fields()})
	if updated.Status != cur.Status {
		e.record(ctx, sc, activity.TaskStatusChanged, updated.ID, map[string]any{
			"from": string(cur.Status),
			"to":   string(updated.Status),
		})
	}
	return e.view(ctx, updated)
}

// DeleteTask soft-deletes a task. Space admins may delete any task, other
// participants only the tasks they created.
func (e *Engine) DeleteTask(ctx context.Context, sc participation.Scope, taskID string) error {
	st, err := e.listStanding(ctx, sc)
	if err != nil {
		return err
	}
	cur, err := e.visibleTask(ctx, sc, taskID)
	if err != nil {
		return err
	}
	if !st.IsAdmin() && cur.CreatedByID != sc.MemberID {
		return apperr.Forbidden("only space admins or the creator may delete task %s", cur.ID)
	}
	if err := e.tasks.SoftDelete(ctx, cur.ID, e.clock()); err != nil {
		return fmt.Errorf("delete task %s: %w", cur.ID, err)
	}
	e.record(ctx, sc, activity.TaskDeleted, cur.ID, map[string]any{"taskId": cur.TaskID})
	return nil
}

// ListTasksFiltered runs a filtered, paginated query on the scoped list.
func (e *Engine) ListTasksFiltered(ctx context.Context, sc participation.Scope, f grouping.Filter) (*grouping.Page, error) {
	if _, err := e.listStanding(ctx, sc); err != nil {
		return nil, err
	}
	return e.groups.List(ctx, e.target(sc), f, e.clock())
}

// ListTasksGroupedByPriority groups the scoped list by priority.
func (e *Engine) ListTasksGroupedByPriority(ctx context.Context, sc participation.Scope, f grouping.GroupFilter) (grouping.Groups, error) {
	if _, err := e.listStanding(ctx, sc); err != nil {
		return nil, err
	}
	return e.groups.ByPriority(ctx, e.target(sc), f)
}

// ListTasksGroupedByDueDate groups the scoped list into due buckets.
func (e *Engine) ListTasksGroupedByDueDate(ctx context.Context, sc participation.Scope, f grouping.GroupFilter) (grouping.Groups, error) {
	if _, err := e.listStanding(ctx, sc); err != nil {
		return nil, err
	}
	return e.groups.ByDueDate(ctx, e.target(sc), f, e.clock())
}

// TaskActivity returns the audit trail of a visible task, oldest first.
func (e *Engine) TaskActivity(ctx context.Context, sc participation.Scope, taskID string, limit int) ([]activity.Event, error) {
	if _, err := e.listStanding(ctx, sc); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, apperr.BadRequest("limit must not be negative")
	}
	t, err := e.visibleTask(ctx, sc, taskID)
	if err != nil {
		return nil, err
	}
	store := e.activity.Store()
	if store == nil {
		return []activity.Event{}, nil
	}
	events, err := store.ByTask(ctx, sc.WorkspaceID, t.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("activity of task %s: %w", t.ID, err)
	}
	return events, nil
}
