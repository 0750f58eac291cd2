// Package engine is the task lifecycle, grouping and progress engine. Every
// operation runs on behalf of a member whose standing in the target space
// has already been established by the participation gate.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"worklane/pkg/activity"
	"worklane/pkg/apperr"
	"worklane/pkg/checklist"
	"worklane/pkg/grouping"
	"worklane/pkg/participation"
	"worklane/pkg/progress"
	"worklane/pkg/task"
)

// Engine executes task, checklist and query operations.
type Engine struct {
	spaces    participation.Store
	tasks     task.Store
	items     checklist.Store
	checklist *checklist.Service
	groups    *grouping.Service
	activity  *activity.Recorder
	log       logrus.FieldLogger
	now       func() time.Time
	loc       *time.Location
	numbers   func() string
}

// Deps are the collaborators of an Engine.
type Deps struct {
	Spaces    participation.Store
	Tasks     task.Store
	Checklist checklist.Store
	Groups    *grouping.Service
	Activity  *activity.Recorder // optional
	Log       logrus.FieldLogger
	// Location anchors due-date buckets. Defaults to UTC.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
	// TaskNumbers generates human-facing task ids. Defaults to
	// task.NewTaskNumber.
	TaskNumbers func() string
}

// New creates an Engine. Checklist mutations recompute task progress.
func New(d Deps) *Engine {
	e := &Engine{
		spaces:   d.Spaces,
		tasks:    d.Tasks,
		items:    d.Checklist,
		groups:   d.Groups,
		activity: d.Activity,
		log:      d.Log,
		now:      d.Now,
		loc:      d.Location,
		numbers:  d.TaskNumbers,
	}
	if e.numbers == nil {
		e.numbers = task.NewTaskNumber
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.log == nil {
		e.log = logrus.StandardLogger()
	}
	e.checklist = checklist.NewService(d.Checklist, progress.NewRecalculator(d.Checklist, d.Tasks))
	return e
}

// clock returns the single instant an operation works with.
func (e *Engine) clock() time.Time {
	return e.now().In(e.loc)
}

// standing returns the gate result attached to ctx after checking it was
// issued for sc. List-scoped calls need a standing resolved for that list.
func (e *Engine) standing(ctx context.Context, sc participation.Scope) (*participation.Standing, error) {
	st, ok := participation.FromContext(ctx)
	if !ok {
		return nil, apperr.Forbidden("participation not established")
	}
	if st.Participant.MemberID != sc.MemberID || st.Space.WorkspaceID != sc.WorkspaceID {
		return nil, apperr.Forbidden("participation issued for another member or workspace")
	}
	if sc.SpaceID != "" && st.Space.ID != sc.SpaceID {
		return nil, apperr.Forbidden("participation issued for another space")
	}
	if sc.ListID != "" && (st.List == nil || st.List.ID != sc.ListID) {
		return nil, apperr.Forbidden("participation issued for another list")
	}
	return st, nil
}

func (e *Engine) listStanding(ctx context.Context, sc participation.Scope) (*participation.Standing, error) {
	if sc.ListID == "" {
		return nil, apperr.BadRequest("listId is required")
	}
	return e.standing(ctx, sc)
}

func (e *Engine) target(sc participation.Scope) grouping.Target {
	return grouping.Target{WorkspaceID: sc.WorkspaceID, ListID: sc.ListID, MemberID: sc.MemberID}
}

// visibleTask loads a non-deleted task of the scoped list.
func (e *Engine) visibleTask(ctx context.Context, sc participation.Scope, taskID string) (*task.Task, error) {
	t, err := e.tasks.Get(ctx, sc.WorkspaceID, sc.ListID, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", taskID, err)
	}
	return t, nil
}

func (e *Engine) view(ctx context.Context, t *task.Task) (*grouping.TaskView, error) {
	views, err := e.groups.Enrich(ctx, t.WorkspaceID, []task.Task{*t})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (e *Engine) record(ctx context.Context, sc participation.Scope, eventType, taskID string, content map[string]any) {
	e.activity.Record(ctx, activity.Entry{
		Type:        eventType,
		WorkspaceID: sc.WorkspaceID,
		TaskID:      taskID,
		ActorID:     sc.MemberID,
		Content:     content,
	})
}

func badRequest(err error) error {
	return apperr.BadRequest("%v", err)
}
