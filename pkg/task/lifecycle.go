package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Column names used as Changes keys. They double as the Postgres column
// names of the tasks table.
const (
	ColName            = "name"
	ColDescription     = "description"
	ColStatus          = "status"
	ColPriority        = "priority"
	ColTimeframe       = "timeframe"
	ColDueDate         = "due_date"
	ColAssigneeIDs     = "assignee_ids"
	ColBlockedBy       = "blocked_by_task_ids"
	ColBlockedReason   = "blocked_reason"
	ColEstimatedHours  = "estimated_hours"
	ColActualHours     = "actual_hours"
	ColTags            = "tags"
	ColProgress        = "progress"
	ColStartedAt       = "started_at"
	ColCompletedAt     = "completed_at"
	ColStatusChangedAt = "status_changed_at"
)

// Changes maps a column to its new value. Value types:
// string (name, description), Status, *Priority, *Timeframe, *time.Time
// (due_date, started_at, completed_at, status_changed_at), IDSet,
// *BlockedReason, *float64, []string (tags), int (progress).
type Changes map[string]any

// Fields returns the changed column names in a stable order.
func (c Changes) Fields() []string {
	order := []string{ColName, ColDescription, ColStatus, ColPriority, ColTimeframe, ColDueDate,
		ColAssigneeIDs, ColBlockedBy, ColBlockedReason, ColEstimatedHours, ColActualHours, ColTags,
		ColProgress, ColStartedAt, ColCompletedAt, ColStatusChangedAt}
	var out []string
	for _, k := range order {
		if _, ok := c[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// ApplyTo writes the changes onto t.
func (c Changes) ApplyTo(t *Task) {
	for k, v := range c {
		switch k {
		case ColName:
			t.Name = v.(string)
		case ColDescription:
			t.Description = v.(string)
		case ColStatus:
			t.Status = v.(Status)
		case ColPriority:
			t.Priority = v.(*Priority)
		case ColTimeframe:
			t.Timeframe = v.(*Timeframe)
		case ColDueDate:
			t.DueDate = v.(*time.Time)
		case ColAssigneeIDs:
			t.AssigneeIDs = v.(IDSet)
		case ColBlockedBy:
			t.BlockedByTaskIDs = v.(IDSet)
		case ColBlockedReason:
			t.BlockedReason = v.(*BlockedReason)
		case ColEstimatedHours:
			t.EstimatedHours = v.(*float64)
		case ColActualHours:
			t.ActualHours = v.(*float64)
		case ColTags:
			t.Tags = v.([]string)
		case ColProgress:
			t.Progress = v.(int)
		case ColStartedAt:
			t.StartedAt = v.(*time.Time)
		case ColCompletedAt:
			t.CompletedAt = v.(*time.Time)
		case ColStatusChangedAt:
			t.StatusChangedAt = v.(*time.Time)
		}
	}
}

// Completes reports whether applying p moves cur into completed. The
// caller must then supply the checklist item total to Apply.
func (p Patch) Completes(cur *Task) bool {
	return p.Status != nil && *p.Status == StatusCompleted && cur.Status != StatusCompleted
}

// Apply runs the update state machine for p against cur and returns the
// columns to write. cur is not modified. checklistTotal is only consulted
// when the patch completes the task.
//
// Rules, in precedence order:
//  1. entering in_progress stamps started_at once; it is never cleared
//  2. entering completed stamps completed_at, and a task without checklist
//     items jumps to 100% progress
//  3. leaving completed clears completed_at
//  4. any status change stamps status_changed_at
//  5. a timeframe change recomputes due_date from timeframe.end
//  6. blockedReason null clears it, an object is stamped with blockedAt=now
//  7. everything else is a plain overwrite
func Apply(cur *Task, p Patch, now time.Time, checklistTotal int) Changes {
	c := Changes{}

	if p.Status != nil && *p.Status != cur.Status {
		next := *p.Status
		c[ColStatus] = next
		switch next {
		case StatusInProgress:
			if cur.StartedAt == nil {
				c[ColStartedAt] = timePtr(now)
			}
		case StatusCompleted:
			c[ColCompletedAt] = timePtr(now)
			if checklistTotal == 0 {
				c[ColProgress] = 100
			}
		case StatusTodo, StatusInReview, StatusCanceled:
		}
		if cur.Status == StatusCompleted {
			c[ColCompletedAt] = (*time.Time)(nil)
		}
		c[ColStatusChangedAt] = timePtr(now)
	}

	if p.Timeframe.Set {
		if p.Timeframe.Null {
			c[ColTimeframe] = (*Timeframe)(nil)
			c[ColDueDate] = (*time.Time)(nil)
		} else {
			tf := p.Timeframe.Value
			c[ColTimeframe] = &tf
			c[ColDueDate] = dueOf(&tf)
		}
	}

	if p.BlockedReason.Set {
		if p.BlockedReason.Null {
			c[ColBlockedReason] = (*BlockedReason)(nil)
		} else {
			br := p.BlockedReason.Value
			br.BlockedAt = now
			c[ColBlockedReason] = &br
		}
	}

	if p.Name != nil {
		c[ColName] = *p.Name
	}
	if p.Description != nil {
		c[ColDescription] = *p.Description
	}
	if p.Priority.Set {
		if p.Priority.Null {
			c[ColPriority] = (*Priority)(nil)
		} else {
			pr := p.Priority.Value
			c[ColPriority] = &pr
		}
	}
	if p.AssigneeIDs != nil {
		c[ColAssigneeIDs] = NewIDSet(*p.AssigneeIDs...)
	}
	if p.BlockedByTaskIDs != nil {
		c[ColBlockedBy] = NewIDSet(*p.BlockedByTaskIDs...).Without(cur.ID)
	}
	if p.EstimatedHours.Set {
		c[ColEstimatedHours] = nullableFloat(p.EstimatedHours)
	}
	if p.ActualHours.Set {
		c[ColActualHours] = nullableFloat(p.ActualHours)
	}
	if p.Tags != nil {
		c[ColTags] = normalizeTags(*p.Tags)
	}
	return c
}

// New builds a task in the initial state (todo, progress 0) and then runs
// the requested initial status through Apply so derived timestamps follow
// the same rules as updates. A fresh task has no checklist items.
func New(in CreateInput, workspaceID, spaceID, listID, createdBy string, now time.Time) *Task {
	id := uuid.Must(uuid.NewV7()).String()
	t := &Task{
		ID:               id,
		TaskID:           NewTaskNumber(),
		ListID:           listID,
		SpaceID:          spaceID,
		WorkspaceID:      workspaceID,
		Name:             in.Name,
		Description:      in.Description,
		Status:           StatusTodo,
		Priority:         in.Priority,
		AssigneeIDs:      NewIDSet(in.AssigneeIDs...),
		BlockedByTaskIDs: NewIDSet(in.BlockedByTaskIDs...).Without(id),
		EstimatedHours:   in.EstimatedHours,
		ActualHours:      in.ActualHours,
		Tags:             normalizeTags(in.Tags),
		Progress:         0,
		CreatedByID:      createdBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.Timeframe != nil {
		tf := *in.Timeframe
		t.Timeframe = &tf
		t.DueDate = dueOf(&tf)
	}
	if in.BlockedReason != nil {
		br := *in.BlockedReason
		br.BlockedAt = now
		t.BlockedReason = &br
	}
	if in.Status != nil {
		Apply(t, Patch{Status: in.Status}, now, 0).ApplyTo(t)
	}
	return t
}

// NewTaskNumber returns a human-facing task id carrying 48 random bits.
func NewTaskNumber() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("TSK-%s", strings.ToUpper(hex[len(hex)-12:]))
}

func dueOf(tf *Timeframe) *time.Time {
	if tf == nil || tf.End == nil {
		return nil
	}
	return timePtr(*tf.End)
}

func nullableFloat(n Nullable[float64]) *float64 {
	if n.Null {
		return nil
	}
	v := n.Value
	return &v
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func timePtr(t time.Time) *time.Time { return &t }
