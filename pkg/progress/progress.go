// Package progress derives a task's completion percentage from its
// checklist.
package progress

import (
	"context"
	"fmt"
	"math"

	"worklane/pkg/checklist"
)

// Percent returns round(100*done/total), or 0 for an empty checklist.
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	if done > total {
		done = total
	}
	if done < 0 {
		done = 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

// Setter persists a recomputed progress value on a task.
type Setter interface {
	SetProgress(ctx context.Context, id string, progress int) error
}

// Recalculator recomputes and stores task progress. It does not look at
// task status: a completed task whose checklist changes gets the plain
// ratio, even if that is below 100.
type Recalculator struct {
	counts checklist.Counter
	tasks  Setter
}

// NewRecalculator creates a Recalculator.
func NewRecalculator(counts checklist.Counter, tasks Setter) *Recalculator {
	return &Recalculator{counts: counts, tasks: tasks}
}

// Recalculate recomputes taskID's progress and persists it.
func (r *Recalculator) Recalculate(ctx context.Context, taskID string) (int, error) {
	c, err := r.counts.CountByTask(ctx, taskID)
	if err != nil {
		return 0, fmt.Errorf("count checklist of task %s: %w", taskID, err)
	}
	p := Percent(c.Done, c.Total)
	if err := r.tasks.SetProgress(ctx, taskID, p); err != nil {
		return 0, fmt.Errorf("set progress of task %s: %w", taskID, err)
	}
	return p, nil
}
