package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklane/pkg/checklist"
	"worklane/pkg/task"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		done, total, want int
	}{
		{0, 0, 0},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13},
		{3, 3, 100},
		{5, 3, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percent(tt.done, tt.total), "%d/%d", tt.done, tt.total)
	}
}

func TestPercentBounds(t *testing.T) {
	for total := 0; total <= 25; total++ {
		for done := 0; done <= total; done++ {
			p := Percent(done, total)
			assert.GreaterOrEqual(t, p, 0)
			assert.LessOrEqual(t, p, 100)
		}
	}
}

// A completed task without checklist items sits at 100. Adding an open item
// recomputes below 100 and leaves the status alone.
func TestCompletedTaskRoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tasks := task.NewMemStore()
	items := checklist.NewMemStore()
	recalc := NewRecalculator(items, tasks)
	svc := checklist.NewService(items, recalc)

	created, err := tasks.Create(ctx, task.New(task.CreateInput{Name: "release"}, "ws1", "sp1", "l1", "m1", now))
	require.NoError(t, err)
	assert.Equal(t, 0, created.Progress)

	completed := task.StatusCompleted
	changes := task.Apply(created, task.Patch{Status: &completed}, now, 0)
	done, err := tasks.Update(ctx, created.ID, changes)
	require.NoError(t, err)
	assert.Equal(t, 100, done.Progress)
	assert.Equal(t, task.StatusCompleted, done.Status)

	res, err := svc.Add(ctx, created.ID, "write changelog")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Progress)

	got, err := tasks.Get(ctx, "ws1", "l1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Progress)
	assert.Equal(t, task.StatusCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)

	second, err := svc.Add(ctx, created.ID, "tag release")
	require.NoError(t, err)
	yes := true
	res, err = svc.Edit(ctx, created.ID, second.Item.ID, checklist.Edit{IsDone: &yes})
	require.NoError(t, err)
	assert.Equal(t, 50, res.Progress)

	// Removing every item goes back to zero, not to 100.
	list, err := svc.Items(ctx, created.ID)
	require.NoError(t, err)
	for _, it := range list {
		res, err = svc.Remove(ctx, created.ID, it.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, res.Progress)
}

func TestRecalculateMissingTask(t *testing.T) {
	r := NewRecalculator(checklist.NewMemStore(), task.NewMemStore())
	_, err := r.Recalculate(context.Background(), "ghost")
	require.Error(t, err)
}
