package checklist

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklane/pkg/apperr"
)

type recordingRecalc struct {
	calls []string
	err   error
	store *MemStore
}

func (r *recordingRecalc) Recalculate(ctx context.Context, taskID string) (int, error) {
	r.calls = append(r.calls, taskID)
	if r.err != nil {
		return 0, r.err
	}
	c, _ := r.store.CountByTask(ctx, taskID)
	if c.Total == 0 {
		return 0, nil
	}
	return c.Done * 100 / c.Total, nil
}

func newService() (*Service, *MemStore, *recordingRecalc) {
	store := NewMemStore()
	rec := &recordingRecalc{store: store}
	return NewService(store, rec), store, rec
}

func TestServiceTriggersRecalculationOnEveryMutation(t *testing.T) {
	ctx := context.Background()
	svc, _, rec := newService()

	a, err := svc.Add(ctx, "t1", "  write tests ")
	require.NoError(t, err)
	assert.Equal(t, "write tests", a.Item.Title)
	assert.Equal(t, 0, a.Progress)

	b, err := svc.Add(ctx, "t1", "ship")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Item.Position)

	done := true
	res, err := svc.Edit(ctx, "t1", a.Item.ID, Edit{IsDone: &done})
	require.NoError(t, err)
	assert.True(t, res.Item.IsDone)
	assert.Equal(t, 50, res.Progress)

	res, err = svc.Remove(ctx, "t1", b.Item.ID)
	require.NoError(t, err)
	assert.Nil(t, res.Item)
	assert.Equal(t, 100, res.Progress)

	assert.Equal(t, []string{"t1", "t1", "t1", "t1"}, rec.calls)
}

func TestServiceRejectsItemsOfOtherTasks(t *testing.T) {
	ctx := context.Background()
	svc, _, rec := newService()
	a, err := svc.Add(ctx, "t1", "item")
	require.NoError(t, err)

	done := true
	_, err = svc.Edit(ctx, "t2", a.Item.ID, Edit{IsDone: &done})
	assert.True(t, apperr.IsNotFound(err))
	_, err = svc.Remove(ctx, "t2", a.Item.ID)
	assert.True(t, apperr.IsNotFound(err))
	_, err = svc.Remove(ctx, "t1", "missing")
	assert.True(t, apperr.IsNotFound(err))
	assert.Len(t, rec.calls, 1)
}

func TestServiceValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, rec := newService()

	_, err := svc.Add(ctx, "t1", "   ")
	assert.True(t, apperr.IsBadRequest(err))
	_, err = svc.Add(ctx, "t1", strings.Repeat("x", MaxTitleLength+1))
	assert.True(t, apperr.IsBadRequest(err))

	a, err := svc.Add(ctx, "t1", "ok")
	require.NoError(t, err)
	_, err = svc.Edit(ctx, "t1", a.Item.ID, Edit{})
	assert.True(t, apperr.IsBadRequest(err))
	assert.Len(t, rec.calls, 1)
}

func TestServiceSurfacesRecalculationFailure(t *testing.T) {
	svc, _, rec := newService()
	rec.err = errors.New("db down")
	_, err := svc.Add(context.Background(), "t1", "item")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestMemStoreCountsAndOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	for _, title := range []string{"a", "b", "c"} {
		_, err := s.Create(ctx, "t1", title)
		require.NoError(t, err)
	}
	_, err := s.Create(ctx, "t2", "other")
	require.NoError(t, err)

	items, err := s.ByTask(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{items[0].Title, items[1].Title, items[2].Title})

	done := true
	_, err = s.Update(ctx, items[1].ID, Edit{IsDone: &done})
	require.NoError(t, err)

	c, err := s.CountByTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, Counts{Done: 1, Total: 3}, c)

	c, err = s.CountByTask(ctx, "none")
	require.NoError(t, err)
	assert.Equal(t, Counts{}, c)

	empty, err := s.ByTask(ctx, "none")
	require.NoError(t, err)
	assert.NotNil(t, empty)
}
