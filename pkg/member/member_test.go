package member

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklane/pkg/apperr"
)

func TestMemStoreRegisterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	a, err := s.Register(ctx, "ws1", "Ann", "ann@example.com", "")
	require.NoError(t, err)
	again, err := s.Register(ctx, "ws1", "Ann B", "ann@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, a.ID, again.ID)

	other, err := s.Register(ctx, "ws2", "Ann", "ann@example.com", "")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, other.ID)

	list, err := s.List(ctx, "ws1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.Get(ctx, "missing")
	assert.True(t, apperr.IsNotFound(err))
}

func TestFindByIDsOmitsUnknown(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	a, _ := s.Register(ctx, "ws1", "Ann", "ann@example.com", "https://img/ann.png")
	b, _ := s.Register(ctx, "ws1", "Ben", "ben@example.com", "")

	got, err := s.FindByIDs(ctx, "ws1", []string{b.ID, "ghost", a.ID, a.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	ids := []string{got[0].ID, got[1].ID}
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	stranger, _ := s.Register(ctx, "ws2", "Cat", "cat@example.com", "")
	scoped, err := s.FindByIDs(ctx, "ws1", []string{a.ID, stranger.ID})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, a.ID, scoped[0].ID)

	empty, err := s.FindByIDs(ctx, "ws1", nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSummary(t *testing.T) {
	m := Member{ID: "m1", WorkspaceID: "ws1", Name: "Ann", Email: "ann@example.com", AvatarURL: "a.png"}
	assert.Equal(t, Summary{ID: "m1", Name: "Ann", Email: "ann@example.com", AvatarURL: "a.png"}, m.Summary())
}

type flakyDirectory struct {
	calls int
	err   error
}

func (f *flakyDirectory) FindByIDs(context.Context, string, []string) ([]Member, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []Member{{ID: "m1"}}, nil
}

func TestBreakerDirectoryOpensAfterFailures(t *testing.T) {
	log, hook := test.NewNullLogger()
	flaky := &flakyDirectory{err: errors.New("connection refused")}
	d := NewBreakerDirectory(flaky, BreakerSettings{MaxRequests: 1, Timeout: time.Minute, ConsecutiveFailures: 2}, log)

	_, err := d.FindByIDs(context.Background(), "ws1", []string{"m1"})
	require.Error(t, err)
	assert.Equal(t, gobreaker.StateClosed.String(), d.State())

	_, err = d.FindByIDs(context.Background(), "ws1", []string{"m1"})
	require.Error(t, err)
	assert.Equal(t, gobreaker.StateOpen.String(), d.State(), "opens on the configured failure count")
	assert.NotEmpty(t, hook.AllEntries())

	_, err = d.FindByIDs(context.Background(), "ws1", []string{"m1"})
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, 2, flaky.calls)
}

func TestBreakerDirectoryDefaultThreshold(t *testing.T) {
	log, _ := test.NewNullLogger()
	flaky := &flakyDirectory{err: errors.New("connection refused")}
	d := NewBreakerDirectory(flaky, BreakerSettings{Timeout: time.Minute}, log)

	for i := 0; i < 2; i++ {
		_, err := d.FindByIDs(context.Background(), "ws1", []string{"m1"})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateClosed.String(), d.State())
	_, err := d.FindByIDs(context.Background(), "ws1", []string{"m1"})
	require.Error(t, err)
	assert.Equal(t, gobreaker.StateOpen.String(), d.State())
}

func TestBreakerDirectoryPassesThrough(t *testing.T) {
	log, _ := test.NewNullLogger()
	d := NewBreakerDirectory(&flakyDirectory{}, BreakerSettings{Timeout: time.Minute}, log)
	got, err := d.FindByIDs(context.Background(), "ws1", []string{"m1"})
	require.NoError(t, err)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, gobreaker.StateClosed.String(), d.State())
}

func TestBreakerIgnoresCanceledCallers(t *testing.T) {
	log, _ := test.NewNullLogger()
	flaky := &flakyDirectory{err: context.Canceled}
	d := NewBreakerDirectory(flaky, BreakerSettings{Timeout: time.Minute, ConsecutiveFailures: 1}, log)
	for i := 0; i < 5; i++ {
		_, err := d.FindByIDs(context.Background(), "ws1", nil)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed.String(), d.State())
}
