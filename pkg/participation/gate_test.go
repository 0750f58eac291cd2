package participation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklane/pkg/apperr"
)

type fixture struct {
	store   *MemStore
	gate    *Gate
	space   *Space
	other   *Space
	foreign *Space
	list    *List
	stray   *List
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := NewMemStore()
	f := &fixture{store: s, gate: NewGate(s)}
	var err error
	f.space, err = s.CreateSpace(ctx, "ws1", "engineering")
	require.NoError(t, err)
	f.other, err = s.CreateSpace(ctx, "ws1", "marketing")
	require.NoError(t, err)
	f.foreign, err = s.CreateSpace(ctx, "ws2", "elsewhere")
	require.NoError(t, err)
	f.list, err = s.CreateList(ctx, f.space.ID, "backlog")
	require.NoError(t, err)
	f.stray, err = s.CreateList(ctx, f.other.ID, "campaigns")
	require.NoError(t, err)

	_, err = s.AddParticipant(ctx, f.space.ID, "alice", Admin)
	require.NoError(t, err)
	_, err = s.AddParticipant(ctx, f.space.ID, "bob", Regular)
	require.NoError(t, err)
	return f
}

func TestGateResolvesThroughList(t *testing.T) {
	f := newFixture(t)
	st, err := f.gate.Check(context.Background(), Scope{WorkspaceID: "ws1", ListID: f.list.ID, MemberID: "bob"})
	require.NoError(t, err)
	assert.Equal(t, f.space.ID, st.Space.ID)
	assert.Equal(t, f.list.ID, st.List.ID)
	assert.Equal(t, "bob", st.Participant.MemberID)
	assert.False(t, st.IsAdmin())
}

func TestGateResolvesExplicitSpace(t *testing.T) {
	f := newFixture(t)
	st, err := f.gate.Check(context.Background(), Scope{WorkspaceID: "ws1", SpaceID: f.space.ID, MemberID: "alice"})
	require.NoError(t, err)
	assert.Nil(t, st.List)
	assert.True(t, st.IsAdmin())
}

func TestGateFailures(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name  string
		scope Scope
		want  error
	}{
		{"missing space", Scope{WorkspaceID: "ws1", SpaceID: "nope", MemberID: "bob"}, apperr.ErrNotFound},
		{"missing list", Scope{WorkspaceID: "ws1", ListID: "nope", MemberID: "bob"}, apperr.ErrNotFound},
		{"neither space nor list", Scope{WorkspaceID: "ws1", MemberID: "bob"}, apperr.ErrBadRequest},
		{"list outside space", Scope{WorkspaceID: "ws1", SpaceID: f.space.ID, ListID: f.stray.ID, MemberID: "bob"}, apperr.ErrNotFound},
		{"space of another workspace", Scope{WorkspaceID: "ws1", SpaceID: f.foreign.ID, MemberID: "bob"}, apperr.ErrNotFound},
		{"not a participant", Scope{WorkspaceID: "ws1", ListID: f.list.ID, MemberID: "carol"}, apperr.ErrForbidden},
		{"participant of another space only", Scope{WorkspaceID: "ws1", ListID: f.stray.ID, MemberID: "bob"}, apperr.ErrForbidden},
		{"no member", Scope{WorkspaceID: "ws1", ListID: f.list.ID}, apperr.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := f.gate.Check(context.Background(), tt.scope)
			assert.Nil(t, st)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

// An inactive record is rejected even though the member is active in a
// different space.
func TestGateRejectsInactiveParticipant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.AddParticipant(ctx, f.other.ID, "dave", Regular)
	require.NoError(t, err)
	_, err = f.store.AddParticipant(ctx, f.space.ID, "dave", Regular)
	require.NoError(t, err)
	_, err = f.store.SetParticipantStatus(ctx, f.space.ID, "dave", Inactive)
	require.NoError(t, err)

	_, err = f.gate.Check(ctx, Scope{WorkspaceID: "ws1", ListID: f.list.ID, MemberID: "dave"})
	assert.True(t, apperr.IsForbidden(err), "got %v", err)

	_, err = f.gate.Check(ctx, Scope{WorkspaceID: "ws1", ListID: f.stray.ID, MemberID: "dave"})
	assert.NoError(t, err)

	// Re-adding reactivates.
	_, err = f.store.AddParticipant(ctx, f.space.ID, "dave", Admin)
	require.NoError(t, err)
	st, err := f.gate.Check(ctx, Scope{WorkspaceID: "ws1", ListID: f.list.ID, MemberID: "dave"})
	require.NoError(t, err)
	assert.True(t, st.IsAdmin())
}

func TestAuthorizeAttachesStanding(t *testing.T) {
	f := newFixture(t)
	ctx, st, err := f.gate.Authorize(context.Background(), Scope{WorkspaceID: "ws1", ListID: f.list.ID, MemberID: "bob"})
	require.NoError(t, err)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, st, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
