package participation

import (
	"context"
	"fmt"

	"worklane/pkg/apperr"
)

// Scope is the identity surface every operation carries: who is acting, in
// which workspace, against which space or list.
type Scope struct {
	WorkspaceID string
	SpaceID     string
	ListID      string
	MemberID    string
}

// Standing is the result of a successful gate check.
type Standing struct {
	Space       *Space
	List        *List
	Participant *Participant
}

// IsAdmin reports whether the participant administers the space.
func (s *Standing) IsAdmin() bool {
	return s != nil && s.Participant != nil && s.Participant.Permissions == Admin
}

// Gate verifies that a member actively participates in the target space.
type Gate struct {
	store Store
}

// NewGate creates a Gate over store.
func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// Check resolves the space (directly or through the list) and the acting
// member's active participation. It has no side effects.
func (g *Gate) Check(ctx context.Context, sc Scope) (*Standing, error) {
	if sc.MemberID == "" {
		return nil, apperr.Forbidden("no acting member")
	}

	var (
		space *Space
		list  *List
		err   error
	)
	switch {
	case sc.SpaceID != "":
		space, err = g.store.FindSpace(ctx, sc.SpaceID)
		if err != nil {
			return nil, fmt.Errorf("find space %s: %w", sc.SpaceID, err)
		}
		if space == nil {
			return nil, apperr.NotFound("space %s", sc.SpaceID)
		}
		if sc.ListID != "" {
			list, err = g.findList(ctx, sc.ListID)
			if err != nil {
				return nil, err
			}
			if list.SpaceID != space.ID {
				return nil, apperr.NotFound("list %s in space %s", sc.ListID, sc.SpaceID)
			}
		}
	case sc.ListID != "":
		list, err = g.findList(ctx, sc.ListID)
		if err != nil {
			return nil, err
		}
		space, err = g.store.FindSpace(ctx, list.SpaceID)
		if err != nil {
			return nil, fmt.Errorf("find space %s: %w", list.SpaceID, err)
		}
		if space == nil {
			return nil, apperr.NotFound("space %s", list.SpaceID)
		}
	default:
		return nil, apperr.BadRequest("spaceId or listId is required")
	}

	if space.WorkspaceID != sc.WorkspaceID {
		return nil, apperr.NotFound("space %s", space.ID)
	}

	p, err := g.store.FindActiveParticipant(ctx, space.ID, sc.MemberID, sc.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("find participant %s in space %s: %w", sc.MemberID, space.ID, err)
	}
	if p == nil {
		return nil, apperr.Forbidden("member %s does not participate in space %s", sc.MemberID, space.ID)
	}
	return &Standing{Space: space, List: list, Participant: p}, nil
}

func (g *Gate) findList(ctx context.Context, listID string) (*List, error) {
	list, err := g.store.FindList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("find list %s: %w", listID, err)
	}
	if list == nil {
		return nil, apperr.NotFound("list %s", listID)
	}
	return list, nil
}

type standingKey struct{}

// WithStanding returns a context carrying st.
func WithStanding(ctx context.Context, st *Standing) context.Context {
	return context.WithValue(ctx, standingKey{}, st)
}

// FromContext returns the standing attached by a successful gate check.
func FromContext(ctx context.Context) (*Standing, bool) {
	st, ok := ctx.Value(standingKey{}).(*Standing)
	return st, ok && st != nil
}

// Authorize runs the gate and returns a context carrying the standing.
func (g *Gate) Authorize(ctx context.Context, sc Scope) (context.Context, *Standing, error) {
	st, err := g.Check(ctx, sc)
	if err != nil {
		return ctx, nil, err
	}
	return WithStanding(ctx, st), st, nil
}
