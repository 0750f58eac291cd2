package engine

import (
	"context"
	"fmt"
	"strings"

	"worklane/pkg/apperr"
	"worklane/pkg/participation"
)

// Lists returns the lists of the scoped space.
func (e *Engine) Lists(ctx context.Context, sc participation.Scope) ([]participation.List, error) {
	st, err := e.standing(ctx, sc)
	if err != nil {
		return nil, err
	}
	lists, err := e.spaces.Lists(ctx, st.Space.ID)
	if err != nil {
		return nil, fmt.Errorf("lists of space %s: %w", st.Space.ID, err)
	}
	return lists, nil
}

// CreateList adds a list to the scoped space. Only space admins may.
func (e *Engine) CreateList(ctx context.Context, sc participation.Scope, name string) (*participation.List, error) {
	st, err := e.standing(ctx, sc)
	if err != nil {
		return nil, err
	}
	if !st.IsAdmin() {
		return nil, apperr.Forbidden("only space admins may create lists")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.BadRequest("name is required")
	}
	l, err := e.spaces.CreateList(ctx, st.Space.ID, name)
	if err != nil {
		return nil, fmt.Errorf("create list in space %s: %w", st.Space.ID, err)
	}
	return l, nil
}
