package engine

import (
	"context"

	"worklane/pkg/activity"
	"worklane/pkg/checklist"
	"worklane/pkg/participation"
)

// ChecklistItems lists the checklist of a visible task. Items of deleted
// tasks stay in the store but are not listed.
func (e *Engine) ChecklistItems(ctx context.Context, sc participation.Scope, taskID string) ([]checklist.Item, error) {
	if _, err := e.listStanding(ctx, sc); err != nil {
		return nil, err
	}
	t, err := e.visibleTask(ctx, sc, taskID)
	if err != nil {
		return nil, err
	}
	return e.checklist.Items(ctx, t.ID)
}

// AddChecklistItem appends an item and recomputes the task's progress.
func (e *Engine) AddChecklistItem(ctx context.Context, sc participation.Scope, taskID, title string) (*checklist.Result, error) {
	if _, err := e.listStanding(ctx, sc); err != nil {
		return nil, err
	}
	t, err := e.visibleTask(ctx, sc, taskID)
	if err != nil {
		return nil, err
	}
	res, err := e.checklist.Add(ctx, t.ID, title)
	if err != nil {
		return nil, err
	}
	e.record(ctx, sc, activity.ChecklistAdded, t.ID, map[string]any{
		"itemId":   res.Item.ID,
		"title":    res.Item.Title,
		"progress": res.Progress,
	})
	return res, nil
}

// UpdateChecklistItem renames or toggles an item and recomputes progress.
func (e *Engine) UpdateChecklistItem(ctx context.Context, sc participation.Scope, taskID, itemID string, edit checklist.Edit) (*checklist.Result, error) {
	if _, err := e.listStanding(ctx, sc); err != nil {
		return nil, err
	}
	t, err := e.visibleTask(ctx, sc, taskID)
	if err != nil {
		return nil, err
	}
	res, err := e.checklist.Edit(ctx, t.ID, itemID, edit)
	if err != nil {
		return nil, err
	}
	e.record(ctx, sc, activity.ChecklistUpdated, t.ID, map[string]any{
		"itemId":   res.Item.ID,
		"isDone":   res.Item.IsDone,
		"progress": res.Progress,
	})
	return res, nil
}

// DeleteChecklistItem removes an item and recomputes progress.
func (e *Engine) DeleteChecklistItem(ctx context.Context, sc participation.Scope, taskID, itemID string) (*checklist.Result, error) {
	if _, err := e.listStanding(ctx, sc); err != nil {
		return nil, err
	}
	t, err := e.visibleTask(ctx, sc, taskID)
	if err != nil {
		return nil, err
	}
	res, err := e.checklist.Remove(ctx, t.ID, itemID)
	if err != nil {
		return nil, err
	}
	e.record(ctx, sc, activity.ChecklistRemoved, t.ID, map[string]any{
		"itemId":   itemID,
		"progress": res.Progress,
	})
	return res, nil
}
