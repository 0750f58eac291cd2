// Package grouping answers filtered, paginated and grouped task queries for
// one list and enriches the results with assignee summaries.
package grouping

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"worklane/pkg/apperr"
	"worklane/pkg/duebucket"
	"worklane/pkg/member"
	"worklane/pkg/task"
)

// Settings bounds query sizes and fan-out.
type Settings struct {
	GroupLimit      int
	DefaultPageSize int
	MaxPageSize     int
	Parallelism     int
}

// DefaultSettings returns the production defaults.
func DefaultSettings() Settings {
	return Settings{GroupLimit: 50, DefaultPageSize: 20, MaxPageSize: 100, Parallelism: 4}
}

// Target is the list being queried and the member asking.
type Target struct {
	WorkspaceID string
	ListID      string
	MemberID    string
}

// TaskView is a task with its assignees resolved.
type TaskView struct {
	task.Task
	Assignees []member.Summary `json:"assignees"`
}

// Page is one page of a filtered query.
type Page struct {
	Tasks   []TaskView `json:"tasks"`
	Page    int        `json:"page"`
	Limit   int        `json:"limit"`
	HasMore bool       `json:"hasMore"`
}

// Group is one bucket of a grouped query. Count is the number of matching
// tasks, Tasks at most the most recent Settings.GroupLimit of them.
type Group struct {
	Count int        `json:"count"`
	Tasks []TaskView `json:"tasks"`
}

// Groups maps group keys to groups. Every key of the dimension is present.
type Groups map[string]Group

// Service runs task queries against a store.
type Service struct {
	tasks    task.Store
	members  member.Directory
	settings Settings
	log      logrus.FieldLogger
}

// NewService creates a Service. Zero settings fall back to defaults.
func NewService(tasks task.Store, members member.Directory, settings Settings, log logrus.FieldLogger) *Service {
	def := DefaultSettings()
	if settings.GroupLimit <= 0 {
		settings.GroupLimit = def.GroupLimit
	}
	if settings.DefaultPageSize <= 0 {
		settings.DefaultPageSize = def.DefaultPageSize
	}
	if settings.MaxPageSize <= 0 {
		settings.MaxPageSize = def.MaxPageSize
	}
	if settings.Parallelism <= 0 {
		settings.Parallelism = def.Parallelism
	}
	return &Service{tasks: tasks, members: members, settings: settings, log: log}
}

// List runs a single-list filtered query, newest first.
func (s *Service) List(ctx context.Context, tg Target, f Filter, now time.Time) (*Page, error) {
	q := s.baseQuery(tg, f.Me)
	if f.AssigneeID != "" {
		q.AssigneeID = f.AssigneeID
	}
	q.Unassigned = f.Unassigned
	q.Statuses = f.Statuses
	q.Priorities = f.Priorities
	q.NoPriority = f.NoPriority
	if f.Due != "" {
		w := duebucket.WindowFor(f.Due, now)
		q.Due = &w
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = s.settings.DefaultPageSize
	}
	if limit > s.settings.MaxPageSize {
		limit = s.settings.MaxPageSize
	}
	if page-1 > math.MaxInt/limit {
		return nil, apperr.BadRequest("page %d is out of range", page)
	}
	q.Offset = (page - 1) * limit
	q.Limit = limit + 1

	found, err := s.tasks.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tasks of %s: %w", tg.ListID, err)
	}
	hasMore := len(found) > limit
	if hasMore {
		found = found[:limit]
	}
	views, err := s.Enrich(ctx, tg.WorkspaceID, found)
	if err != nil {
		return nil, err
	}
	return &Page{Tasks: views, Page: page, Limit: limit, HasMore: hasMore}, nil
}

// ByPriority groups the list's tasks by priority. Tasks without a priority
// land under UnassignedKey.
func (s *Service) ByPriority(ctx context.Context, tg Target, f GroupFilter) (Groups, error) {
	keys := make([]string, 0, len(task.Priorities)+1)
	queries := make([]task.Query, 0, len(task.Priorities)+1)
	for _, p := range task.Priorities {
		q := s.baseQuery(tg, f.Me)
		q.Priorities = []task.Priority{p}
		keys = append(keys, string(p))
		queries = append(queries, q)
	}
	q := s.baseQuery(tg, f.Me)
	q.NoPriority = true
	keys = append(keys, UnassignedKey)
	queries = append(queries, q)

	return s.fanOut(ctx, tg.WorkspaceID, keys, queries)
}

// ByDueDate groups the list's tasks into the six due buckets relative to now.
func (s *Service) ByDueDate(ctx context.Context, tg Target, f GroupFilter, now time.Time) (Groups, error) {
	var day *duebucket.Window
	if f.Day != "" {
		w, err := duebucket.Day(f.Day, now.Location())
		if err != nil {
			return nil, apperr.BadRequest("%v", err)
		}
		day = &w
	}

	keys := make([]string, 0, len(duebucket.All))
	queries := make([]task.Query, 0, len(duebucket.All))
	for _, b := range duebucket.All {
		w := duebucket.WindowFor(b, now)
		if day != nil {
			w = w.Intersect(*day)
		}
		q := s.baseQuery(tg, f.Me)
		q.Due = &w
		keys = append(keys, string(b))
		queries = append(queries, q)
	}
	return s.fanOut(ctx, tg.WorkspaceID, keys, queries)
}

// Enrich resolves every assignee of tasks with one directory lookup scoped
// to workspaceID.
func (s *Service) Enrich(ctx context.Context, workspaceID string, tasks []task.Task) ([]TaskView, error) {
	views := make([]TaskView, len(tasks))
	var union []string
	for i := range tasks {
		union = append(union, tasks[i].AssigneeIDs...)
	}
	ids := task.NewIDSet(union...)

	byID := make(map[string]member.Summary, ids.Len())
	if ids.Len() > 0 {
		found, err := s.members.FindByIDs(ctx, workspaceID, ids.Strings())
		if err != nil {
			return nil, fmt.Errorf("resolve assignees: %w", err)
		}
		for _, m := range found {
			byID[m.ID] = m.Summary()
		}
		if len(found) < ids.Len() {
			s.log.WithField("missing", ids.Len()-len(found)).Debug("assignees not in directory")
		}
	}

	for i := range tasks {
		assignees := make([]member.Summary, 0, tasks[i].AssigneeIDs.Len())
		for _, id := range tasks[i].AssigneeIDs {
			if m, ok := byID[id]; ok {
				assignees = append(assignees, m)
			}
		}
		views[i] = TaskView{Task: tasks[i], Assignees: assignees}
	}
	return views, nil
}

func (s *Service) baseQuery(tg Target, me bool) task.Query {
	q := task.Query{WorkspaceID: tg.WorkspaceID, ListID: tg.ListID}
	if me {
		q.AssigneeID = tg.MemberID
	}
	return q
}

type groupResult struct {
	count int
	tasks []task.Task
}

// fanOut runs one find and one count per group. Any failure aborts the
// whole result.
func (s *Service) fanOut(ctx context.Context, workspaceID string, keys []string, queries []task.Query) (Groups, error) {
	results := make([]groupResult, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.Parallelism)
	for i, q := range queries {
		g.Go(func() error {
			q.Limit = s.settings.GroupLimit
			found, err := s.tasks.Find(gctx, q)
			if err != nil {
				return fmt.Errorf("group %s: %w", keys[i], err)
			}
			n, err := s.tasks.Count(gctx, q)
			if err != nil {
				return fmt.Errorf("group %s: %w", keys[i], err)
			}
			results[i] = groupResult{count: n, tasks: found}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []task.Task
	for _, r := range results {
		all = append(all, r.tasks...)
	}
	views, err := s.Enrich(ctx, workspaceID, all)
	if err != nil {
		return nil, err
	}

	groups := make(Groups, len(keys))
	offset := 0
	for i, key := range keys {
		n := len(results[i].tasks)
		groups[key] = Group{Count: results[i].count, Tasks: views[offset : offset+n : offset+n]}
		offset += n
	}
	return groups, nil
}
