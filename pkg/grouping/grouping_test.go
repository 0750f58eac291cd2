package grouping

import (
	"context"
	"errors"
	"math"
	"net/url"
	"slices"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklane/pkg/apperr"
	"worklane/pkg/duebucket"
	"worklane/pkg/member"
	"worklane/pkg/task"
)

// Wednesday.
var now = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

var tg = Target{WorkspaceID: "ws1", ListID: "l1", MemberID: "me"}

type countingDirectory struct {
	member.Directory
	calls int
	asked [][]string
}

func (d *countingDirectory) FindByIDs(ctx context.Context, workspaceID string, ids []string) ([]member.Member, error) {
	d.calls++
	d.asked = append(d.asked, ids)
	return d.Directory.FindByIDs(ctx, workspaceID, ids)
}

type harness struct {
	tasks   *task.MemStore
	members *member.MemStore
	dir     *countingDirectory
	svc     *Service
	seq     int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log, _ := test.NewNullLogger()
	h := &harness{tasks: task.NewMemStore(), members: member.NewMemStore()}
	h.dir = &countingDirectory{Directory: h.members}
	h.svc = NewService(h.tasks, h.dir, Settings{}, log)
	return h
}

type opt func(*task.Task)

func withPriority(p task.Priority) opt { return func(t *task.Task) { t.Priority = &p } }
func withDue(d time.Time) opt {
	return func(t *task.Task) {
		t.Timeframe = &task.Timeframe{End: &d}
		t.DueDate = &d
	}
}
func withAssignees(ids ...string) opt { return func(t *task.Task) { t.AssigneeIDs = task.NewIDSet(ids...) } }
func withStatus(s task.Status) opt    { return func(t *task.Task) { t.Status = s } }
func inList(id string) opt            { return func(t *task.Task) { t.ListID = id } }

func (h *harness) add(t *testing.T, name string, opts ...opt) *task.Task {
	t.Helper()
	h.seq++
	tk := task.New(task.CreateInput{Name: name}, "ws1", "sp1", "l1", "me", now)
	tk.CreatedAt = now.Add(time.Duration(h.seq) * time.Minute)
	for _, o := range opts {
		o(tk)
	}
	created, err := h.tasks.Create(context.Background(), tk)
	require.NoError(t, err)
	return created
}

func names(views []TaskView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.Name
	}
	return out
}

func TestListWithoutDueDateOnlyInNoneBucket(t *testing.T) {
	h := newHarness(t)
	h.add(t, "undated")

	for _, b := range duebucket.All {
		page, err := h.svc.List(context.Background(), tg, Filter{Due: b}, now)
		require.NoError(t, err)
		if b == duebucket.None {
			assert.Equal(t, []string{"undated"}, names(page.Tasks), b)
		} else {
			assert.Empty(t, page.Tasks, b)
		}
	}
}

func TestListSeparatesEndOfTodayFromStartOfTomorrow(t *testing.T) {
	h := newHarness(t)
	h.add(t, "late today", withDue(time.Date(2025, 3, 12, 23, 59, 59, 0, time.UTC)))
	h.add(t, "tomorrow morning", withDue(time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)))

	today, err := h.svc.List(context.Background(), tg, Filter{Due: duebucket.Today}, now)
	require.NoError(t, err)
	tomorrow, err := h.svc.List(context.Background(), tg, Filter{Due: duebucket.Tomorrow}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"late today"}, names(today.Tasks))
	assert.Equal(t, []string{"tomorrow morning"}, names(tomorrow.Tasks))
}

func TestListFiltersAndOrder(t *testing.T) {
	h := newHarness(t)
	h.add(t, "a", withAssignees("me"), withStatus(task.StatusTodo))
	h.add(t, "b", withAssignees("other"), withStatus(task.StatusInProgress), withPriority(task.PriorityHigh))
	h.add(t, "c", withStatus(task.StatusInProgress))
	h.add(t, "d", withAssignees("me", "other"), withPriority(task.PriorityLow))
	h.add(t, "elsewhere", inList("l2"))

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all newest first", Filter{}, []string{"d", "c", "b", "a"}},
		{"me", Filter{Me: true}, []string{"d", "a"}},
		{"assignee", Filter{AssigneeID: "other"}, []string{"d", "b"}},
		{"unassigned", Filter{Unassigned: true}, []string{"c"}},
		{"status", Filter{Statuses: []task.Status{task.StatusInProgress}}, []string{"c", "b"}},
		{"priority none", Filter{NoPriority: true}, []string{"c", "a"}},
		{"priority or none", Filter{NoPriority: true, Priorities: []task.Priority{task.PriorityHigh}}, []string{"c", "b", "a"}},
		{"combined", Filter{Me: true, Priorities: []task.Priority{task.PriorityLow}}, []string{"d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := h.svc.List(context.Background(), tg, tt.filter, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(page.Tasks))
		})
	}
}

func TestListPaging(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 5; i++ {
		h.add(t, string(rune('a'+i)))
	}
	p1, err := h.svc.List(context.Background(), tg, Filter{Page: 1, Limit: 2}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "d"}, names(p1.Tasks))
	assert.True(t, p1.HasMore)

	p3, err := h.svc.List(context.Background(), tg, Filter{Page: 3, Limit: 2}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names(p3.Tasks))
	assert.False(t, p3.HasMore)

	p9, err := h.svc.List(context.Background(), tg, Filter{Page: 9, Limit: 2}, now)
	require.NoError(t, err)
	assert.NotNil(t, p9.Tasks)
	assert.Empty(t, p9.Tasks)

	def, err := h.svc.List(context.Background(), tg, Filter{Limit: 1000}, now)
	require.NoError(t, err)
	assert.Equal(t, 100, def.Limit)
	assert.Equal(t, 1, def.Page)
}

func TestListRejectsPageBeyondOffsetRange(t *testing.T) {
	h := newHarness(t)
	h.add(t, "a")

	f, err := ParseFilter(url.Values{"page": {strconv.Itoa(math.MaxInt)}, "limit": {"50"}})
	require.NoError(t, err)
	_, err = h.svc.List(context.Background(), tg, f, now)
	require.Error(t, err)
	assert.True(t, apperr.IsBadRequest(err))

	// Largest page whose offset still fits.
	_, err = h.svc.List(context.Background(), tg, Filter{Page: math.MaxInt/50 + 1, Limit: 50}, now)
	require.NoError(t, err)
}

func TestByPriorityCountsEveryGroup(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 3; i++ {
		h.add(t, "urgent", withPriority(task.PriorityUrgent))
	}
	h.add(t, "unset")

	groups, err := h.svc.ByPriority(context.Background(), tg, GroupFilter{})
	require.NoError(t, err)
	counts := map[string]int{}
	for k, g := range groups {
		counts[k] = g.Count
		assert.Len(t, g.Tasks, g.Count)
	}
	assert.Equal(t, map[string]int{"urgent": 3, "high": 0, "normal": 0, "low": 0, "unassigned": 1}, counts)
	assert.NotNil(t, groups["high"].Tasks)
}

func TestGroupCountExceedsCap(t *testing.T) {
	h := newHarness(t)
	log, _ := test.NewNullLogger()
	h.svc = NewService(h.tasks, h.dir, Settings{GroupLimit: 2}, log)
	for i := 0; i < 5; i++ {
		h.add(t, string(rune('a'+i)), withPriority(task.PriorityNormal))
	}
	groups, err := h.svc.ByPriority(context.Background(), tg, GroupFilter{})
	require.NoError(t, err)
	assert.Equal(t, 5, groups["normal"].Count)
	assert.Equal(t, []string{"e", "d"}, names(groups["normal"].Tasks))
}

func TestByDueDate(t *testing.T) {
	h := newHarness(t)
	h.add(t, "overdue", withDue(now.AddDate(0, 0, -3)))
	h.add(t, "today", withDue(now.Add(time.Hour)), withAssignees("me"))
	h.add(t, "tomorrow", withDue(now.AddDate(0, 0, 1)))
	h.add(t, "friday", withDue(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)))
	h.add(t, "next week", withDue(time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)))
	h.add(t, "undated")

	groups, err := h.svc.ByDueDate(context.Background(), tg, GroupFilter{}, now)
	require.NoError(t, err)
	require.Len(t, groups, 6)
	assert.Equal(t, []string{"overdue"}, names(groups["overdue"].Tasks))
	assert.Equal(t, []string{"today"}, names(groups["today"].Tasks))
	assert.Equal(t, []string{"tomorrow"}, names(groups["tomorrow"].Tasks))
	assert.Equal(t, []string{"friday"}, names(groups["this_week"].Tasks))
	assert.Equal(t, []string{"next week"}, names(groups["later"].Tasks))
	assert.Equal(t, []string{"undated"}, names(groups["none"].Tasks))

	mine, err := h.svc.ByDueDate(context.Background(), tg, GroupFilter{Me: true}, now)
	require.NoError(t, err)
	total := 0
	for _, g := range mine {
		total += g.Count
	}
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, mine["today"].Count)

	friday, err := h.svc.ByDueDate(context.Background(), tg, GroupFilter{Day: "2025-03-14"}, now)
	require.NoError(t, err)
	for key, g := range friday {
		if key == "this_week" {
			assert.Equal(t, 1, g.Count)
		} else {
			assert.Zero(t, g.Count, key)
		}
	}

	_, err = h.svc.ByDueDate(context.Background(), tg, GroupFilter{Day: "14/03/2025"}, now)
	assert.True(t, apperr.IsBadRequest(err))
}

type failingStore struct {
	*task.MemStore
}

func (s failingStore) Count(ctx context.Context, q task.Query) (int, error) {
	if slices.Contains(q.Priorities, task.PriorityHigh) {
		return 0, errors.New("replica unavailable")
	}
	return s.MemStore.Count(ctx, q)
}

func TestGroupFailureAbortsWholeResult(t *testing.T) {
	h := newHarness(t)
	h.add(t, "urgent", withPriority(task.PriorityUrgent))
	log, _ := test.NewNullLogger()
	svc := NewService(failingStore{h.tasks}, h.dir, Settings{}, log)

	groups, err := svc.ByPriority(context.Background(), tg, GroupFilter{})
	require.Error(t, err)
	assert.Nil(t, groups)
	assert.Contains(t, err.Error(), "group high")
	assert.Zero(t, h.dir.calls)
}

func TestEnrichUsesOneLookup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ann, _ := h.members.Register(ctx, "ws1", "Ann", "ann@example.com", "")
	ben, _ := h.members.Register(ctx, "ws1", "Ben", "ben@example.com", "")
	h.add(t, "pair", withAssignees(ann.ID, ben.ID))
	h.add(t, "solo", withAssignees(ann.ID, "departed"))
	h.add(t, "nobody")

	page, err := h.svc.List(ctx, tg, Filter{}, now)
	require.NoError(t, err)
	assert.Equal(t, 1, h.dir.calls)
	assert.ElementsMatch(t, []string{ann.ID, ben.ID, "departed"}, h.dir.asked[0])

	byName := map[string]TaskView{}
	for _, v := range page.Tasks {
		byName[v.Name] = v
	}
	assert.Len(t, byName["pair"].Assignees, 2)
	assert.Equal(t, []member.Summary{ann.Summary()}, byName["solo"].Assignees)
	assert.NotNil(t, byName["nobody"].Assignees)
	assert.Empty(t, byName["nobody"].Assignees)

	// No assignees anywhere, no lookup at all.
	h2 := newHarness(t)
	h2.add(t, "nobody")
	_, err = h2.svc.ByPriority(ctx, tg, GroupFilter{})
	require.NoError(t, err)
	assert.Zero(t, h2.dir.calls)
}

func TestEnrichOmitsMembersOfOtherWorkspaces(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ann, _ := h.members.Register(ctx, "ws1", "Ann", "ann@example.com", "")
	outsider, _ := h.members.Register(ctx, "ws2", "Oz", "oz@example.com", "")
	h.add(t, "mixed", withAssignees(ann.ID, outsider.ID))

	page, err := h.svc.List(ctx, tg, Filter{}, now)
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, []member.Summary{ann.Summary()}, page.Tasks[0].Assignees)

	groups, err := h.svc.ByPriority(ctx, tg, GroupFilter{})
	require.NoError(t, err)
	for _, g := range groups {
		for _, v := range g.Tasks {
			assert.Equal(t, []member.Summary{ann.Summary()}, v.Assignees)
		}
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(url.Values{
		"assignee": {"unassigned"},
		"status":   {"todo, in_progress"},
		"priority": {"urgent,none"},
		"due":      {"this_week"},
		"page":     {"2"},
		"limit":    {"10"},
	})
	require.NoError(t, err)
	assert.True(t, f.Unassigned)
	assert.Equal(t, []task.Status{task.StatusTodo, task.StatusInProgress}, f.Statuses)
	assert.Equal(t, []task.Priority{task.PriorityUrgent}, f.Priorities)
	assert.True(t, f.NoPriority)
	assert.Equal(t, duebucket.ThisWeek, f.Due)
	assert.Equal(t, 2, f.Page)
	assert.Equal(t, 10, f.Limit)

	bad := []url.Values{
		{"status": {"done"}},
		{"priority": {"critical"}},
		{"due": {"someday"}},
		{"page": {"0"}},
		{"limit": {"ten"}},
		{"me": {"maybe"}},
		{"me": {"true"}, "assignee": {"m1"}},
	}
	for _, v := range bad {
		_, err := ParseFilter(v)
		assert.True(t, apperr.IsBadRequest(err), "%v", v)
	}

	gf, err := ParseGroupFilter(url.Values{"me": {"1"}, "day": {"2025-03-14"}})
	require.NoError(t, err)
	assert.Equal(t, GroupFilter{Me: true, Day: "2025-03-14"}, gf)
}
