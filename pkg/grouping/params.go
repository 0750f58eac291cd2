package grouping

import (
	"net/url"
	"strconv"
	"strings"

	"worklane/pkg/apperr"
	"worklane/pkg/duebucket"
	"worklane/pkg/task"
)

// UnassignedKey is both the assignee filter sentinel and the priority group
// holding tasks without a priority.
const UnassignedKey = "unassigned"

// noPriority is the priority filter sentinel for unset priority.
const noPriority = "none"

// Filter narrows a single-list query. Zero values do not filter.
type Filter struct {
	AssigneeID string
	Unassigned bool
	Me         bool
	Statuses   []task.Status
	Priorities []task.Priority
	NoPriority bool
	Due        duebucket.Bucket
	Page       int
	Limit      int
}

// GroupFilter narrows every group of a grouped query.
type GroupFilter struct {
	Me bool
	// Day restricts due-date groups to one calendar day (YYYY-MM-DD).
	Day string
}

// ParseFilter reads a Filter from query parameters:
// assignee, me, status, priority, due, page, limit.
// Status and priority accept comma-separated values.
func ParseFilter(v url.Values) (Filter, error) {
	var f Filter
	var err error

	if f.Me, err = parseBool(v, "me"); err != nil {
		return f, err
	}
	switch a := strings.TrimSpace(v.Get("assignee")); {
	case a == "":
	case f.Me:
		return f, apperr.BadRequest("assignee and me cannot be combined")
	case a == UnassignedKey:
		f.Unassigned = true
	default:
		f.AssigneeID = a
	}

	for _, s := range splitList(v.Get("status")) {
		st, err := task.ParseStatus(s)
		if err != nil {
			return f, apperr.BadRequest("%v", err)
		}
		f.Statuses = append(f.Statuses, st)
	}
	for _, s := range splitList(v.Get("priority")) {
		if s == noPriority {
			f.NoPriority = true
			continue
		}
		p, err := task.ParsePriority(s)
		if err != nil {
			return f, apperr.BadRequest("%v", err)
		}
		f.Priorities = append(f.Priorities, p)
	}
	if d := strings.TrimSpace(v.Get("due")); d != "" {
		if f.Due, err = duebucket.Parse(d); err != nil {
			return f, apperr.BadRequest("%v", err)
		}
	}
	if f.Page, err = parsePositive(v, "page"); err != nil {
		return f, err
	}
	if f.Limit, err = parsePositive(v, "limit"); err != nil {
		return f, err
	}
	return f, nil
}

// ParseGroupFilter reads a GroupFilter from the me and day parameters.
func ParseGroupFilter(v url.Values) (GroupFilter, error) {
	var f GroupFilter
	var err error
	if f.Me, err = parseBool(v, "me"); err != nil {
		return f, err
	}
	f.Day = strings.TrimSpace(v.Get("day"))
	return f, nil
}

func parseBool(v url.Values, key string) (bool, error) {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, apperr.BadRequest("%s must be a boolean", key)
	}
	return b, nil
}

func parsePositive(v url.Values, key string) (int, error) {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, apperr.BadRequest("%s must be a positive integer", key)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
