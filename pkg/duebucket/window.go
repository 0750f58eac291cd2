package duebucket

import "time"

// Window is a half-open due-date range [From, To) used by store queries.
// A nil bound is unbounded. NoDue selects tasks without a due date and
// Empty selects nothing at all.
type Window struct {
	From  *time.Time
	To    *time.Time
	NoDue bool
	Empty bool
}

// Contains reports whether a task with the given due date falls inside w.
func (w Window) Contains(due *time.Time) bool {
	if w.Empty {
		return false
	}
	if w.NoDue {
		return due == nil
	}
	if due == nil {
		return false
	}
	if w.From != nil && due.Before(*w.From) {
		return false
	}
	if w.To != nil && !due.Before(*w.To) {
		return false
	}
	return true
}

// Intersect narrows w by other.
func (w Window) Intersect(other Window) Window {
	if w.Empty || other.Empty {
		return Window{Empty: true}
	}
	if w.NoDue || other.NoDue {
		if w.NoDue && other.NoDue {
			return Window{NoDue: true}
		}
		return Window{Empty: true}
	}
	out := Window{From: w.From, To: w.To}
	if other.From != nil && (out.From == nil || other.From.After(*out.From)) {
		out.From = other.From
	}
	if other.To != nil && (out.To == nil || other.To.Before(*out.To)) {
		out.To = other.To
	}
	if out.From != nil && out.To != nil && !out.From.Before(*out.To) {
		return Window{Empty: true}
	}
	return out
}
