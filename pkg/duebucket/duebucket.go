// Package duebucket classifies due timestamps into dashboard buckets
// relative to a caller-supplied "now". Everything here is pure: the same
// (due, now) pair always yields the same bucket.
package duebucket

import (
	"fmt"
	"time"
)

// Bucket is one of the six due-date labels.
type Bucket string

const (
	Overdue  Bucket = "overdue"
	Today    Bucket = "today"
	Tomorrow Bucket = "tomorrow"
	ThisWeek Bucket = "this_week"
	Later    Bucket = "later"
	None     Bucket = "none"
)

// All lists every bucket in display order.
var All = []Bucket{Overdue, Today, Tomorrow, ThisWeek, Later, None}

// Parse converts a raw filter value into a Bucket.
func Parse(s string) (Bucket, error) {
	b := Bucket(s)
	if !b.Valid() {
		return "", fmt.Errorf("unknown due bucket %q", s)
	}
	return b, nil
}

func (b Bucket) Valid() bool {
	switch b {
	case Overdue, Today, Tomorrow, ThisWeek, Later, None:
		return true
	}
	return false
}

// Boundaries are the instants separating buckets, all in now's location.
// WeekEnd is exclusive: it is the start of the Sunday that begins next week,
// so everything up to Saturday 23:59:59.999... belongs to the current week.
type Boundaries struct {
	StartOfToday    time.Time
	StartOfTomorrow time.Time
	StartOfDayAfter time.Time
	WeekEnd         time.Time
}

// Bounds computes the bucket boundaries for now. Weeks start on Sunday and
// the week end is derived from today, not tomorrow.
func Bounds(now time.Time) Boundaries {
	sod := StartOfDay(now)
	daysLeft := 7 - int(sod.Weekday())
	return Boundaries{
		StartOfToday:    sod,
		StartOfTomorrow: sod.AddDate(0, 0, 1),
		StartOfDayAfter: sod.AddDate(0, 0, 2),
		WeekEnd:         sod.AddDate(0, 0, daysLeft),
	}
}

// StartOfDay returns local midnight of t in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Classify returns the bucket for due relative to now. A nil due is None.
func Classify(due *time.Time, now time.Time) Bucket {
	if due == nil {
		return None
	}
	return Bounds(now).Classify(*due)
}

// Classify places a due instant using precomputed boundaries.
func (b Boundaries) Classify(due time.Time) Bucket {
	switch {
	case due.Before(b.StartOfToday):
		return Overdue
	case due.Before(b.StartOfTomorrow):
		return Today
	case due.Before(b.StartOfDayAfter):
		return Tomorrow
	case due.Before(b.WeekEnd):
		return ThisWeek
	default:
		return Later
	}
}

// WindowFor returns the query window matching exactly the tasks Classify
// would put in bucket.
func WindowFor(bucket Bucket, now time.Time) Window {
	b := Bounds(now)
	switch bucket {
	case None:
		return Window{NoDue: true}
	case Overdue:
		return Window{To: ptr(b.StartOfToday)}
	case Today:
		return Window{From: ptr(b.StartOfToday), To: ptr(b.StartOfTomorrow)}
	case Tomorrow:
		return Window{From: ptr(b.StartOfTomorrow), To: ptr(b.StartOfDayAfter)}
	case ThisWeek:
		if !b.StartOfDayAfter.Before(b.WeekEnd) {
			return Window{Empty: true}
		}
		return Window{From: ptr(b.StartOfDayAfter), To: ptr(b.WeekEnd)}
	case Later:
		from := b.WeekEnd
		if from.Before(b.StartOfDayAfter) {
			from = b.StartOfDayAfter
		}
		return Window{From: ptr(from)}
	}
	return Window{Empty: true}
}

// Day returns the window covering one calendar day (YYYY-MM-DD) in loc.
func Day(date string, loc *time.Location) (Window, error) {
	d, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return Window{}, fmt.Errorf("invalid day %q: %w", date, err)
	}
	return Window{From: ptr(d), To: ptr(d.AddDate(0, 0, 1))}, nil
}

func ptr(t time.Time) *time.Time { return &t }
