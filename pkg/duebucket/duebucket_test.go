package duebucket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday 2026-02-25 14:30 UTC.
var wed = time.Date(2026, 2, 25, 14, 30, 0, 0, time.UTC)

func at(day, hour, min, sec int) *time.Time {
	t := time.Date(2026, 2, day, hour, min, sec, 0, time.UTC)
	return &t
}

func TestBounds(t *testing.T) {
	b := Bounds(wed)
	assert.Equal(t, time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC), b.StartOfToday)
	assert.Equal(t, time.Date(2026, 2, 26, 0, 0, 0, 0, time.UTC), b.StartOfTomorrow)
	assert.Equal(t, time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC), b.StartOfDayAfter)
	// Sunday 2026-03-01 starts the next week.
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), b.WeekEnd)
}

func TestClassify(t *testing.T) {
	sunday := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		due  *time.Time
		want Bucket
	}{
		{"no due date", nil, None},
		{"yesterday", at(24, 23, 59, 59), Overdue},
		{"start of today", at(25, 0, 0, 0), Today},
		{"earlier today", at(25, 9, 0, 0), Today},
		{"end of today", at(25, 23, 59, 59), Today},
		{"start of tomorrow", at(26, 0, 0, 0), Tomorrow},
		{"end of tomorrow", at(26, 23, 59, 59), Tomorrow},
		{"seam tomorrow/this week", at(27, 0, 0, 0), ThisWeek},
		{"saturday night", at(28, 23, 59, 59), ThisWeek},
		{"next sunday", &sunday, Later},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.due, wed))
		})
	}
}

func TestClassifyEndOfWeekDays(t *testing.T) {
	// Friday: tomorrow is Saturday, so this_week is empty and Sunday is later.
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, Tomorrow, Classify(at(28, 12, 0, 0), fri))
	sunday := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, Later, Classify(&sunday, fri))
	assert.True(t, WindowFor(ThisWeek, fri).Empty)

	// Saturday: tomorrow already belongs to the next week.
	sat := time.Date(2026, 2, 28, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, Tomorrow, Classify(&sunday, sat))
	monday := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, Later, Classify(&monday, sat))
}

// Every instant lands in exactly one bucket window, and that window agrees
// with Classify.
func TestWindowsPartition(t *testing.T) {
	nows := []time.Time{
		wed,
		time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC), // friday
		time.Date(2026, 2, 28, 23, 0, 0, 0, time.UTC), // saturday
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),   // sunday midnight
	}
	for _, now := range nows {
		start := StartOfDay(now).AddDate(0, 0, -3)
		for h := 0; h < 24*14; h++ {
			due := start.Add(time.Duration(h)*time.Hour - time.Nanosecond)
			var hits []Bucket
			for _, b := range All {
				if WindowFor(b, now).Contains(&due) {
					hits = append(hits, b)
				}
			}
			require.Len(t, hits, 1, "due=%s now=%s", due, now)
			assert.Equal(t, Classify(&due, now), hits[0], "due=%s now=%s", due, now)
		}
		var hits []Bucket
		for _, b := range All {
			if WindowFor(b, now).Contains(nil) {
				hits = append(hits, b)
			}
		}
		assert.Equal(t, []Bucket{None}, hits)
	}
}

func TestClassifyUsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2026, 2, 25, 1, 0, 0, 0, loc) // 2026-02-24 23:00 UTC
	due := time.Date(2026, 2, 24, 22, 30, 0, 0, time.UTC)
	assert.Equal(t, Today, Classify(&due, now))
}

func TestParse(t *testing.T) {
	b, err := Parse("this_week")
	require.NoError(t, err)
	assert.Equal(t, ThisWeek, b)

	_, err = Parse("someday")
	assert.Error(t, err)
}

func TestDayAndIntersect(t *testing.T) {
	day, err := Day("2026-02-26", time.UTC)
	require.NoError(t, err)

	tomorrow := WindowFor(Tomorrow, wed)
	both := tomorrow.Intersect(day)
	assert.False(t, both.Empty)
	assert.True(t, both.Contains(at(26, 8, 0, 0)))

	today := WindowFor(Today, wed)
	assert.True(t, today.Intersect(day).Empty)

	assert.True(t, WindowFor(None, wed).Intersect(day).Empty)

	_, err = Day("26/02/2026", time.UTC)
	assert.Error(t, err)
}
