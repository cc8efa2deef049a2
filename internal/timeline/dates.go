// Package timeline computes the Gantt chart layout: calendar-date parsing,
// month bucketing and task bar placement. Everything here is pure and safe
// for concurrent use.
package timeline

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the calendar-date form used for task and permit dates.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// ParseDate parses a YYYY-MM-DD string as local midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("timeline: parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate is the inverse of ParseDate.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatDisplayDate renders a YYYY-MM-DD string as "Jan 2, 2006". Malformed
// input is returned unchanged.
func FormatDisplayDate(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format("Jan 2, 2006")
}

// DaysBetween returns the signed number of calendar days from a to b. The
// difference is taken on wall-clock time so DST shifts between two local
// midnights do not leak into the count; a partial day rounds up.
func DaysBetween(a, b time.Time) int {
	return int(math.Ceil(float64(wall(b).Sub(wall(a))) / float64(day)))
}

func wall(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// SpanDays is the inclusive day count of [start, end]. A single-day range
// spans 1 day.
func SpanDays(start, end time.Time) int {
	return DaysBetween(start, end) + 1
}

// IsDate reports whether s is a valid YYYY-MM-DD date.
func IsDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
