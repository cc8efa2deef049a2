package timeline

import (
	"fmt"
	"strings"
	"time"
)

// Month is one calendar month's overlap with a project range.
type Month struct {
	Label string    // e.g. "JAN 24"
	Start time.Time // first day of the calendar month
	Days  int       // in-range days contributed by this month
	Flex  float64   // Days as a fraction of the whole range
}

// Bar is a task bar's placement as percentages of the timeline width.
type Bar struct {
	Left  float64
	Width float64
}

// Months partitions the inclusive range [start, end] into calendar months.
// The caller guarantees start <= end; when it does not, a single bucket for
// start's month with weight 1 is returned.
func Months(start, end time.Time) []Month {
	total := SpanDays(start, end)
	if total <= 0 {
		first := firstOfMonth(start)
		return []Month{{Label: monthLabel(first), Start: first, Days: 1, Flex: 1}}
	}

	var months []Month
	for cur := firstOfMonth(start); !cur.After(end); cur = cur.AddDate(0, 1, 0) {
		lo := cur
		if lo.Before(start) {
			lo = start
		}
		hi := time.Date(cur.Year(), cur.Month()+1, 0, 0, 0, 0, 0, cur.Location())
		if hi.After(end) {
			hi = end
		}
		days := SpanDays(lo, hi)
		months = append(months, Month{
			Label: monthLabel(cur),
			Start: cur,
			Days:  days,
			Flex:  float64(days) / float64(total),
		})
	}
	return months
}

// BarPosition places a task bar within the project range. Dates are
// YYYY-MM-DD strings; width counts the task's end day inclusively. A
// non-positive project span yields a full-width bar at the origin.
func BarPosition(taskStart, taskEnd string, projectStart, projectEnd time.Time) (Bar, error) {
	start, err := ParseDate(taskStart)
	if err != nil {
		return Bar{}, err
	}
	end, err := ParseDate(taskEnd)
	if err != nil {
		return Bar{}, err
	}

	total := SpanDays(projectStart, projectEnd)
	if total <= 0 {
		return Bar{Left: 0, Width: 100}, nil
	}
	return Bar{
		Left:  float64(DaysBetween(projectStart, start)) / float64(total) * 100,
		Width: float64(SpanDays(start, end)) / float64(total) * 100,
	}, nil
}

// IsMilestone reports whether a task is a zero-duration marker.
func IsMilestone(taskStart, taskEnd string) bool {
	return taskStart == taskEnd
}

// Range returns the earliest and latest of the given YYYY-MM-DD dates.
func Range(dates ...string) (start, end time.Time, err error) {
	if len(dates) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("timeline: range of no dates")
	}
	for i, s := range dates {
		t, err := ParseDate(s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if i == 0 || t.Before(start) {
			start = t
		}
		if i == 0 || t.After(end) {
			end = t
		}
	}
	return start, end, nil
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func monthLabel(t time.Time) string {
	return strings.ToUpper(t.Format("Jan 06"))
}
