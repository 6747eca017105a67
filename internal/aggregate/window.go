package aggregate

import (
	"fmt"
	"time"

	"github.com/Veraticus/tally/internal/model"
)

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Bounds resolves a window to the closed interval [start, end] containing
// now. End is the last representable instant of the period.
func Bounds(w model.Window, now time.Time, weekStart time.Weekday) (time.Time, time.Time, error) {
	day := startOfDay(now)

	var start, next time.Time
	switch w {
	case model.WindowDaily:
		start = day
		next = start.AddDate(0, 0, 1)
	case model.WindowWeekly:
		offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
		start = day.AddDate(0, 0, -offset)
		next = start.AddDate(0, 0, 7)
	case model.WindowMonthly:
		start = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		next = start.AddDate(0, 1, 0)
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown window %q", w)
	}

	return start, next.Add(-time.Nanosecond), nil
}

// within reports whether t lies in the closed interval [start, end].
func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
