package domain

import "time"

// DayWindow returns the inclusive UTC window covering the calendar date of t.
// Boundaries are derived from calendar fields in UTC, so a workout started
// exactly at midnight belongs to that day and not the adjacent one.
func DayWindow(t time.Time) (start, end time.Time) {
	u := t.UTC()
	start = time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	end = start.Add(24*time.Hour - time.Millisecond)
	return start, end
}
