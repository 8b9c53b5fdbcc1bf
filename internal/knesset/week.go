package knesset

import "time"

// PreviousWeek returns the bounds of the most recently completed Sunday to
// Saturday week: weekEnd is the last Saturday strictly before now (end of
// day), weekStart is six days earlier (start of day).
func PreviousWeek(now time.Time) (weekStart, weekEnd time.Time) {
	dow := int(now.Weekday()) // Sunday = 0
	end := now.AddDate(0, 0, -dow-1)
	weekEnd = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, now.Location())
	start := weekEnd.AddDate(0, 0, -6)
	weekStart = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, now.Location())
	return weekStart, weekEnd
}

// DateString formats a bound the way the open API expects date filters.
func DateString(t time.Time) string {
	return t.Format("2006-01-02")
}
