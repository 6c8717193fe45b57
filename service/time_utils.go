package service

import (
	"time"
)

// StartOfDayUTC truncates a time to midnight UTC of its calendar day
func StartOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDayUTC returns the last instant of a time's calendar day in UTC
func EndOfDayUTC(t time.Time) time.Time {
	return StartOfDayUTC(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// LastNDaysUTC returns the starts of the last n calendar days ending at
// "today" UTC, oldest first
func LastNDaysUTC(n int, now time.Time) []time.Time {
	today := StartOfDayUTC(now)
	days := make([]time.Time, 0, n)
	for i := n - 1; i >= 0; i-- {
		days = append(days, today.AddDate(0, 0, -i))
	}
	return days
}
