package analysis

import "time"

const dayKeyLayout = "2006-01-02"

// calendarDay drops the time of day, keeping the wall-clock date of t.
// The result is in UTC so days from different zones compare by date only.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}

// DaysBetween returns the signed number of calendar days from a to b
func DaysBetween(a, b time.Time) int {
	return int(calendarDay(b).Sub(calendarDay(a)).Hours() / 24)
}
