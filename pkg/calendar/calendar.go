// Package calendar works with date-only values. Every date is a
// time.Time at midnight UTC so that equality, ordering and day
// differences behave like calendar dates.
package calendar

import (
	"time"
)

// Layout is the wire and storage format of a date.
const Layout = "2006-01-02"

// Date builds a date value.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the time of day, keeping the calendar date as seen in t's location.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// Today returns the current date according to now.
func Today(now func() time.Time) time.Time {
	return Truncate(now())
}

// Parse reads a YYYY-MM-DD date.
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, s, time.UTC)
}

// Format renders a date as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// FirstOfNextMonth returns day 1 of the month after t.
func FirstOfNextMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return Date(y, m+1, 1)
}

// AddMonths moves a first-of-month date by n months. Only day 1 is
// supported so that month lengths never shift the day.
func AddMonths(firstOfMonth time.Time, n int) time.Time {
	y, m, _ := firstOfMonth.Date()
	return Date(y, m+time.Month(n), 1)
}

// EndOfMonthAfter returns the last day of the month n months after t's month.
func EndOfMonthAfter(t time.Time, n int) time.Time {
	y, m, _ := t.Date()
	// day 0 of the following month is the last day of the target month
	return Date(y, m+time.Month(n)+1, 0)
}

// DaysBetween returns to - from in whole days. Negative when to is earlier.
func DaysBetween(from, to time.Time) int {
	f := Truncate(from)
	t := Truncate(to)
	return int(t.Sub(f).Round(time.Hour).Hours() / 24)
}
