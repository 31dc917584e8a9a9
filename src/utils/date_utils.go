package utils

import (
	"time"
)

// DefaultDateFormat is the wire format for report period dates.
const DefaultDateFormat = "2006-01-02"

// ParseDate parses a date string using the default format.
func ParseDate(dateStr string) (time.Time, error) {
	return time.Parse(DefaultDateFormat, dateStr)
}

// StartOfDay returns t truncated to 00:00:00 in its location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's day (23:59:59).
// Report ranges are inclusive on both ends, so the data access layer queries
// [StartOfDay(from), EndOfDay(to)].
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
