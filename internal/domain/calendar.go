// internal/domain/calendar.go
package domain

import (
	"fmt"
	"strings"
	"time"
)

// isoDateLayout is the canonical calendar-day form used everywhere dates are
// compared or stored. Comparisons happen on this string form, never on
// timestamps, so time-of-day and timezone drift cannot change which calendar
// day an instance lands on.
const isoDateLayout = "2006-01-02"

// ISODate is a calendar date in "YYYY-MM-DD" form. It is deliberately a
// string type: lexicographic order of valid values equals chronological
// order, which keeps both in-memory and MongoDB range filters trivial.
type ISODate string

// ParseISODate normalizes an incoming date string to an ISODate.
// Inputs carrying a time-of-day component (e.g. RFC3339 timestamps) are
// truncated to their calendar day.
func ParseISODate(s string) (ISODate, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(isoDateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return "", fmt.Errorf("invalid calendar date %q (want YYYY-MM-DD)", s)
}

// DateOf truncates a timestamp to its calendar day.
func DateOf(t time.Time) ISODate {
	return ISODate(t.UTC().Format(isoDateLayout))
}

// Today returns the current calendar day in UTC.
func Today() ISODate {
	return DateOf(time.Now())
}

// Time parses the date back into a UTC midnight timestamp.
func (d ISODate) Time() (time.Time, error) {
	return time.Parse(isoDateLayout, string(d))
}

// Valid reports whether d is a well-formed calendar date.
func (d ISODate) Valid() bool {
	_, err := d.Time()
	return err == nil
}

// IsZero reports whether the date is unset.
func (d ISODate) IsZero() bool {
	return d == ""
}

// DayOfWeek returns the weekday with Sunday=0 .. Saturday=6.
// Returns -1 for malformed dates.
func (d ISODate) DayOfWeek() int {
	t, err := d.Time()
	if err != nil {
		return -1
	}
	return int(t.Weekday())
}

// AddDays returns the date n calendar days after d (n may be negative).
func (d ISODate) AddDays(n int) ISODate {
	t, err := d.Time()
	if err != nil {
		return d
	}
	return DateOf(t.AddDate(0, 0, n))
}

// Before reports whether d falls strictly before other.
func (d ISODate) Before(other ISODate) bool {
	return string(d) < string(other)
}

// After reports whether d falls strictly after other.
func (d ISODate) After(other ISODate) bool {
	return string(d) > string(other)
}

// DatesBetween returns every calendar day from start through end inclusive,
// ascending. An empty slice is returned when end precedes start or either
// bound is malformed.
func DatesBetween(start, end ISODate) []ISODate {
	startT, err := start.Time()
	if err != nil {
		return nil
	}
	endT, err := end.Time()
	if err != nil {
		return nil
	}
	if endT.Before(startT) {
		return nil
	}
	days := int(endT.Sub(startT).Hours()/24) + 1
	dates := make([]ISODate, 0, days)
	for t := startT; !t.After(endT); t = t.AddDate(0, 0, 1) {
		dates = append(dates, DateOf(t))
	}
	return dates
}

// DaysBetween returns the number of whole days from start to end
// (0 when equal, negative when end precedes start).
func DaysBetween(start, end ISODate) int {
	startT, err := start.Time()
	if err != nil {
		return 0
	}
	endT, err := end.Time()
	if err != nil {
		return 0
	}
	return int(endT.Sub(startT).Hours() / 24)
}

// RangesOverlap reports whether the closed date intervals [aStart, aEnd] and
// [bStart, bEnd] share at least one day. The single predicate
// aStart <= bEnd && bStart <= aEnd covers all of "starts during", "ends
// during", "contains" and "is contained by".
func RangesOverlap(aStart, aEnd, bStart, bEnd ISODate) bool {
	return string(aStart) <= string(bEnd) && string(bStart) <= string(aEnd)
}
