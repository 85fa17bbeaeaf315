// Package date provides day granular arithmetic used by the debt ledger: whole
// days elapsed between two instants and a calendar Date for report names and
// command line input.
package date

import (
	"fmt"
	"math"
	"time"
)

const readDateFormat = "2006-1-2" // Permissive read date format (allows single-digit month/day).

// DateFormat is the format used to represent dates as strings in ISO-8601 format.
const DateFormat = "2006-01-02" // write date format

// Day is the length of a day in Elapsed.
const Day = 24 * time.Hour

// Date represent a date with no lower than day granularity.
type Date struct {
	y int
	m time.Month
	d int
}

// time returns a time.Time that is a canonical representation of that day (at midnight UTC).
func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// New returns a normalized Date for the given year, month, and day.
func New(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// Of returns the calendar day of t in t's location.
func Of(t time.Time) Date { return New(t.Date()) }

// Today returns the current date.
func Today() Date { return New(time.Now().Date()) }

// String format the date in its standard format.
func (d Date) String() string { return d.time().Format(DateFormat) }

// Short formats the date as day-month-year without padding (e.g. "5-3-2025"),
// the way exported files are named.
func (d Date) Short() string { return fmt.Sprintf("%d-%d-%d", d.d, int(d.m), d.y) }

// Parse parses a Date from a string. It is lenient and accepts formats like "2025-7-1".
func Parse(str string) (Date, error) {
	on, err := time.Parse(readDateFormat, str)
	// We use a slightly more permisive format for read, to support 2025-7-1 instead of 2025-07-01
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q want format %q: %w", str, readDateFormat, err)
	}
	return New(on.Date()), nil
}

// ParseTime parses an instant either in RFC 3339 or as a plain date, in which
// case the instant is midnight UTC of that day.
func ParseTime(str string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, str); err == nil {
		return t, nil
	}
	d, err := Parse(str)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid instant %q want RFC 3339 or %q", str, readDateFormat)
	}
	return d.time(), nil
}

// Elapsed returns the number of whole days from 'from' to 'to', rounded down.
// It is negative when 'to' is before 'from'.
func Elapsed(from, to time.Time) int {
	return int(math.Floor(float64(to.Sub(from)) / float64(Day)))
}
