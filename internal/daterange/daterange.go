// Package daterange resolves the inclusive date windows used to filter
// measurements: the trailing year before the latest observation, or an
// explicit start (and optional end) taken from the request path.
package daterange

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the only date layout accepted or produced by the API.
const Layout = "2006-01-02"

var ErrInvalidDateFormat = errors.New("invalid date format")

// Range is an inclusive window of calendar dates. A zero End means the
// window is open: every date on or after Start.
type Range struct {
	Start time.Time
	End   time.Time
}

func (r Range) OpenEnded() bool {
	return r.End.IsZero()
}

// Contains reports whether the calendar date of t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	d := truncate(t)
	if d.Before(r.Start) {
		return false
	}
	return r.OpenEnded() || !d.After(r.End)
}

// StartText and EndText return the bounds in Layout form for use as SQL
// arguments. EndText is empty for an open range.
func (r Range) StartText() string {
	return r.Start.Format(Layout)
}

func (r Range) EndText() string {
	if r.OpenEnded() {
		return ""
	}
	return r.End.Format(Layout)
}

func (r Range) String() string {
	if r.OpenEnded() {
		return r.StartText() + "/.."
	}
	return r.StartText() + "/" + r.EndText()
}

// Parse reads a YYYY-MM-DD date. Only the first ten characters are
// considered; anything shorter, non-numeric, or not a real calendar date
// is rejected with ErrInvalidDateFormat.
func Parse(text string) (time.Time, error) {
	if len(text) < len(Layout) {
		return time.Time{}, fmt.Errorf("%w: %q is too short", ErrInvalidDateFormat, text)
	}
	s := text[:len(Layout)]
	if s[4] != '-' || s[7] != '-' {
		return time.Time{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDateFormat, text)
	}

	year, ok1 := digits(s[0:4])
	month, ok2 := digits(s[5:7])
	day, ok3 := digits(s[8:10])
	if !ok1 || !ok2 || !ok3 {
		return time.Time{}, fmt.Errorf("%w: %q has a non-numeric segment", ErrInvalidDateFormat, text)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalises out-of-range values, so month 13 or 30 February
	// come back as a different date.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %q is not a calendar date", ErrInvalidDateFormat, text)
	}
	return t, nil
}

// TrailingYear returns [latest - 1 year, latest]. 29 February maps to
// 28 February of the previous year.
func TrailingYear(latest time.Time) Range {
	end := truncate(latest)
	y, m, d := end.Date()
	if m == time.February && d == 29 {
		d = 28
	}
	return Range{
		Start: time.Date(y-1, m, d, 0, 0, 0, 0, time.UTC),
		End:   end,
	}
}

// Explicit builds a range from path segments. With no end the range is
// open-ended.
func Explicit(start string, end ...string) (Range, error) {
	s, err := Parse(start)
	if err != nil {
		return Range{}, fmt.Errorf("start: %w", err)
	}
	r := Range{Start: s}
	if len(end) > 0 && end[0] != "" {
		e, err := Parse(end[0])
		if err != nil {
			return Range{}, fmt.Errorf("end: %w", err)
		}
		r.End = e
	}
	return r, nil
}

func digits(s string) (int, bool) {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
