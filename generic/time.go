package generic

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// DATE - Whole calendar day, no timezone component
// =============================================================================

// DateLayout is the ISO-8601 calendar date layout used by every stored date field.
const DateLayout = "2006-01-02"

// Date is a calendar day. The zero value means "no date".
// Internally the day is pinned to midnight UTC so arithmetic never crosses DST.
type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a strict YYYY-MM-DD string. Out-of-range days (2024-02-30)
// and any surrounding whitespace or time component are rejected.
func ParseDate(s string) (Date, error) {
	if len(s) != len(DateLayout) || strings.TrimSpace(s) != s {
		return Date{}, &DateParseError{Value: s}
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, &DateParseError{Value: s, Err: err}
	}
	return Date{Time: t}, nil
}

// MustParseDate panics on malformed input. Tests and fixed tables only.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(fmt.Sprintf("invalid date %q: %v", s, err))
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date  { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddYears(n int) Date { return Date{Time: d.Time.AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsSunday() bool        { return d.Weekday() == time.Sunday }
func (d Date) IsWeekend() bool       { return d.Weekday() == time.Saturday || d.IsSunday() }
func (d Date) IsBusinessDay() bool   { return !d.IsWeekend() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(DateLayout)
}

// =============================================================================
// BUSINESS-DAY ARITHMETIC
// =============================================================================

// AddBusinessDays moves n weekdays forward (or backward for negative n).
// Saturdays and Sundays are not counted; the start day itself never counts.
func (d Date) AddBusinessDays(n int) Date {
	step := 1
	if n < 0 {
		step, n = -1, -n
	}
	current := d
	for counted := 0; counted < n; {
		current = current.AddDays(step)
		if current.IsBusinessDay() {
			counted++
		}
	}
	return current
}

// LastSundayOnOrBefore snaps d back to the closest Sunday, d itself included.
func (d Date) LastSundayOnOrBefore() Date {
	return d.AddDays(-int(d.Weekday()))
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

// DaysBetween returns the signed number of whole days from -> to.
func DaysBetween(from, to Date) int { return int(to.Time.Sub(from.Time).Hours() / 24) }

func MinDate(a, b Date) Date {
	if b.Before(a) {
		return b
	}
	return a
}

func MaxDate(a, b Date) Date {
	if b.After(a) {
		return b
	}
	return a
}

// Earliest returns the minimum of the non-zero dates, false if there are none.
func Earliest(dates ...Date) (Date, bool) {
	var out Date
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		if out.IsZero() || d.Before(out) {
			out = d
		}
	}
	return out, !out.IsZero()
}

// Latest returns the maximum of the non-zero dates, false if there are none.
func Latest(dates ...Date) (Date, bool) {
	var out Date
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		if out.IsZero() || d.After(out) {
			out = d
		}
	}
	return out, !out.IsZero()
}
