/*
date.go - Calendar day value type and date arithmetic

PURPOSE:
  Payroll works in whole calendar days. Date wraps time.Time normalized to
  midnight UTC so that equality, hashing and day differences are exact and
  independent of the caller's timezone.

PARSING:
  ParseDate accepts ISO dates ("2024-01-01") and RFC 3339 timestamps. For a
  timestamp the calendar day in the timestamp's own offset is kept:
  "2024-01-01T23:30:00-05:00" is 2024-01-01, not 2024-01-02.

WEEKDAY WRAP RULE:
  DaysUntil returns 1..7, never 0. Asking for the next Thursday on a Thursday
  returns 7. Both the period boundary and the payment date depend on this.

SEE ALSO:
  - holiday.go: Holiday tables
  - adjust.go: Weekend/holiday roll-forward
*/
package calendar

import (
	"strings"
	"time"
)

// Layout is the wire and storage format of a Date.
const Layout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Date is a calendar day with no time-of-day component.
// The zero value is not a valid day; check with IsZero.
type Date struct {
	t time.Time
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// New returns the given calendar day. Out-of-range values normalize the way
// time.Date does (January 32 is February 1).
func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime returns the calendar day of t in t's own location.
func FromTime(t time.Time) Date {
	return New(t.Year(), t.Month(), t.Day())
}

// Today returns the current day in the local timezone.
func Today() Date {
	return FromTime(time.Now())
}

// ParseDate parses an ISO date or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return Date{}, &InvalidDateError{Input: s, Reason: "empty date"}
	}

	if t, err := time.Parse(Layout, in); err == nil {
		return FromTime(t), nil
	}
	if t, err := time.Parse(time.RFC3339, in); err == nil {
		return FromTime(t), nil
	}
	return Date{}, &InvalidDateError{Input: s, Reason: "expected YYYY-MM-DD"}
}

// MustParse is ParseDate for constants and tests. It panics on bad input.
func MustParse(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// =============================================================================
// COMPARISON
// =============================================================================

func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Compare returns -1, 0 or +1.
func (d Date) Compare(other Date) int { return d.t.Compare(other.t) }

// =============================================================================
// ARITHMETIC
// =============================================================================

func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// DaysBetween returns to - from in whole days. Negative when to is earlier.
func DaysBetween(from, to Date) int {
	return int((to.t.Unix() - from.t.Unix()) / secondsPerDay)
}

// DaysUntil returns how many days after from the next target weekday falls,
// in the range 1..7. A from date already on target yields 7.
func DaysUntil(from Date, target time.Weekday) int {
	n := (int(target) - int(from.Weekday()) + 7) % 7
	if n == 0 {
		return 7
	}
	return n
}

// NextWeekday returns the first target weekday strictly after from.
func NextWeekday(from Date, target time.Weekday) Date {
	return from.AddDays(DaysUntil(from, target))
}

// =============================================================================
// PROPERTIES
// =============================================================================

func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }

// IsWeekend reports Saturday or Sunday.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

// Format formats the day with a time layout.
func (d Date) Format(layout string) string { return d.t.Format(layout) }

// =============================================================================
// JSON
// =============================================================================

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return &InvalidDateError{Input: s, Reason: "expected a JSON string"}
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
