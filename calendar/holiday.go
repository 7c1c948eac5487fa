package calendar

import (
	"sort"
	"time"
)

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// Holiday is a non-business day. A recurring holiday repeats on the same
// month and day every year and the year of Date is ignored.
type Holiday struct {
	ID        string
	CompanyID string // Empty string = global
	Date      Date
	Name      string
	Recurring bool
}

// HolidayCalendar answers whether a day is a holiday.
type HolidayCalendar interface {
	// HolidayOn returns the holiday name when d is a holiday.
	HolidayOn(d Date) (string, bool)
}

type monthDay struct {
	month time.Month
	day   int
}

// Table is an immutable holiday lookup keyed by month/day for recurring
// entries and by exact date for one-off entries. The nil *Table has no
// holidays.
type Table struct {
	recurring map[monthDay]Holiday
	dated     map[Date]Holiday
}

// NewTable builds a table from holidays. When two entries collide on the same
// key the later one wins.
func NewTable(holidays ...Holiday) *Table {
	t := &Table{
		recurring: make(map[monthDay]Holiday),
		dated:     make(map[Date]Holiday),
	}
	t.add(holidays)
	return t
}

// With returns a copy of t extended with holidays.
func (t *Table) With(holidays ...Holiday) *Table {
	out := NewTable()
	if t != nil {
		for k, v := range t.recurring {
			out.recurring[k] = v
		}
		for k, v := range t.dated {
			out.dated[k] = v
		}
	}
	out.add(holidays)
	return out
}

func (t *Table) add(holidays []Holiday) {
	for _, h := range holidays {
		if h.Recurring {
			t.recurring[monthDay{h.Date.Month(), h.Date.Day()}] = h
			continue
		}
		t.dated[h.Date] = h
	}
}

// HolidayOn checks one-off entries first, then recurring ones.
func (t *Table) HolidayOn(d Date) (string, bool) {
	if t == nil {
		return "", false
	}
	if h, ok := t.dated[d]; ok {
		return h.Name, true
	}
	if h, ok := t.recurring[monthDay{d.Month(), d.Day()}]; ok {
		return h.Name, true
	}
	return "", false
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.recurring) + len(t.dated)
}

// Holidays returns the entries that fall in year, recurring ones moved into
// that year, ordered by date.
func (t *Table) Holidays(year int) []Holiday {
	if t == nil {
		return nil
	}
	var out []Holiday
	for _, h := range t.recurring {
		h.Date = New(year, h.Date.Month(), h.Date.Day())
		out = append(out, h)
	}
	for _, h := range t.dated {
		if h.Date.Year() == year {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// =============================================================================
// STATUTORY TABLE
// =============================================================================
// Deliberately partial: Labour Day, Thanksgiving, Good Friday and provincial
// holidays are not listed. Extend through Table.With or the holiday store.

var statutoryHolidays = []Holiday{
	{ID: "statutory-0101", Date: New(2000, time.January, 1), Name: "New Year's Day", Recurring: true},
	{ID: "statutory-0701", Date: New(2000, time.July, 1), Name: "Canada Day", Recurring: true},
	{ID: "statutory-1225", Date: New(2000, time.December, 25), Name: "Christmas Day", Recurring: true},
	{ID: "statutory-1226", Date: New(2000, time.December, 26), Name: "Boxing Day", Recurring: true},
}

var statutoryTable = NewTable(statutoryHolidays...)

// StatutoryHolidays returns the built-in recurring entries.
func StatutoryHolidays() []Holiday {
	out := make([]Holiday, len(statutoryHolidays))
	copy(out, statutoryHolidays)
	return out
}

// StatutoryTable returns the built-in table. Tables are immutable so the same
// instance is shared.
func StatutoryTable() *Table {
	return statutoryTable
}

// IsStatutoryHoliday reports whether d is in the built-in table, in any year.
func IsStatutoryHoliday(d Date) bool {
	_, ok := statutoryTable.HolidayOn(d)
	return ok
}
