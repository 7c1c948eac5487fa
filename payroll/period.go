/*
period.go - Pay period boundaries and per-period dates

PURPOSE:
  A pay period is a span of worked days billed together. Periods end on
  Thursdays when the contract starts Monday..Thursday; the first period is
  then partial. Contracts starting Friday..Sunday get a full fourteen days
  plus the days up to the following Thursday, which places every boundary
  of that schedule on a Wednesday.

FIRST PERIOD LENGTH BY START WEEKDAY:
  Mon  4   Tue  3   Wed  2   Thu  8 (rolls to next Thursday)
  Fri 20   Sat 19   Sun 18

PER-PERIOD DATES:
  Submission deadline: the day after the period ends.
  Payment date:        the first Friday strictly after the period ends.
                       A period ending on a Friday pays seven days later.

SEE ALSO:
  - schedule.go: Assembling periods into a schedule
  - calendar/date.go: DaysUntil wrap rule
*/
package payroll

import (
	"time"

	"github.com/invoicepatch/payroll-engine/calendar"
)

const (
	// PeriodLength is the span of every period after the first.
	PeriodLength = 14

	// PeriodEndWeekday anchors the first period boundary.
	PeriodEndWeekday = time.Thursday

	// PaymentWeekday is the day payments are issued.
	PaymentWeekday = time.Friday
)

// PayPeriod is one period of a schedule. Values are never mutated after
// BuildPeriod returns them.
type PayPeriod struct {
	PeriodNumber       int
	StartDate          calendar.Date
	EndDate            calendar.Date
	DaysInPeriod       int
	IsPartialPeriod    bool
	SubmissionDeadline calendar.Date
	PaymentDate        calendar.Date
}

// Range returns [StartDate, EndDate].
func (p PayPeriod) Range() calendar.Range {
	return calendar.Range{Start: p.StartDate, End: p.EndDate}
}

// Contains reports whether d falls within the period, inclusive.
func (p PayPeriod) Contains(d calendar.Date) bool {
	return p.Range().Contains(d)
}

// FirstPeriodEnd returns the end of the first period for a contract that
// starts on start.
func FirstPeriodEnd(start calendar.Date) calendar.Date {
	untilThursday := calendar.DaysUntil(start, PeriodEndWeekday)

	switch start.Weekday() {
	case time.Friday, time.Saturday, time.Sunday:
		return start.AddDays(PeriodLength - 1 + untilThursday)
	default:
		return start.AddDays(untilThursday)
	}
}

// NextFriday returns the payment date for a period ending on end.
func NextFriday(end calendar.Date) calendar.Date {
	return calendar.NextWeekday(end, PaymentWeekday)
}

// BuildPeriod computes the derived fields of a period. Only the first
// period of a schedule passes checkPartial.
func BuildPeriod(start, end calendar.Date, number int, checkPartial bool) PayPeriod {
	days := calendar.DaysBetween(start, end) + 1
	return PayPeriod{
		PeriodNumber:       number,
		StartDate:          start,
		EndDate:            end,
		DaysInPeriod:       days,
		IsPartialPeriod:    checkPartial && days < PeriodLength,
		SubmissionDeadline: end.AddDays(1),
		PaymentDate:        NextFriday(end),
	}
}
