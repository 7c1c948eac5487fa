package calendar

import "fmt"

// ReasonWeekend is the skip reason recorded for Saturdays and Sundays.
const ReasonWeekend = "weekend"

// maxShiftDays bounds Adjust for tables that leave no business day.
const maxShiftDays = 366

// SkippedDay is a day Adjust moved past.
type SkippedDay struct {
	Date   Date
	Reason string // ReasonWeekend or the holiday name
}

// Adjustment is the result of rolling a date forward to a business day.
type Adjustment struct {
	Original Date
	Adjusted Date
	Skipped  []SkippedDay
}

// Shifted reports whether the date moved.
func (a Adjustment) Shifted() bool {
	return !a.Original.Equal(a.Adjusted)
}

// Adjust rolls d forward until it is a weekday that cal does not list.
// Weekends are resolved first on every pass, then the holiday table is
// consulted; a holiday hit advances one day and re-checks the weekend.
// A nil cal means weekends only.
func Adjust(d Date, cal HolidayCalendar) (Adjustment, error) {
	adj := Adjustment{Original: d}
	current := d

	for {
		for current.IsWeekend() {
			adj.Skipped = append(adj.Skipped, SkippedDay{Date: current, Reason: ReasonWeekend})
			current = current.AddDays(1)
		}

		if cal == nil {
			break
		}
		name, ok := cal.HolidayOn(current)
		if !ok {
			break
		}
		adj.Skipped = append(adj.Skipped, SkippedDay{Date: current, Reason: name})
		current = current.AddDays(1)

		if len(adj.Skipped) > maxShiftDays {
			return adj, fmt.Errorf("adjusting %s: %w", d, ErrNoBusinessDay)
		}
	}

	adj.Adjusted = current
	return adj, nil
}

// AdjustPaymentDate moves d to the next business day under the statutory
// table. The statutory table always leaves business days, so it cannot fail.
func AdjustPaymentDate(d Date) Date {
	adj, err := Adjust(d, statutoryTable)
	if err != nil {
		panic(err)
	}
	return adj.Adjusted
}
