package payroll

import (
	"fmt"

	"github.com/invoicepatch/payroll-engine/calendar"
)

const (
	// DefaultPeriods is one year of bi-weekly periods.
	DefaultPeriods = 26

	// MaxPeriods caps a schedule at twenty years.
	MaxPeriods = 520

	// DefaultDeadlineHorizon is the look-ahead for UpcomingDeadlines, in days.
	DefaultDeadlineHorizon = 30
)

// =============================================================================
// SCHEDULE
// =============================================================================

// Schedule is the ordered sequence of pay periods derived from a contract
// start date. It is built once and never mutated; recompute by calling
// Calculate again.
type Schedule struct {
	contractStartDate calendar.Date
	firstPeriodEnd    calendar.Date
	periods           []PayPeriod
}

// Calculate parses contractStartDate and builds numberOfPeriods periods.
// Callers that have no count should pass DefaultPeriods.
func Calculate(contractStartDate string, numberOfPeriods int) (*Schedule, error) {
	start, err := calendar.ParseDate(contractStartDate)
	if err != nil {
		return nil, fmt.Errorf("contract start date: %w", err)
	}
	return CalculateFrom(start, numberOfPeriods)
}

// CalculateFrom builds numberOfPeriods periods starting at start.
// numberOfPeriods must be within [1, MaxPeriods].
func CalculateFrom(start calendar.Date, numberOfPeriods int) (*Schedule, error) {
	if start.IsZero() {
		return nil, &calendar.InvalidDateError{Input: "", Reason: "zero date"}
	}
	if numberOfPeriods < 1 {
		return nil, &InvalidArgumentError{Field: "numberOfPeriods", Value: numberOfPeriods, Reason: "must be at least 1"}
	}
	if numberOfPeriods > MaxPeriods {
		return nil, &InvalidArgumentError{Field: "numberOfPeriods", Value: numberOfPeriods, Reason: fmt.Sprintf("must be at most %d", MaxPeriods)}
	}

	firstEnd := FirstPeriodEnd(start)
	periods := make([]PayPeriod, 0, numberOfPeriods)
	periods = append(periods, BuildPeriod(start, firstEnd, 1, true))

	previousEnd := firstEnd
	for i := 2; i <= numberOfPeriods; i++ {
		currentStart := previousEnd.AddDays(1)
		periodEnd := currentStart.AddDays(PeriodLength - 1)
		periods = append(periods, BuildPeriod(currentStart, periodEnd, i, false))
		previousEnd = periodEnd
	}

	return &Schedule{
		contractStartDate: start,
		firstPeriodEnd:    firstEnd,
		periods:           periods,
	}, nil
}

func (s *Schedule) ContractStartDate() calendar.Date { return s.contractStartDate }
func (s *Schedule) FirstPeriodEnd() calendar.Date    { return s.firstPeriodEnd }
func (s *Schedule) Len() int                         { return len(s.periods) }

// LastPeriodEnd returns the end of the final period.
func (s *Schedule) LastPeriodEnd() calendar.Date {
	return s.periods[len(s.periods)-1].EndDate
}

// Periods returns a copy of the periods in order.
func (s *Schedule) Periods() []PayPeriod {
	out := make([]PayPeriod, len(s.periods))
	copy(out, s.periods)
	return out
}

// Period returns the period with the given 1-based number.
func (s *Schedule) Period(number int) (PayPeriod, bool) {
	if number < 1 || number > len(s.periods) {
		return PayPeriod{}, false
	}
	return s.periods[number-1], true
}

// =============================================================================
// QUERIES
// =============================================================================

// CurrentPeriod returns the period containing today. It reports false when
// today precedes the contract start or follows the last scheduled period.
func (s *Schedule) CurrentPeriod(today calendar.Date) (PayPeriod, bool) {
	if today.Before(s.contractStartDate) || today.After(s.LastPeriodEnd()) {
		return PayPeriod{}, false
	}
	// Periods are contiguous and fixed-length after the first.
	if today.BeforeOrEqual(s.firstPeriodEnd) {
		return s.periods[0], true
	}
	idx := 1 + calendar.DaysBetween(s.firstPeriodEnd.AddDays(1), today)/PeriodLength
	return s.periods[idx], true
}

// UpcomingDeadlines returns the periods whose submission deadline falls in
// [today, today+daysAhead], in schedule order.
func (s *Schedule) UpcomingDeadlines(today calendar.Date, daysAhead int) ([]PayPeriod, error) {
	if daysAhead < 0 {
		return nil, &InvalidArgumentError{Field: "daysAhead", Value: daysAhead, Reason: "must not be negative"}
	}
	window := calendar.Range{Start: today, End: today.AddDays(daysAhead)}

	upcoming := []PayPeriod{}
	for _, p := range s.periods {
		if window.Contains(p.SubmissionDeadline) {
			upcoming = append(upcoming, p)
		}
	}
	return upcoming, nil
}

// Summary describes a schedule at a glance.
type Summary struct {
	TotalPeriods          int
	ContractStartDate     calendar.Date
	FirstPeriodEnd        calendar.Date
	LastPeriodEnd         calendar.Date
	HasPartialFirstPeriod bool
}

func (s *Schedule) Summary() Summary {
	return Summary{
		TotalPeriods:          len(s.periods),
		ContractStartDate:     s.contractStartDate,
		FirstPeriodEnd:        s.firstPeriodEnd,
		LastPeriodEnd:         s.LastPeriodEnd(),
		HasPartialFirstPeriod: s.periods[0].IsPartialPeriod,
	}
}
