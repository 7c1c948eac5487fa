package calendar

// Range is an inclusive span of days [Start, End].
type Range struct {
	Start Date
	End   Date
}

// Contains returns true if d is within [Start, End].
func (r Range) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Days returns the inclusive day count. A range with End before Start has
// zero days.
func (r Range) Days() int {
	n := DaysBetween(r.Start, r.End) + 1
	if n < 0 {
		return 0
	}
	return n
}

// Dates returns every day in the range in order.
func (r Range) Dates() []Date {
	var days []Date
	for current := r.Start; current.BeforeOrEqual(r.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Next returns the range of equal length that starts the day after End.
func (r Range) Next() Range {
	start := r.End.AddDays(1)
	return Range{Start: start, End: start.AddDays(r.Days() - 1)}
}

func (r Range) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}
