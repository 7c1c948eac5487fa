package payroll

// FormatPeriodDates renders a period for display: "Jan 1 - Jan 4, 2024",
// or "Dec 28, 2023 - Jan 10, 2024" when the period spans two years.
func FormatPeriodDates(p PayPeriod) string {
	if p.StartDate.Year() == p.EndDate.Year() {
		return p.StartDate.Format("Jan 2") + " - " + p.EndDate.Format("Jan 2, 2006")
	}
	return p.StartDate.Format("Jan 2, 2006") + " - " + p.EndDate.Format("Jan 2, 2006")
}
