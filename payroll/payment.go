package payroll

import (
	"fmt"

	"github.com/invoicepatch/payroll-engine/calendar"
	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYMENT DATE ADJUSTMENT
// =============================================================================

// PaymentAdjustment is the business-day payment date of one period.
type PaymentAdjustment struct {
	PeriodNumber        int
	PaymentDate         calendar.Date
	AdjustedPaymentDate calendar.Date
	Shifted             bool
	Reasons             []string // One entry per skipped day
}

// AdjustPayments rolls every period's payment date forward past weekends
// and the holidays in cal. The schedule itself is left untouched.
func AdjustPayments(s *Schedule, cal calendar.HolidayCalendar) ([]PaymentAdjustment, error) {
	out := make([]PaymentAdjustment, 0, len(s.periods))
	for _, p := range s.periods {
		adj, err := calendar.Adjust(p.PaymentDate, cal)
		if err != nil {
			return nil, fmt.Errorf("period %d: %w", p.PeriodNumber, err)
		}

		reasons := make([]string, 0, len(adj.Skipped))
		for _, skipped := range adj.Skipped {
			reasons = append(reasons, skipped.Reason)
		}
		out = append(out, PaymentAdjustment{
			PeriodNumber:        p.PeriodNumber,
			PaymentDate:         p.PaymentDate,
			AdjustedPaymentDate: adj.Adjusted,
			Shifted:             adj.Shifted(),
			Reasons:             reasons,
		})
	}
	return out, nil
}

// =============================================================================
// PRORATION
// =============================================================================

var periodLength = decimal.NewFromInt(PeriodLength)

// ProrationFactor is DaysInPeriod / 14 rounded to four places. The long
// first period of a Friday..Sunday start exceeds 1.
func ProrationFactor(p PayPeriod) decimal.Decimal {
	return decimal.NewFromInt(int64(p.DaysInPeriod)).DivRound(periodLength, 4)
}

// EstimatePay prorates a full-period amount to the days actually in p,
// rounded to cents.
func EstimatePay(p PayPeriod, periodAmount decimal.Decimal) (decimal.Decimal, error) {
	if periodAmount.IsNegative() {
		return decimal.Zero, &InvalidArgumentError{Field: "periodAmount", Value: periodAmount, Reason: "must not be negative"}
	}
	return periodAmount.
		Mul(decimal.NewFromInt(int64(p.DaysInPeriod))).
		Div(periodLength).
		Round(2), nil
}
