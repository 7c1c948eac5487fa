package export

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/invoicepatch/payroll-engine/payroll"
)

const productID = "-//InvoicePatch//Payroll Schedule//EN"

// WriteICS writes the schedule as an iCalendar feed. UIDs are stable per
// period so re-importing an updated schedule replaces earlier events.
func WriteICS(w io.Writer, s *payroll.Schedule, payments []payroll.PaymentAdjustment) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	stamp := time.Now().UTC()
	adjusted := adjustedDates(payments)

	for _, p := range s.Periods() {
		dates := payroll.FormatPeriodDates(p)

		deadline := cal.AddEvent(fmt.Sprintf("period-%d-deadline@invoicepatch", p.PeriodNumber))
		deadline.SetDtStampTime(stamp)
		deadline.SetAllDayStartAt(p.SubmissionDeadline.Time())
		deadline.SetAllDayEndAt(p.SubmissionDeadline.AddDays(1).Time())
		deadline.SetSummary(fmt.Sprintf("Submission deadline: period %d", p.PeriodNumber))
		deadline.SetDescription("Submit hours for " + dates)

		pay := paymentDate(p, adjusted)
		payment := cal.AddEvent(fmt.Sprintf("period-%d-payment@invoicepatch", p.PeriodNumber))
		payment.SetDtStampTime(stamp)
		payment.SetAllDayStartAt(pay.Time())
		payment.SetAllDayEndAt(pay.AddDays(1).Time())
		payment.SetSummary(fmt.Sprintf("Payment: period %d", p.PeriodNumber))
		payment.SetDescription("Payment for " + dates)
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}
	return nil
}
