/*
Package export renders pay schedules as downloadable files.

FORMATS:
  xlsx: One "Pay Periods" sheet, a header row and one row per period.
  ics:  iCalendar feed with an all-day event for each submission deadline
        and each (adjusted) payment date, for import into calendar apps.

Both writers take the payment adjustments alongside the schedule so the
exported payment date matches what the API reports. A nil slice exports the
raw Friday payment dates.
*/
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/invoicepatch/payroll-engine/calendar"
	"github.com/invoicepatch/payroll-engine/payroll"
)

// SheetName is the worksheet holding the schedule.
const SheetName = "Pay Periods"

var xlsxHeader = []any{
	"Period",
	"Start Date",
	"End Date",
	"Days",
	"Partial",
	"Submission Deadline",
	"Payment Date",
	"Adjusted Payment Date",
}

// WriteXLSX writes the schedule as an Excel workbook.
func WriteXLSX(w io.Writer, s *payroll.Schedule, payments []payroll.PaymentAdjustment) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &xlsxHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	adjusted := adjustedDates(payments)
	for i, p := range s.Periods() {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			p.PeriodNumber,
			p.StartDate.String(),
			p.EndDate.String(),
			p.DaysInPeriod,
			p.IsPartialPeriod,
			p.SubmissionDeadline.String(),
			p.PaymentDate.String(),
			paymentDate(p, adjusted).String(),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write period %d: %w", p.PeriodNumber, err)
		}
	}

	if err := f.SetColWidth(SheetName, "B", "H", 22); err != nil {
		return err
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func adjustedDates(payments []payroll.PaymentAdjustment) map[int]calendar.Date {
	out := make(map[int]calendar.Date, len(payments))
	for _, a := range payments {
		out[a.PeriodNumber] = a.AdjustedPaymentDate
	}
	return out
}

func paymentDate(p payroll.PayPeriod, adjusted map[int]calendar.Date) calendar.Date {
	if d, ok := adjusted[p.PeriodNumber]; ok {
		return d
	}
	return p.PaymentDate
}
