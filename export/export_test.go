package export_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/invoicepatch/payroll-engine/calendar"
	"github.com/invoicepatch/payroll-engine/export"
	"github.com/invoicepatch/payroll-engine/payroll"
)

func boxingDaySchedule(t *testing.T) (*payroll.Schedule, []payroll.PaymentAdjustment) {
	// Period 2 pays Friday Dec 26 2025, adjusted to Monday Dec 29
	s, err := payroll.Calculate("2025-12-08", 3)
	require.NoError(t, err)
	payments, err := payroll.AdjustPayments(s, calendar.StatutoryTable())
	require.NoError(t, err)
	return s, payments
}

func TestWriteXLSX(t *testing.T) {
	s, payments := boxingDaySchedule(t)

	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, s, payments))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{export.SheetName}, f.GetSheetList())

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Period", rows[0][0])
	assert.Equal(t, "Adjusted Payment Date", rows[0][7])

	assert.Equal(t, []string{"1", "2025-12-08", "2025-12-11", "4", "TRUE", "2025-12-12", "2025-12-12", "2025-12-12"}, rows[1])
	assert.Equal(t, "2025-12-26", rows[2][6])
	assert.Equal(t, "2025-12-29", rows[2][7])
}

func TestWriteXLSX_WithoutAdjustments(t *testing.T) {
	s, _ := boxingDaySchedule(t)

	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, s, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(export.SheetName, "H3")
	require.NoError(t, err)
	assert.Equal(t, "2025-12-26", v)
}

func TestWriteICS(t *testing.T) {
	s, payments := boxingDaySchedule(t)

	var buf bytes.Buffer
	require.NoError(t, export.WriteICS(&buf, s, payments))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Contains(t, out, "METHOD:PUBLISH")
	assert.Equal(t, 6, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "UID:period-1-deadline@invoicepatch")
	assert.Contains(t, out, "UID:period-3-payment@invoicepatch")
	assert.Contains(t, out, "SUMMARY:Payment: period 2")
	assert.Contains(t, out, "20251229", "adjusted payment date")
}
