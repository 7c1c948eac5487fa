/*
handlers_test.go - HTTP tests for the payroll API

Tests for:
- Schedule calculation (success envelope, current period, deadlines, pay)
- Client errors (missing / non-string / bad dates, out-of-range arguments)
- Server errors (holiday store unavailable)
- Export downloads (xlsx, ics)
- Holiday check and custom holiday CRUD
- Health and metrics endpoints
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/invoicepatch/payroll-engine/store/sqlite"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type testServer struct {
	handler *Handler
	router  http.Handler
	store   *sqlite.Store
}

func newTestServer(t *testing.T, now time.Time) *testServer {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, zap.NewNop(), NewMetrics())
	h.Now = func() time.Time { return now }

	return &testServer{
		handler: h,
		router:  NewRouter(h, RouterOptions{AllowedOrigins: []string{"*"}}),
		store:   store,
	}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

// =============================================================================
// CALCULATE
// =============================================================================

func TestCalculatePayroll_MondayStart(t *testing.T) {
	// GIVEN: Today is Wednesday 2024-01-10, inside period 2
	ts := newTestServer(t, day(2024, time.January, 10))

	// WHEN: Calculating three periods from Monday 2024-01-01
	rec := ts.do(t, http.MethodPost, "/api/payroll/calculate",
		`{"contractStartDate":"2024-01-01","numberOfPeriods":3}`)

	// THEN: The schedule, current period and deadlines come back
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp CalculateResponse
	env := decodeEnvelope(t, rec, &resp)
	assert.True(t, env.Success)

	require.Len(t, resp.Schedule, 3)
	first := resp.Schedule[0]
	assert.Equal(t, "2024-01-01", first.StartDate.String())
	assert.Equal(t, "2024-01-04", first.EndDate.String())
	assert.Equal(t, 4, first.DaysInPeriod)
	assert.True(t, first.IsPartialPeriod)
	assert.Equal(t, "2024-01-05", first.SubmissionDeadline.String())
	assert.Equal(t, "2024-01-05", first.PaymentDate.String())
	assert.Equal(t, "Jan 1 - Jan 4, 2024", first.FormattedDates)
	assert.Equal(t, "0.2857", first.ProrationFactor.String())
	assert.Nil(t, first.EstimatedPay)

	require.NotNil(t, resp.CurrentPeriod)
	assert.Equal(t, 2, resp.CurrentPeriod.PeriodNumber)

	// Period 1's deadline (Jan 5) is past; Jan 19 and Feb 2 are within 30 days
	require.Len(t, resp.UpcomingDeadlines, 2)
	assert.Equal(t, 2, resp.UpcomingDeadlines[0].PeriodNumber)
	assert.Equal(t, 3, resp.UpcomingDeadlines[1].PeriodNumber)

	assert.Equal(t, 3, resp.Summary.TotalPeriods)
	assert.Equal(t, "2024-01-04", resp.Summary.FirstPeriodEnd.String())
	assert.Equal(t, "2024-02-01", resp.Summary.LastPeriodEnd.String())
	assert.True(t, resp.Summary.HasPartialFirstPeriod)
	assert.Equal(t, "0.2857", resp.Summary.FirstProrationFactor.String())

	require.Len(t, resp.PaymentAdjustments, 3)
	for _, p := range resp.PaymentAdjustments {
		assert.False(t, p.Shifted)
		assert.Empty(t, p.Reasons)
	}
}

func TestCalculatePayroll_DefaultsAndBeforeContract(t *testing.T) {
	// GIVEN: Today is before the contract starts
	ts := newTestServer(t, day(2023, time.June, 1))

	// WHEN: Calculating with only a start date
	rec := ts.do(t, http.MethodPost, "/api/payroll/calculate", `{"contractStartDate":"2024-01-05"}`)

	// THEN: 26 periods, no current period, no upcoming deadlines
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp CalculateResponse
	decodeEnvelope(t, rec, &resp)

	assert.Len(t, resp.Schedule, 26)
	assert.Nil(t, resp.CurrentPeriod)
	assert.NotNil(t, resp.UpcomingDeadlines)
	assert.Empty(t, resp.UpcomingDeadlines)

	// Friday start: first period runs to Wednesday 2024-01-24
	assert.Equal(t, "2024-01-24", resp.Summary.FirstPeriodEnd.String())
	assert.False(t, resp.Summary.HasPartialFirstPeriod)
	assert.Equal(t, "1.4286", resp.Summary.FirstProrationFactor.String())
}

func TestCalculatePayroll_DaysAheadAndTimestamp(t *testing.T) {
	// GIVEN: Today is 2024-01-10
	ts := newTestServer(t, day(2024, time.January, 10))

	// WHEN: Sending an RFC 3339 start and a narrow deadline window
	rec := ts.do(t, http.MethodPost, "/api/payroll/calculate",
		`{"contractStartDate":"2024-01-01T00:00:00Z","numberOfPeriods":3,"daysAhead":9}`)

	// THEN: Only the Jan 19 deadline is within Jan 10..Jan 19
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp CalculateResponse
	decodeEnvelope(t, rec, &resp)
	require.Len(t, resp.UpcomingDeadlines, 1)
	assert.Equal(t, "2024-01-19", resp.UpcomingDeadlines[0].SubmissionDeadline.String())
}

func TestCalculatePayroll_EstimatedPay(t *testing.T) {
	ts := newTestServer(t, day(2024, time.January, 10))

	// WHEN: A full-period amount is given as a string
	rec := ts.do(t, http.MethodPost, "/api/payroll/calculate",
		`{"contractStartDate":"2024-01-01","numberOfPeriods":2,"periodAmount":"1400"}`)

	// THEN: Each period carries a prorated estimate
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp CalculateResponse
	decodeEnvelope(t, rec, &resp)

	require.NotNil(t, resp.Schedule[0].EstimatedPay)
	assert.Equal(t, "400", resp.Schedule[0].EstimatedPay.String())
	assert.Equal(t, "1400", resp.Schedule[1].EstimatedPay.String())
	require.NotNil(t, resp.CurrentPeriod)
	require.NotNil(t, resp.CurrentPeriod.EstimatedPay)
	assert.Equal(t, "1400", resp.CurrentPeriod.EstimatedPay.String())
}

func TestCalculatePayroll_BoxingDayAdjustment(t *testing.T) {
	ts := newTestServer(t, day(2025, time.December, 1))

	// WHEN: Period 2 of a 2025-12-08 contract pays Friday Dec 26
	rec := ts.do(t, http.MethodPost, "/api/payroll/calculate",
		`{"contractStartDate":"2025-12-08","numberOfPeriods":3}`)

	// THEN: The payment moves past Boxing Day and the weekend
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp CalculateResponse
	decodeEnvelope(t, rec, &resp)

	adj := resp.PaymentAdjustments[1]
	assert.Equal(t, 2, adj.PeriodNumber)
	assert.Equal(t, "2025-12-26", adj.PaymentDate.String())
	assert.Equal(t, "2025-12-29", adj.AdjustedPaymentDate.String())
	assert.True(t, adj.Shifted)
	assert.Equal(t, []string{"Boxing Day", "weekend", "weekend"}, adj.Reasons)

	// The schedule itself still shows the unadjusted Friday
	assert.Equal(t, "2025-12-26", resp.Schedule[1].PaymentDate.String())
}

func TestCalculatePayroll_CompanyHoliday(t *testing.T) {
	// GIVEN: acme closes on Friday 2025-12-12
	ts := newTestServer(t, day(2025, time.December, 1))
	rec := ts.do(t, http.MethodPost, "/api/holidays",
		`{"companyId":"acme","date":"2025-12-12","name":"Founders Day"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := `{"contractStartDate":"2025-12-08","numberOfPeriods":1,"companyId":"%s"}`

	// WHEN: Calculating for acme and for another company
	acme := ts.do(t, http.MethodPost, "/api/payroll/calculate", strings.Replace(body, "%s", "acme", 1))
	globex := ts.do(t, http.MethodPost, "/api/payroll/calculate", strings.Replace(body, "%s", "globex", 1))

	// THEN: Only acme's payment moves to Monday
	var acmeResp, globexResp CalculateResponse
	decodeEnvelope(t, acme, &acmeResp)
	decodeEnvelope(t, globex, &globexResp)

	assert.Equal(t, "2025-12-15", acmeResp.PaymentAdjustments[0].AdjustedPaymentDate.String())
	assert.Equal(t, []string{"Founders Day", "weekend", "weekend"}, acmeResp.PaymentAdjustments[0].Reasons)
	assert.Equal(t, "2025-12-12", globexResp.PaymentAdjustments[0].AdjustedPaymentDate.String())
	assert.False(t, globexResp.PaymentAdjustments[0].Shifted)
}

func TestCalculatePayroll_ClientErrors(t *testing.T) {
	ts := newTestServer(t, day(2024, time.January, 10))

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing date", `{}`, "contractStartDate"},
		{"empty date", `{"contractStartDate":""}`, "contractStartDate"},
		{"non-string date", `{"contractStartDate":20240101}`, "must be a string"},
		{"unparseable date", `{"contractStartDate":"not-a-date"}`, "not-a-date"},
		{"impossible date", `{"contractStartDate":"2024-02-30"}`, "2024-02-30"},
		{"zero periods", `{"contractStartDate":"2024-01-01","numberOfPeriods":0}`, "numberOfPeriods"},
		{"too many periods", `{"contractStartDate":"2024-01-01","numberOfPeriods":521}`, "numberOfPeriods"},
		{"negative horizon", `{"contractStartDate":"2024-01-01","daysAhead":-1}`, "daysAhead"},
		{"negative amount", `{"contractStartDate":"2024-01-01","periodAmount":-5}`, "periodAmount"},
		{"malformed json", `{"contractStartDate":`, msgInvalidBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/payroll/calculate", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			env := decodeEnvelope(t, rec, nil)
			assert.False(t, env.Success)
			assert.Contains(t, env.Message, tt.message)
		})
	}
}

func TestCalculatePayroll_StoreFailure(t *testing.T) {
	// GIVEN: The holiday store has been closed
	ts := newTestServer(t, day(2024, time.January, 10))
	require.NoError(t, ts.store.Close())

	// WHEN: Calculating a valid schedule
	rec := ts.do(t, http.MethodPost, "/api/payroll/calculate", `{"contractStartDate":"2024-01-01"}`)

	// THEN: A generic 500, without the driver error
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec, nil)
	assert.False(t, env.Success)
	assert.Equal(t, msgCalculateFailed, env.Message)
}

func TestCalculatePayroll_WithoutStore(t *testing.T) {
	// GIVEN: A handler with no store uses the statutory table only
	h := NewHandler(nil, nil, nil)
	h.Now = func() time.Time { return day(2025, time.December, 1) }
	router := NewRouter(h, RouterOptions{})

	req := httptest.NewRequest(http.MethodPost, "/api/payroll/calculate",
		strings.NewReader(`{"contractStartDate":"2025-12-08","numberOfPeriods":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp CalculateResponse
	decodeEnvelope(t, rec, &resp)
	assert.Equal(t, "2025-12-29", resp.PaymentAdjustments[1].AdjustedPaymentDate.String())
}

// =============================================================================
// EXPORT
// =============================================================================

func TestExportSchedule(t *testing.T) {
	ts := newTestServer(t, day(2025, time.December, 1))
	body := `{"contractStartDate":"2025-12-08","numberOfPeriods":3}`

	t.Run("xlsx", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/payroll/export?format=xlsx", body)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="payroll-schedule-2025-12-08.xlsx"`)
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
	})

	t.Run("ics", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/payroll/export?format=ics", body)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
		assert.Contains(t, rec.Body.String(), "UID:period-2-payment@invoicepatch")
	})

	t.Run("default format is xlsx", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/payroll/export", body)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/payroll/export?format=pdf", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad date", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/payroll/export?format=ics", `{"contractStartDate":"tomorrow"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestCheckHoliday(t *testing.T) {
	ts := newTestServer(t, day(2025, time.December, 1))

	t.Run("boxing day", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/payroll/holidays/check?date=2025-12-26", "")

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var dto HolidayCheckDTO
		decodeEnvelope(t, rec, &dto)
		assert.True(t, dto.IsStatutoryHoliday)
		require.NotNil(t, dto.HolidayName)
		assert.Equal(t, "Boxing Day", *dto.HolidayName)
		assert.Equal(t, "2025-12-29", dto.AdjustedPaymentDate.String())
		require.Len(t, dto.Skipped, 3)
		assert.Equal(t, "Boxing Day", dto.Skipped[0].Reason)
	})

	t.Run("ordinary business day", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/payroll/holidays/check?date=2025-12-10", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var dto HolidayCheckDTO
		decodeEnvelope(t, rec, &dto)
		assert.False(t, dto.IsStatutoryHoliday)
		assert.Nil(t, dto.HolidayName)
		assert.Equal(t, "2025-12-10", dto.AdjustedPaymentDate.String())
		assert.Empty(t, dto.Skipped)
	})

	t.Run("company holiday", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/holidays",
			`{"companyId":"acme","date":"2025-12-12","name":"Founders Day"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = ts.do(t, http.MethodGet, "/api/payroll/holidays/check?date=2025-12-12&company_id=acme", "")

		var dto HolidayCheckDTO
		decodeEnvelope(t, rec, &dto)
		assert.False(t, dto.IsStatutoryHoliday)
		require.NotNil(t, dto.HolidayName)
		assert.Equal(t, "Founders Day", *dto.HolidayName)
		assert.Equal(t, "2025-12-15", dto.AdjustedPaymentDate.String())
	})

	t.Run("missing and bad date", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/payroll/holidays/check", "").Code)
		assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/payroll/holidays/check?date=12/26/2025", "").Code)
	})
}

func TestListStatutoryHolidays(t *testing.T) {
	ts := newTestServer(t, day(2025, time.March, 3))

	// WHEN: Listing for an explicit year
	rec := ts.do(t, http.MethodGet, "/api/holidays/statutory?year=2026", "")

	// THEN: The four built-in holidays dated in 2026, in order
	require.Equal(t, http.StatusOK, rec.Code)
	var holidays []HolidayDTO
	decodeEnvelope(t, rec, &holidays)
	require.Len(t, holidays, 4)
	assert.Equal(t, "2026-01-01", holidays[0].Date.String())
	assert.Equal(t, "Boxing Day", holidays[3].Name)

	// Default year comes from the clock
	rec = ts.do(t, http.MethodGet, "/api/holidays/statutory", "")
	decodeEnvelope(t, rec, &holidays)
	assert.Equal(t, "2025-07-01", holidays[1].Date.String())

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/holidays/statutory?year=abc", "").Code)
}

func TestHolidayCRUD(t *testing.T) {
	ts := newTestServer(t, day(2025, time.March, 3))

	// GIVEN: One global and one company holiday
	rec := ts.do(t, http.MethodPost, "/api/holidays",
		`{"date":"2025-08-04","name":"Civic Holiday","recurring":false}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created HolidayDTO
	decodeEnvelope(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "2025-08-04", created.Date.String())

	rec = ts.do(t, http.MethodPost, "/api/holidays",
		`{"companyId":"acme","date":"2025-12-12","name":"Founders Day","recurring":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN: Listing without and with a company
	var global, acme []HolidayDTO
	decodeEnvelope(t, ts.do(t, http.MethodGet, "/api/holidays", ""), &global)
	decodeEnvelope(t, ts.do(t, http.MethodGet, "/api/holidays?company_id=acme", ""), &acme)

	// THEN: Company rows are only visible to that company
	assert.Len(t, global, 1)
	require.Len(t, acme, 2)
	assert.Equal(t, "Founders Day", acme[1].Name)
	assert.True(t, acme[1].Recurring)

	// WHEN: Deleting twice
	rec = ts.do(t, http.MethodDelete, "/api/holidays/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodDelete, "/api/holidays/"+created.ID, "")

	// THEN: The second delete is a 404
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec, nil)
	assert.False(t, env.Success)
}

func TestCreateHoliday_Validation(t *testing.T) {
	ts := newTestServer(t, day(2025, time.March, 3))

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"date":"2025-08-04"}`},
		{"missing date", `{"name":"Civic Holiday"}`},
		{"wrong date format", `{"date":"08/04/2025","name":"Civic Holiday"}`},
		{"malformed json", `{"date":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/holidays", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, decodeEnvelope(t, rec, nil).Success)
		})
	}
}

// =============================================================================
// OPS
// =============================================================================

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, day(2024, time.January, 10))

	rec := ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	ts.do(t, http.MethodPost, "/api/payroll/calculate", `{"contractStartDate":"2025-12-08","numberOfPeriods":3}`)
	ts.do(t, http.MethodPost, "/api/payroll/calculate", `{}`)

	rec = ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, `payroll_schedules_calculated_total{outcome="ok"} 1`)
	assert.Contains(t, out, `payroll_schedules_calculated_total{outcome="client_error"} 1`)
	assert.Contains(t, out, `payroll_payment_adjustments_total{reason="Boxing Day"} 1`)
	assert.Contains(t, out, `payroll_http_requests_total{code="200",route="/api/payroll/calculate"}`)

	// Closed store fails the health check
	require.NoError(t, ts.store.Close())
	rec = ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_SecurityAndCORSHeaders(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer store.Close()

	h := NewHandler(store, zap.NewNop(), nil)
	router := NewRouter(h, RouterOptions{AllowedOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodGet, "/api/holidays/statutory", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
