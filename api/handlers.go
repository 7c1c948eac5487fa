/*
handlers.go - HTTP API handlers for the payroll pay-period calculator

PURPOSE:
  Exposes the payroll schedule engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the payroll,
  calendar and export packages.

ENDPOINTS:
  Payroll:
    POST   /api/payroll/calculate       Schedule, current period, deadlines
    POST   /api/payroll/export          Schedule as xlsx or ics download
    GET    /api/payroll/holidays/check  Holiday lookup and payment adjustment

  Holidays:
    GET    /api/holidays/statutory      Built-in statutory table
    GET    /api/holidays                Stored custom holidays
    POST   /api/holidays                Create custom holiday
    DELETE /api/holidays/{id}           Delete custom holiday

  Ops:
    GET    /healthz                     Database ping

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Custom holiday persistence (nil means statutory table only)
  - Logger: zap logger for unexpected errors
  - Metrics: Prometheus collectors (nil disables)
  - Now: Clock used for "today"; tests pin it

REQUEST FLOW:
  1. Decode JSON body
  2. Validate tags
  3. Call domain logic (payroll.Calculate, calendar.Adjust)
  4. Serialize response in the success envelope
  5. Map errors

ERROR HANDLING:
  - 400: Invalid JSON, validation errors, payroll.IsClientError
  - 404: Unknown holiday
  - 409: Holiday ID conflict
  - 500: Everything else; the cause is logged, the client gets a
         generic message

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/invoicepatch/payroll-engine/calendar"
	"github.com/invoicepatch/payroll-engine/export"
	"github.com/invoicepatch/payroll-engine/payroll"
	"github.com/invoicepatch/payroll-engine/store/sqlite"
)

// Export formats accepted by ExportSchedule.
const (
	FormatXLSX = "xlsx"
	FormatICS  = "ics"
)

const (
	msgCalculateFailed = "Failed to calculate payroll schedule"
	msgInvalidBody     = "Invalid request body"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Logger  *zap.Logger
	Metrics *Metrics

	// Now returns the current time; the calendar day in its location is
	// "today" for current-period and deadline lookups.
	Now func() time.Time

	// DefaultPeriods is used when a request omits numberOfPeriods.
	DefaultPeriods int
}

// NewHandler creates a handler with the wall clock and the standard
// period count.
func NewHandler(store *sqlite.Store, log *zap.Logger, metrics *Metrics) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:          store,
		Logger:         log,
		Metrics:        metrics,
		Now:            time.Now,
		DefaultPeriods: payroll.DefaultPeriods,
	}
}

func (h *Handler) today() calendar.Date {
	if h.Now == nil {
		return calendar.Today()
	}
	return calendar.FromTime(h.Now())
}

// calendarFor returns the statutory table plus the custom holidays that
// apply to companyID.
func (h *Handler) calendarFor(ctx context.Context, companyID string) (*calendar.Table, error) {
	if h.Store == nil {
		return calendar.StatutoryTable(), nil
	}
	return h.Store.LoadCalendar(ctx, companyID)
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

type scheduleResult struct {
	schedule *payroll.Schedule
	payments []payroll.PaymentAdjustment
}

// buildSchedule calculates the schedule and its adjusted payment dates.
func (h *Handler) buildSchedule(ctx context.Context, req *CalculateRequest) (*scheduleResult, error) {
	n := h.DefaultPeriods
	if req.NumberOfPeriods != nil {
		n = *req.NumberOfPeriods
	}

	s, err := payroll.Calculate(req.ContractStartDate, n)
	if err != nil {
		return nil, err
	}

	cal, err := h.calendarFor(ctx, req.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("load holiday calendar: %w", err)
	}
	payments, err := payroll.AdjustPayments(s, cal)
	if err != nil {
		return nil, fmt.Errorf("adjust payment dates: %w", err)
	}
	return &scheduleResult{schedule: s, payments: payments}, nil
}

// CalculatePayroll returns the full schedule for a contract start date.
// POST /api/payroll/calculate
func (h *Handler) CalculatePayroll(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCalculateRequest(w, r)
	if !ok {
		return
	}

	res, err := h.buildSchedule(r.Context(), req)
	if err != nil {
		h.scheduleError(w, err)
		return
	}

	resp, err := h.calculateResponse(res, req)
	if err != nil {
		h.scheduleError(w, err)
		return
	}

	h.Metrics.observeSchedule("ok", res.schedule)
	h.Metrics.observePayments(res.payments)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) calculateResponse(res *scheduleResult, req *CalculateRequest) (CalculateResponse, error) {
	s := res.schedule
	today := h.today()

	daysAhead := payroll.DefaultDeadlineHorizon
	if req.DaysAhead != nil {
		daysAhead = *req.DaysAhead
	}
	upcoming, err := s.UpcomingDeadlines(today, daysAhead)
	if err != nil {
		return CalculateResponse{}, err
	}

	periods, err := toPayPeriodDTOs(s.Periods(), req.PeriodAmount)
	if err != nil {
		return CalculateResponse{}, err
	}
	upcomingDTOs, err := toPayPeriodDTOs(upcoming, req.PeriodAmount)
	if err != nil {
		return CalculateResponse{}, err
	}

	var current *PayPeriodDTO
	if p, ok := s.CurrentPeriod(today); ok {
		// Same period, same amount; EstimatePay already succeeded above.
		dto, _ := toPayPeriodDTO(p, req.PeriodAmount)
		current = &dto
	}

	return CalculateResponse{
		Schedule:           periods,
		CurrentPeriod:      current,
		UpcomingDeadlines:  upcomingDTOs,
		Summary:            toSummaryDTO(s),
		PaymentAdjustments: toPaymentAdjustmentDTOs(res.payments),
	}, nil
}

// ExportSchedule streams the schedule as a spreadsheet or calendar file.
// POST /api/payroll/export?format=xlsx|ics
func (h *Handler) ExportSchedule(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = FormatXLSX
	}
	if format != FormatXLSX && format != FormatICS {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported export format %q (use xlsx or ics)", format))
		return
	}

	req, ok := h.decodeCalculateRequest(w, r)
	if !ok {
		return
	}

	res, err := h.buildSchedule(r.Context(), req)
	if err != nil {
		h.scheduleError(w, err)
		return
	}

	// Render fully before writing headers so a failure is still a clean 500.
	var buf bytes.Buffer
	var contentType string
	switch format {
	case FormatICS:
		contentType = "text/calendar; charset=utf-8"
		err = export.WriteICS(&buf, res.schedule, res.payments)
	default:
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = export.WriteXLSX(&buf, res.schedule, res.payments)
	}
	if err != nil {
		h.Logger.Error("export failed", zap.String("format", format), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to export payroll schedule")
		return
	}

	h.Metrics.observeSchedule("ok", res.schedule)
	h.Metrics.observeExport(format)

	filename := fmt.Sprintf("payroll-schedule-%s.%s", res.schedule.ContractStartDate(), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// CheckHoliday reports whether a date is a holiday and where a payment due
// that day would land.
// GET /api/payroll/holidays/check?date=YYYY-MM-DD&company_id=
func (h *Handler) CheckHoliday(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "date query parameter is required")
		return
	}
	d, err := calendar.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cal, err := h.calendarFor(r.Context(), r.URL.Query().Get("company_id"))
	if err != nil {
		h.Logger.Error("load holiday calendar failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to check holiday")
		return
	}

	adj, err := calendar.Adjust(d, cal)
	if err != nil {
		h.Logger.Error("adjust payment date failed", zap.Stringer("date", d), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to check holiday")
		return
	}

	dto := HolidayCheckDTO{
		Date:                d,
		IsStatutoryHoliday:  calendar.IsStatutoryHoliday(d),
		AdjustedPaymentDate: adj.Adjusted,
		Skipped:             make([]SkippedDayDTO, 0, len(adj.Skipped)),
	}
	if name, ok := cal.HolidayOn(d); ok {
		dto.HolidayName = &name
	}
	for _, s := range adj.Skipped {
		dto.Skipped = append(dto.Skipped, SkippedDayDTO{Date: s.Date, Reason: s.Reason})
	}

	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListStatutoryHolidays returns the built-in table placed in ?year=
// (default: the current year).
// GET /api/holidays/statutory
func (h *Handler) ListStatutoryHolidays(w http.ResponseWriter, r *http.Request) {
	year := h.today().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1 || y > 9999 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid year %q", raw))
			return
		}
		year = y
	}

	writeJSON(w, http.StatusOK, toHolidayDTOs(calendar.StatutoryTable().Holidays(year)))
}

// ListHolidays returns stored custom holidays, global plus ?company_id=.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeJSON(w, http.StatusOK, []HolidayDTO{})
		return
	}

	holidays, err := h.Store.ListHolidays(r.Context(), r.URL.Query().Get("company_id"))
	if err != nil {
		h.Logger.Error("list holidays failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list holidays")
		return
	}

	writeJSON(w, http.StatusOK, toHolidayDTOs(holidays))
}

// CreateHoliday stores a custom holiday.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "Holiday store is not configured")
		return
	}

	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := validateRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	holiday := calendar.Holiday{
		CompanyID: req.CompanyID,
		Date:      d,
		Name:      req.Name,
		Recurring: req.Recurring,
	}
	id, err := h.Store.SaveHoliday(r.Context(), holiday)
	if err != nil {
		if errors.Is(err, sqlite.ErrDuplicateHoliday) {
			writeError(w, http.StatusConflict, "Holiday already exists")
			return
		}
		h.Logger.Error("save holiday failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create holiday")
		return
	}
	holiday.ID = id

	writeJSON(w, http.StatusCreated, toHolidayDTOs([]calendar.Holiday{holiday})[0])
}

// DeleteHoliday removes a custom holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "Holiday store is not configured")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteHoliday(r.Context(), id); err != nil {
		if errors.Is(err, sqlite.ErrHolidayNotFound) {
			writeError(w, http.StatusNotFound, "Holiday not found")
			return
		}
		h.Logger.Error("delete holiday failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// Health reports whether the database answers.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Store != nil {
		if err := h.Store.Ping(r.Context()); err != nil {
			h.Logger.Warn("health check failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// decodeCalculateRequest writes a 400 and returns false when the body is
// not valid JSON or fails validation. A non-string contractStartDate is a
// decode error.
func (h *Handler) decodeCalculateRequest(w http.ResponseWriter, r *http.Request) (*CalculateRequest, bool) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "contractStartDate" {
			writeError(w, http.StatusBadRequest, "contractStartDate must be a string")
		} else {
			writeError(w, http.StatusBadRequest, msgInvalidBody)
		}
		h.Metrics.observeSchedule("client_error", nil)
		return nil, false
	}
	if err := validateRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		h.Metrics.observeSchedule("client_error", nil)
		return nil, false
	}
	return &req, true
}

// scheduleError maps a calculation error to 400 or a generic 500.
func (h *Handler) scheduleError(w http.ResponseWriter, err error) {
	if payroll.IsClientError(err) {
		h.Metrics.observeSchedule("client_error", nil)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.Metrics.observeSchedule("error", nil)
	h.Logger.Error("payroll calculation failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, msgCalculateFailed)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Success: false, Message: message})
}
