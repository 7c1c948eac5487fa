/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the payroll and calendar packages (which carry no JSON tags) from the
  external API contract. Field names are camelCase.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

ENVELOPE:
  Every JSON response is wrapped in Response:
    { "success": true,  "data": ... }
    { "success": false, "message": "..." }

VALIDATION:
  Request types carry go-playground/validator tags; see validate.go.
  Domain rules (date parsing, period range) are enforced again by the
  payroll package.

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/schedule.go: Schedule and PayPeriod
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/invoicepatch/payroll-engine/calendar"
	"github.com/invoicepatch/payroll-engine/payroll"
)

// Response is the envelope for every JSON response.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// =============================================================================
// SCHEDULE
// =============================================================================

// CalculateRequest is the body of the calculate and export endpoints.
type CalculateRequest struct {
	ContractStartDate string           `json:"contractStartDate" validate:"required"`
	NumberOfPeriods   *int             `json:"numberOfPeriods" validate:"omitempty,min=1,max=520"`
	DaysAhead         *int             `json:"daysAhead" validate:"omitempty,gte=0"`
	CompanyID         string           `json:"companyId" validate:"omitempty,max=64"`
	PeriodAmount      *decimal.Decimal `json:"periodAmount"` // Number or numeric string
}

// PayPeriodDTO represents one pay period in API responses.
type PayPeriodDTO struct {
	PeriodNumber       int              `json:"periodNumber"`
	StartDate          calendar.Date    `json:"startDate"`
	EndDate            calendar.Date    `json:"endDate"`
	DaysInPeriod       int              `json:"daysInPeriod"`
	IsPartialPeriod    bool             `json:"isPartialPeriod"`
	SubmissionDeadline calendar.Date    `json:"submissionDeadline"`
	PaymentDate        calendar.Date    `json:"paymentDate"`
	FormattedDates     string           `json:"formattedDates"`
	ProrationFactor    decimal.Decimal  `json:"prorationFactor"`
	EstimatedPay       *decimal.Decimal `json:"estimatedPay,omitempty"`
}

// SummaryDTO describes a schedule at a glance.
type SummaryDTO struct {
	TotalPeriods          int             `json:"totalPeriods"`
	ContractStartDate     calendar.Date   `json:"contractStartDate"`
	FirstPeriodEnd        calendar.Date   `json:"firstPeriodEnd"`
	LastPeriodEnd         calendar.Date   `json:"lastPeriodEnd"`
	HasPartialFirstPeriod bool            `json:"hasPartialFirstPeriod"`
	FirstProrationFactor  decimal.Decimal `json:"firstProrationFactor"`
}

// PaymentAdjustmentDTO is the business-day payment date of one period.
type PaymentAdjustmentDTO struct {
	PeriodNumber        int           `json:"periodNumber"`
	PaymentDate         calendar.Date `json:"paymentDate"`
	AdjustedPaymentDate calendar.Date `json:"adjustedPaymentDate"`
	Shifted             bool          `json:"shifted"`
	Reasons             []string      `json:"reasons"`
}

// CalculateResponse is the data of POST /api/payroll/calculate.
type CalculateResponse struct {
	Schedule           []PayPeriodDTO         `json:"schedule"`
	CurrentPeriod      *PayPeriodDTO          `json:"currentPeriod"`
	UpcomingDeadlines  []PayPeriodDTO         `json:"upcomingDeadlines"`
	Summary            SummaryDTO             `json:"summary"`
	PaymentAdjustments []PaymentAdjustmentDTO `json:"paymentAdjustments"`
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// HolidayDTO represents a holiday in API responses.
type HolidayDTO struct {
	ID        string        `json:"id"`
	CompanyID string        `json:"companyId,omitempty"`
	Date      calendar.Date `json:"date"`
	Name      string        `json:"name"`
	Recurring bool          `json:"recurring"`
}

// CreateHolidayRequest is the body of POST /api/holidays.
type CreateHolidayRequest struct {
	CompanyID string `json:"companyId" validate:"omitempty,max=64"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Name      string `json:"name" validate:"required,max=100"`
	Recurring bool   `json:"recurring"`
}

// SkippedDayDTO is one day the payment date rolled past.
type SkippedDayDTO struct {
	Date   calendar.Date `json:"date"`
	Reason string        `json:"reason"`
}

// HolidayCheckDTO is the data of GET /api/payroll/holidays/check.
type HolidayCheckDTO struct {
	Date                calendar.Date   `json:"date"`
	IsStatutoryHoliday  bool            `json:"isStatutoryHoliday"`
	HolidayName         *string         `json:"holidayName"`
	AdjustedPaymentDate calendar.Date   `json:"adjustedPaymentDate"`
	Skipped             []SkippedDayDTO `json:"skipped"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toPayPeriodDTO(p payroll.PayPeriod, periodAmount *decimal.Decimal) (PayPeriodDTO, error) {
	dto := PayPeriodDTO{
		PeriodNumber:       p.PeriodNumber,
		StartDate:          p.StartDate,
		EndDate:            p.EndDate,
		DaysInPeriod:       p.DaysInPeriod,
		IsPartialPeriod:    p.IsPartialPeriod,
		SubmissionDeadline: p.SubmissionDeadline,
		PaymentDate:        p.PaymentDate,
		FormattedDates:     payroll.FormatPeriodDates(p),
		ProrationFactor:    payroll.ProrationFactor(p),
	}
	if periodAmount != nil {
		pay, err := payroll.EstimatePay(p, *periodAmount)
		if err != nil {
			return PayPeriodDTO{}, err
		}
		dto.EstimatedPay = &pay
	}
	return dto, nil
}

func toPayPeriodDTOs(periods []payroll.PayPeriod, periodAmount *decimal.Decimal) ([]PayPeriodDTO, error) {
	dtos := make([]PayPeriodDTO, 0, len(periods))
	for _, p := range periods {
		dto, err := toPayPeriodDTO(p, periodAmount)
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

func toSummaryDTO(s *payroll.Schedule) SummaryDTO {
	sum := s.Summary()
	first, _ := s.Period(1)
	return SummaryDTO{
		TotalPeriods:          sum.TotalPeriods,
		ContractStartDate:     sum.ContractStartDate,
		FirstPeriodEnd:        sum.FirstPeriodEnd,
		LastPeriodEnd:         sum.LastPeriodEnd,
		HasPartialFirstPeriod: sum.HasPartialFirstPeriod,
		FirstProrationFactor:  payroll.ProrationFactor(first),
	}
}

func toPaymentAdjustmentDTOs(payments []payroll.PaymentAdjustment) []PaymentAdjustmentDTO {
	dtos := make([]PaymentAdjustmentDTO, 0, len(payments))
	for _, p := range payments {
		reasons := p.Reasons
		if reasons == nil {
			reasons = []string{}
		}
		dtos = append(dtos, PaymentAdjustmentDTO{
			PeriodNumber:        p.PeriodNumber,
			PaymentDate:         p.PaymentDate,
			AdjustedPaymentDate: p.AdjustedPaymentDate,
			Shifted:             p.Shifted,
			Reasons:             reasons,
		})
	}
	return dtos
}

func toHolidayDTOs(holidays []calendar.Holiday) []HolidayDTO {
	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, h := range holidays {
		dtos = append(dtos, HolidayDTO{
			ID:        h.ID,
			CompanyID: h.CompanyID,
			Date:      h.Date,
			Name:      h.Name,
			Recurring: h.Recurring,
		})
	}
	return dtos
}
