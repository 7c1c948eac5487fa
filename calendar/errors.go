package calendar

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDate is returned when a date string does not name a calendar day.
	ErrInvalidDate = errors.New("invalid date")

	// ErrNoBusinessDay is returned when a holiday table leaves no business day
	// within a year of the requested date.
	ErrNoBusinessDay = errors.New("no business day found")
)

// InvalidDateError carries the rejected input.
type InvalidDateError struct {
	Input  string
	Reason string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q: %s", e.Input, e.Reason)
}

func (e *InvalidDateError) Unwrap() error {
	return ErrInvalidDate
}
