package payroll

import (
	"errors"
	"fmt"

	"github.com/invoicepatch/payroll-engine/calendar"
)

// ErrInvalidArgument is returned for out-of-range inputs such as a
// non-positive period count.
var ErrInvalidArgument = errors.New("invalid argument")

// InvalidArgumentError names the offending argument.
type InvalidArgumentError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, calendar.ErrInvalidDate)
}
