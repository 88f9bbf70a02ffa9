package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidRates marks rate data that must never reach a calculation.
var ErrInvalidRates = errors.New("invalid rate configuration")

// UnconfiguredTaxYearError is returned when no rates exist for a tax year.
// Rates change by statute every year, so callers must not fall back to a
// neighbouring year.
type UnconfiguredTaxYearError struct {
	StartYear int
}

func (e *UnconfiguredTaxYearError) Error() string {
	return fmt.Sprintf("no rates configured for tax year %s", NewTaxYear(e.StartYear).Label())
}

// IsUnconfiguredTaxYear reports whether err is (or wraps) an UnconfiguredTaxYearError.
func IsUnconfiguredTaxYear(err error) bool {
	var target *UnconfiguredTaxYearError
	return errors.As(err, &target)
}
