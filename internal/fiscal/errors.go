package fiscal

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors. Every typed error in this package unwraps to one of them,
// so callers can branch with errors.Is and still errors.As for the details.
var (
	ErrConfiguration  = errors.New("fiscal configuration error")
	ErrTariffNotFound = errors.New("tariff not found")
	ErrValidation     = errors.New("invalid fiscal input")
	ErrIndivision     = errors.New("ownership shares do not partition the parcel")
)

// ConfigurationError reports missing or inconsistent tariff/policy data.
// It is a data setup problem, not a user input problem.
type ConfigurationError struct {
	Zone   string
	Reason string
	Year   int
	Count  int
	// NotFound is set when no active tariff exists for Zone and Year.
	NotFound bool
}

func (e *ConfigurationError) Error() string {
	if e.Zone == "" {
		return fmt.Sprintf("%s: %s", ErrConfiguration, e.Reason)
	}
	return fmt.Sprintf("%s: zone %q year %d: %s", ErrConfiguration, e.Zone, e.Year, e.Reason)
}

// Is matches both ErrConfiguration and, for missing tariffs, ErrTariffNotFound.
func (e *ConfigurationError) Is(target error) bool {
	if target == ErrConfiguration {
		return true
	}
	return e.NotFound && target == ErrTariffNotFound
}

// ValidationError reports a malformed parcel, share or evaluator input.
type ValidationError struct {
	Field    string
	Value    string
	Reason   string
	ParcelID int64
}

func (e *ValidationError) Error() string {
	if e.ParcelID != 0 {
		return fmt.Sprintf("%s: parcel %d: %s=%q: %s", ErrValidation, e.ParcelID, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("%s: %s=%q: %s", ErrValidation, e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// IndivisionError reports active shares whose sum is not 1 within tolerance.
// No amount may be produced for the parcel until the shares are corrected.
type IndivisionError struct {
	Sum       decimal.Decimal
	Tolerance decimal.Decimal
	ParcelID  int64
	Shares    int
}

func (e *IndivisionError) Error() string {
	return fmt.Sprintf("%s: parcel %d: %d active shares sum to %s, expected 1 (tolerance %s)",
		ErrIndivision, e.ParcelID, e.Shares, e.Sum.String(), e.Tolerance.String())
}

func (e *IndivisionError) Unwrap() error { return ErrIndivision }

func invalid(parcelID int64, field, value, reason string) error {
	return &ValidationError{ParcelID: parcelID, Field: field, Value: value, Reason: reason}
}
