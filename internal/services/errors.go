package services

import (
	"errors"

	"github.com/stwalsh4118/tnb/internal/fiscal"
	"github.com/stwalsh4118/tnb/internal/repository"
	"github.com/stwalsh4118/tnb/internal/workflow"
)

// Service-level errors
var (
	ErrParcelNotFound = errors.New("parcel not found")
)

// Outcome labels recorded for fiscal computations and transitions.
const (
	OutcomeComputed      = "computed"
	OutcomeExempt        = "exempt"
	OutcomeNotApplicable = "not_applicable"
	OutcomeConfiguration = "configuration_error"
	OutcomeValidation    = "validation_error"
	OutcomeIndivision    = "indivision_error"
	OutcomeForbidden     = "forbidden"
	OutcomeNotFound      = "not_found"
	OutcomeConflict      = "conflict"
	OutcomeError         = "error"
	OutcomeAllowed       = "allowed"
)

// errorOutcome classifies err into a metrics label.
func errorOutcome(err error) string {
	switch {
	case errors.Is(err, fiscal.ErrConfiguration):
		return OutcomeConfiguration
	case errors.Is(err, fiscal.ErrValidation):
		return OutcomeValidation
	case errors.Is(err, fiscal.ErrIndivision):
		return OutcomeIndivision
	case errors.Is(err, workflow.ErrForbiddenTransition):
		return OutcomeForbidden
	case errors.Is(err, ErrParcelNotFound):
		return OutcomeNotFound
	case errors.Is(err, repository.ErrParcelVersionConflict):
		return OutcomeConflict
	default:
		return OutcomeError
	}
}
