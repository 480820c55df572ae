package fiscal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/tnb/internal/models"
)

// Exemption reasons reported on a decision.
const (
	ReasonStatutory     = "statutory_status"
	ReasonNoPermit      = "no_permit"
	ReasonWithinWindow  = "within_permit_window"
	ReasonWindowExpired = "permit_window_expired"
)

// PermanentWindowEnd is the window end of exemptions that never expire.
var PermanentWindowEnd = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// ExemptionInput is what the evaluator needs to know about a parcel.
// A zero AsOf means "today".
type ExemptionInput struct {
	AsOf        time.Time
	PermitDate  *time.Time
	Surface     decimal.Decimal
	LegalStatus models.LegalStatus
	Occupation  models.OccupationStatus
	ParcelID    int64
}

// ExemptionEvaluator decides whether a parcel's tax is waived.
type ExemptionEvaluator struct {
	now   func() time.Time
	tiers []ExemptionTier
}

// NewExemptionEvaluator creates an evaluator for the given surface tiers.
func NewExemptionEvaluator(tiers []ExemptionTier) (*ExemptionEvaluator, error) {
	if err := validateTiers(tiers); err != nil {
		return nil, err
	}
	return &ExemptionEvaluator{
		now:   time.Now,
		tiers: append([]ExemptionTier(nil), tiers...),
	}, nil
}

// Evaluate returns the exemption decision for in.
//
// Public-domain and collective parcels are exempt permanently. Otherwise a
// permit date is required, and the parcel is exempt while the as-of date is
// strictly before permit date + tier duration.
func (e *ExemptionEvaluator) Evaluate(in ExemptionInput) (models.ExemptionDecision, error) {
	if in.Surface.IsNegative() {
		return models.ExemptionDecision{}, invalid(in.ParcelID, "taxable_surface", in.Surface.String(), "must not be negative")
	}
	if !in.LegalStatus.Valid() {
		return models.ExemptionDecision{}, invalid(in.ParcelID, "legal_status", string(in.LegalStatus), "unknown legal status")
	}
	if !in.Occupation.Valid() {
		return models.ExemptionDecision{}, invalid(in.ParcelID, "occupation_status", string(in.Occupation), "unknown occupation status")
	}

	asOf := in.AsOf
	if asOf.IsZero() {
		asOf = e.now()
	}
	asOf = dateOnly(asOf)

	if in.LegalStatus.AlwaysExempt() {
		end := PermanentWindowEnd
		decision := models.ExemptionDecision{
			Exempt:    true,
			Permanent: true,
			WindowEnd: &end,
			Reason:    ReasonStatutory,
		}
		if in.PermitDate != nil {
			start := dateOnly(*in.PermitDate)
			decision.WindowStart = &start
		}
		return decision, nil
	}

	if in.PermitDate == nil {
		return models.ExemptionDecision{Reason: ReasonNoPermit}, nil
	}

	years, err := e.durationFor(in.ParcelID, in.Surface)
	if err != nil {
		return models.ExemptionDecision{}, err
	}

	start := dateOnly(*in.PermitDate)
	expiry := start.AddDate(years, 0, 0)
	decision := models.ExemptionDecision{
		WindowStart:   &start,
		WindowEnd:     &expiry,
		DurationYears: years,
		Reason:        ReasonWindowExpired,
	}
	if asOf.Before(expiry) {
		decision.Exempt = true
		decision.Reason = ReasonWithinWindow
		decision.RemainingDays = int(expiry.Sub(asOf).Hours() / 24)
	}
	return decision, nil
}

// durationFor returns the duration of the first tier whose bracket contains surface.
func (e *ExemptionEvaluator) durationFor(parcelID int64, surface decimal.Decimal) (int, error) {
	for _, tier := range e.tiers {
		if tier.Unbounded || surface.LessThanOrEqual(tier.MaxSurface) {
			if tier.DurationYears <= 0 {
				return 0, invalid(parcelID, "duration_years", fmt.Sprint(tier.DurationYears), "must be positive")
			}
			return tier.DurationYears, nil
		}
	}
	return 0, invalid(parcelID, "taxable_surface", surface.String(), "no exemption tier covers this surface")
}

// dateOnly truncates t to midnight UTC of its calendar day.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
