package fiscal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/tnb/internal/models"
)

// MoneyPlaces is the number of decimal places kept on monetary amounts.
const MoneyPlaces = 2

// ReasonNotApplicable marks parcels that are not subject to TNB at all.
const ReasonNotApplicable = "not_subject_to_tax"

// Calculator computes the TNB amount of a parcel for a fiscal year.
type Calculator struct {
	evaluator *ExemptionEvaluator
	now       func() time.Time
	policy    Policy
}

// NewCalculator creates a calculator for the given policy.
func NewCalculator(policy Policy) (*Calculator, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fiscal policy: %w", err)
	}
	evaluator, err := NewExemptionEvaluator(policy.Tiers)
	if err != nil {
		return nil, err
	}
	return &Calculator{
		evaluator: evaluator,
		now:       time.Now,
		policy:    policy,
	}, nil
}

// Policy returns the policy the calculator was built with.
func (c *Calculator) Policy() Policy {
	return c.policy
}

// Compute returns the fiscal result of parcel for year, evaluated at asOf
// (today when zero). The result carries no owner breakdown.
//
// Amounts are computed exactly and rounded half-up to MoneyPlaces once, at
// the end. Fully built parcels yield a zero result marked NotApplicable,
// which is not an exemption.
func (c *Calculator) Compute(rates RateLookup, parcel models.Parcel, year int, asOf time.Time) (models.FiscalResult, error) {
	if err := c.validateParcel(parcel, year); err != nil {
		return models.FiscalResult{}, err
	}

	if asOf.IsZero() {
		asOf = c.now()
	}
	asOf = dateOnly(asOf)

	rate, err := rates.Rate(parcel.ZoneCode, year)
	if err != nil {
		return models.FiscalResult{}, err
	}

	result := models.FiscalResult{
		ParcelID:       parcel.ID,
		FiscalYear:     year,
		AsOf:           asOf,
		TaxableSurface: parcel.TaxableSurface,
		UnitTariff:     rate,
		GrossAmount:    decimal.Zero,
		ExemptedAmount: decimal.Zero,
		NetAmount:      decimal.Zero,
	}

	if !parcel.OccupationStatus.Taxable() {
		result.NotApplicable = true
		result.Exemption = models.ExemptionDecision{Reason: ReasonNotApplicable}
		return result, nil
	}

	decision, err := c.evaluator.Evaluate(ExemptionInput{
		ParcelID:    parcel.ID,
		Surface:     parcel.TaxableSurface,
		LegalStatus: parcel.LegalStatus,
		Occupation:  parcel.OccupationStatus,
		PermitDate:  parcel.PermitDate,
		AsOf:        asOf,
	})
	if err != nil {
		return models.FiscalResult{}, err
	}

	gross := parcel.TaxableSurface.Mul(rate)
	exempted := decimal.Zero
	if decision.Exempt {
		exempted = gross
	}

	result.Exemption = decision
	result.ExemptionApplied = decision.Exempt
	result.GrossAmount = roundMoney(gross)
	result.ExemptedAmount = roundMoney(exempted)
	result.NetAmount = result.GrossAmount.Sub(result.ExemptedAmount)
	return result, nil
}

func (c *Calculator) validateParcel(parcel models.Parcel, year int) error {
	if !parcel.TaxableSurface.IsPositive() {
		return invalid(parcel.ID, "taxable_surface", parcel.TaxableSurface.String(), "must be greater than zero")
	}
	if parcel.TaxableSurface.GreaterThan(c.policy.MaxSurface) {
		return invalid(parcel.ID, "taxable_surface", parcel.TaxableSurface.String(),
			fmt.Sprintf("exceeds the %s m² ceiling", c.policy.MaxSurface.String()))
	}
	if parcel.ZoneCode == "" {
		return invalid(parcel.ID, "zone_code", "", "is required")
	}
	if year <= 0 {
		return invalid(parcel.ID, "fiscal_year", fmt.Sprint(year), "must be positive")
	}
	if !parcel.LegalStatus.Valid() {
		return invalid(parcel.ID, "legal_status", string(parcel.LegalStatus), "unknown legal status")
	}
	if !parcel.OccupationStatus.Valid() {
		return invalid(parcel.ID, "occupation_status", string(parcel.OccupationStatus), "unknown occupation status")
	}
	return nil
}

func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}
