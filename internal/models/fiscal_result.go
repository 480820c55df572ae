package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExemptionDecision describes whether, and for how long, a parcel's tax is waived.
// It is derived on every computation and never persisted on its own.
type ExemptionDecision struct {
	WindowStart   *time.Time `json:"windowStart,omitempty"`
	WindowEnd     *time.Time `json:"windowEnd,omitempty"`
	Reason        string     `json:"reason"`
	DurationYears int        `json:"durationYears"`
	RemainingDays int        `json:"remainingDays"`
	Exempt        bool       `json:"exempt"`
	Permanent     bool       `json:"permanent"`
}

// OwnerAmount is one co-owner's part of a parcel's net amount.
type OwnerAmount struct {
	Share   decimal.Decimal `json:"share"`
	Amount  decimal.Decimal `json:"amount"`
	OwnerID int64           `json:"ownerId"`
}

// FiscalResult is the outcome of one fiscal computation for a parcel and year.
// Values are rounded to two decimal places. A result is never mutated,
// only superseded by a later computation.
type FiscalResult struct {
	AsOf             time.Time         `json:"asOf"`
	Exemption        ExemptionDecision `json:"exemption"`
	Owners           []OwnerAmount     `json:"owners"`
	TaxableSurface   decimal.Decimal   `json:"taxableSurface"`
	UnitTariff       decimal.Decimal   `json:"unitTariff"`
	GrossAmount      decimal.Decimal   `json:"grossAmount"`
	ExemptedAmount   decimal.Decimal   `json:"exemptedAmount"`
	NetAmount        decimal.Decimal   `json:"netAmount"`
	ParcelID         int64             `json:"parcelId"`
	FiscalYear       int               `json:"fiscalYear"`
	ExemptionApplied bool              `json:"exemptionApplied"`
	NotApplicable    bool              `json:"notApplicable"`
}

// WithOwners returns a copy of the result carrying the given owner breakdown.
func (r FiscalResult) WithOwners(owners []OwnerAmount) FiscalResult {
	r.Owners = append([]OwnerAmount(nil), owners...)
	return r
}

// FiscalNotice is the persisted record of an issued fiscal result.
type FiscalNotice struct {
	IssuedAt time.Time    `json:"issuedAt"`
	IssuedBy string       `json:"issuedBy"`
	Result   FiscalResult `json:"result"`
	ID       uuid.UUID    `json:"id"`
}
