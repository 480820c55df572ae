package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LegalStatus is the land-registry status of a parcel.
type LegalStatus string

// Legal statuses recognised by the land registry.
const (
	LegalTitled        LegalStatus = "titled"
	LegalInRequisition LegalStatus = "in_requisition"
	LegalUntitled      LegalStatus = "untitled"
	LegalPublicDomain  LegalStatus = "public_domain"
	LegalCollective    LegalStatus = "collective"
)

// Valid reports whether s is one of the known legal statuses.
func (s LegalStatus) Valid() bool {
	switch s {
	case LegalTitled, LegalInRequisition, LegalUntitled, LegalPublicDomain, LegalCollective:
		return true
	}
	return false
}

// AlwaysExempt reports whether parcels with this status are exempt by law,
// whatever their surface or permit.
func (s LegalStatus) AlwaysExempt() bool {
	return s == LegalPublicDomain || s == LegalCollective
}

// OccupationStatus describes how much of a parcel is built on.
type OccupationStatus string

// Occupation statuses.
const (
	OccupationBare              OccupationStatus = "bare"
	OccupationBuilt             OccupationStatus = "built"
	OccupationUnderConstruction OccupationStatus = "under_construction"
	OccupationPartiallyBuilt    OccupationStatus = "partially_built"
)

// Valid reports whether s is one of the known occupation statuses.
func (s OccupationStatus) Valid() bool {
	switch s {
	case OccupationBare, OccupationBuilt, OccupationUnderConstruction, OccupationPartiallyBuilt:
		return true
	}
	return false
}

// Taxable reports whether a parcel in this status is subject to TNB.
// Fully built parcels have no unbuilt remainder and are out of scope of the tax.
func (s OccupationStatus) Taxable() bool {
	return s != OccupationBuilt
}

// Parcel is the subset of a land parcel record needed for fiscal computation.
// TaxableSurface is the surface already restricted to the taxable portion,
// in square meters.
type Parcel struct {
	PermitDate       *time.Time       `json:"permitDate,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
	TaxableSurface   decimal.Decimal  `json:"taxableSurface"`
	Reference        string           `json:"reference"`
	ZoneCode         string           `json:"zoneCode"`
	LegalStatus      LegalStatus      `json:"legalStatus"`
	OccupationStatus OccupationStatus `json:"occupationStatus"`
	State            WorkflowState    `json:"state"`
	ID               int64            `json:"id"`
	Version          int64            `json:"version"`
}
