package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OwnershipShare is a co-owner's quote-part of a parcel.
// Share is a fraction in (0, 1]; a single owner holds a share of exactly 1.
type OwnershipShare struct {
	StartDate *time.Time      `json:"startDate,omitempty"`
	EndDate   *time.Time      `json:"endDate,omitempty"`
	Share     decimal.Decimal `json:"share"`
	ParcelID  int64           `json:"parcelId"`
	OwnerID   int64           `json:"ownerId"`
	Active    bool            `json:"active"`
}

// CoversDate reports whether the share's validity window includes day.
// Open bounds are unbounded; the end date is inclusive.
func (s OwnershipShare) CoversDate(day time.Time) bool {
	if s.StartDate != nil && day.Before(*s.StartDate) {
		return false
	}
	if s.EndDate != nil && day.After(*s.EndDate) {
		return false
	}
	return true
}
