package models

import (
	"github.com/shopspring/decimal"
)

// Tariff is the unit rate (currency per square meter) applied to a zone for a fiscal year.
type Tariff struct {
	UnitRate   decimal.Decimal `json:"unitRate"`
	ZoneCode   string          `json:"zoneCode"`
	ID         int64           `json:"id"`
	FiscalYear int             `json:"fiscalYear"`
	Active     bool            `json:"active"`
}
