package fiscal

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/tnb/internal/models"
)

// RateLookup resolves the unit tariff of a zone for a fiscal year.
type RateLookup interface {
	Rate(zone string, year int) (decimal.Decimal, error)
}

// TariffTable answers rate lookups over the tariff entries supplied by the
// persistence layer. It never falls back to another year.
type TariffTable struct {
	entries []models.Tariff
}

// NewTariffTable creates a table over a snapshot of tariff entries.
func NewTariffTable(entries []models.Tariff) *TariffTable {
	return &TariffTable{entries: append([]models.Tariff(nil), entries...)}
}

// Rate returns the unit rate of the single active tariff for zone and year.
// No active entry is a NotFound ConfigurationError; more than one, or a
// non-positive rate, is a data-integrity ConfigurationError.
func (t *TariffTable) Rate(zone string, year int) (decimal.Decimal, error) {
	var matches []models.Tariff
	for _, entry := range t.entries {
		if entry.Active && entry.ZoneCode == zone && entry.FiscalYear == year {
			matches = append(matches, entry)
		}
	}

	switch len(matches) {
	case 0:
		return decimal.Zero, &ConfigurationError{
			Zone:     zone,
			Year:     year,
			NotFound: true,
			Reason:   "no active tariff",
		}
	case 1:
	default:
		return decimal.Zero, &ConfigurationError{
			Zone:   zone,
			Year:   year,
			Count:  len(matches),
			Reason: fmt.Sprintf("%d active tariffs, expected exactly one", len(matches)),
		}
	}

	rate := matches[0].UnitRate
	if !rate.IsPositive() {
		return decimal.Zero, &ConfigurationError{
			Zone:   zone,
			Year:   year,
			Count:  1,
			Reason: fmt.Sprintf("unit rate %s must be positive", rate.String()),
		}
	}
	return rate, nil
}
