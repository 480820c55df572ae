package repository

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NUMERIC columns are selected as text and parsed here so no precision is
// lost between PostgreSQL and shopspring/decimal.
func parseDecimal(column, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s value %q: %w", column, raw, err)
	}
	return d, nil
}
