package fiscal

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ExemptionTier maps a surface bracket to an exemption duration.
// A tier covers surfaces up to and including MaxSurface; the last tier is
// Unbounded and covers everything above the previous bracket.
type ExemptionTier struct {
	MaxSurface    decimal.Decimal
	DurationYears int
	Unbounded     bool
}

// Policy is the fiscal configuration the calculator and apportionment
// engine are evaluated against.
type Policy struct {
	// Tiers are ordered by ascending MaxSurface.
	Tiers []ExemptionTier
	// ShareTolerance is the accepted distance between the sum of active
	// shares and 1.
	ShareTolerance decimal.Decimal
	// MaxSurface is the sanity ceiling for a taxable surface, in m².
	MaxSurface decimal.Decimal
}

// DefaultPolicy returns the reference configuration:
// up to 100 m² exempt for 3 years, up to 500 m² for 5 years, above for 7 years.
func DefaultPolicy() Policy {
	return Policy{
		Tiers: []ExemptionTier{
			{MaxSurface: decimal.NewFromInt(100), DurationYears: 3},
			{MaxSurface: decimal.NewFromInt(500), DurationYears: 5},
			{DurationYears: 7, Unbounded: true},
		},
		ShareTolerance: decimal.New(1, -4),
		MaxSurface:     decimal.NewFromInt(10_000_000),
	}
}

// Validate checks that the policy can drive a computation.
func (p Policy) Validate() error {
	if err := validateTiers(p.Tiers); err != nil {
		return err
	}
	if p.ShareTolerance.IsNegative() || p.ShareTolerance.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return invalid(0, "share_tolerance", p.ShareTolerance.String(), "must be in [0, 1)")
	}
	if !p.MaxSurface.IsPositive() {
		return invalid(0, "max_surface", p.MaxSurface.String(), "must be positive")
	}
	return nil
}

func validateTiers(tiers []ExemptionTier) error {
	if len(tiers) == 0 {
		return invalid(0, "exemption_tiers", "[]", "at least one tier is required")
	}

	previous := decimal.Zero
	for i, tier := range tiers {
		field := fmt.Sprintf("exemption_tiers[%d]", i)
		if tier.DurationYears <= 0 {
			return invalid(0, field+".duration_years", fmt.Sprint(tier.DurationYears), "must be positive")
		}

		last := i == len(tiers)-1
		if tier.Unbounded {
			if !last {
				return invalid(0, field, "unbounded", "only the last tier may be unbounded")
			}
			continue
		}
		if last {
			return invalid(0, field, tier.MaxSurface.String(), "last tier must be unbounded")
		}
		if tier.MaxSurface.LessThanOrEqual(previous) {
			return invalid(0, field+".max_surface", tier.MaxSurface.String(), "bounds must be positive and strictly ascending")
		}
		previous = tier.MaxSurface
	}
	return nil
}
