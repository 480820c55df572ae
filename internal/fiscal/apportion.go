package fiscal

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/tnb/internal/models"
)

var (
	one  = decimal.NewFromInt(1)
	cent = decimal.New(1, -MoneyPlaces)
)

// Apportionment is the split of a net amount across co-owners.
type Apportionment struct {
	// Owners are ordered by ascending owner ID.
	Owners []models.OwnerAmount
	// AdjustedCents is how many cents the largest-remainder pass moved to
	// make the owner amounts add up to the net amount.
	AdjustedCents int64
}

// Apportioner splits net amounts by quote-share.
type Apportioner struct {
	tolerance decimal.Decimal
}

// NewApportioner creates an apportioner accepting share sums within
// tolerance of 1.
func NewApportioner(tolerance decimal.Decimal) *Apportioner {
	return &Apportioner{tolerance: tolerance.Abs()}
}

// ActiveShares returns the shares that are flagged active and valid on asOf.
func ActiveShares(shares []models.OwnershipShare, asOf time.Time) []models.OwnershipShare {
	day := dateOnly(asOf)
	active := make([]models.OwnershipShare, 0, len(shares))
	for _, share := range shares {
		if share.Active && share.CoversDate(day) {
			active = append(active, share)
		}
	}
	return active
}

// ApportionResult returns result with its net amount apportioned over shares.
func (a *Apportioner) ApportionResult(result models.FiscalResult, shares []models.OwnershipShare) (models.FiscalResult, error) {
	split, err := a.Apportion(result.ParcelID, result.NetAmount, shares)
	if err != nil {
		return models.FiscalResult{}, err
	}
	return result.WithOwners(split.Owners), nil
}

// Apportion splits net across the active shares of a parcel.
//
// The shares are checked before any amount is produced: each must lie in
// (0, 1], owners must be unique, and the sum must be 1 within tolerance.
// Shares are never normalized. Each owner first receives net × share
// floored to the cent; the leftover cents then go one at a time to the
// largest fractional remainders (ties to the larger share, then the lower
// owner ID), so the amounts always add up to net exactly.
func (a *Apportioner) Apportion(parcelID int64, net decimal.Decimal, shares []models.OwnershipShare) (Apportionment, error) {
	if net.IsNegative() {
		return Apportionment{}, invalid(parcelID, "net_amount", net.String(), "must not be negative")
	}
	if !net.Equal(net.Round(MoneyPlaces)) {
		return Apportionment{}, invalid(parcelID, "net_amount", net.String(), "must be rounded to cents")
	}

	active, err := a.checkShares(parcelID, shares)
	if err != nil {
		return Apportionment{}, err
	}

	if len(active) == 1 {
		return Apportionment{
			Owners: []models.OwnerAmount{{OwnerID: active[0].OwnerID, Share: active[0].Share, Amount: net}},
		}, nil
	}

	type line struct {
		share     models.OwnershipShare
		amount    decimal.Decimal
		remainder decimal.Decimal
	}

	lines := make([]line, len(active))
	allocated := decimal.Zero
	for i, share := range active {
		raw := net.Mul(share.Share)
		floored := raw.Truncate(MoneyPlaces)
		lines[i] = line{share: share, amount: floored, remainder: raw.Sub(floored)}
		allocated = allocated.Add(floored)
	}

	leftover := net.Sub(allocated).Shift(MoneyPlaces).IntPart()
	adjusted := leftover
	if adjusted < 0 {
		adjusted = -adjusted
	}

	order := make([]int, len(lines))
	for i := range order {
		order[i] = i
	}
	// Largest remainder first; ties to the larger share, then the lower owner ID.
	sort.SliceStable(order, func(x, y int) bool {
		lx, ly := lines[order[x]], lines[order[y]]
		if c := lx.remainder.Cmp(ly.remainder); c != 0 {
			return c > 0
		}
		if c := lx.share.Share.Cmp(ly.share.Share); c != 0 {
			return c > 0
		}
		return lx.share.OwnerID < ly.share.OwnerID
	})

	for i := 0; leftover > 0; i = (i + 1) % len(order) {
		idx := order[i]
		lines[idx].amount = lines[idx].amount.Add(cent)
		leftover--
	}

	// Shares summing slightly above 1 can over-allocate; take cents back
	// from the smallest remainders first.
	for i := len(order) - 1; leftover < 0; i-- {
		if i < 0 {
			i = len(order) - 1
		}
		idx := order[i]
		if lines[idx].amount.GreaterThanOrEqual(cent) {
			lines[idx].amount = lines[idx].amount.Sub(cent)
			leftover++
		}
	}

	owners := make([]models.OwnerAmount, len(lines))
	for i, l := range lines {
		owners[i] = models.OwnerAmount{OwnerID: l.share.OwnerID, Share: l.share.Share, Amount: l.amount}
	}
	return Apportionment{Owners: owners, AdjustedCents: adjusted}, nil
}

// checkShares validates the active shares and returns them ordered by owner ID.
func (a *Apportioner) checkShares(parcelID int64, shares []models.OwnershipShare) ([]models.OwnershipShare, error) {
	active := make([]models.OwnershipShare, 0, len(shares))
	seen := make(map[int64]struct{}, len(shares))
	sum := decimal.Zero

	for _, share := range shares {
		if !share.Active {
			continue
		}
		if share.ParcelID != 0 && parcelID != 0 && share.ParcelID != parcelID {
			return nil, invalid(parcelID, "share.parcel_id", fmt.Sprint(share.ParcelID), "share belongs to another parcel")
		}
		if !share.Share.IsPositive() || share.Share.GreaterThan(one) {
			return nil, invalid(parcelID, fmt.Sprintf("share[owner=%d]", share.OwnerID), share.Share.String(), "must be in (0, 1]")
		}
		if _, dup := seen[share.OwnerID]; dup {
			return nil, invalid(parcelID, "share.owner_id", fmt.Sprint(share.OwnerID), "owner holds more than one active share")
		}
		seen[share.OwnerID] = struct{}{}
		sum = sum.Add(share.Share)
		active = append(active, share)
	}

	if len(active) == 0 || sum.Sub(one).Abs().GreaterThan(a.tolerance) {
		return nil, &IndivisionError{
			ParcelID:  parcelID,
			Sum:       sum,
			Tolerance: a.tolerance,
			Shares:    len(active),
		}
	}

	sort.Slice(active, func(i, j int) bool { return active[i].OwnerID < active[j].OwnerID })
	return active, nil
}
