package discount

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotValid         = errors.New("discount is not currently valid")
	ErrNotApplicable    = errors.New("discount does not apply to this product")
	ErrBelowMinPurchase = errors.New("purchase amount is below the discount minimum")
)

// BestForProduct selects the valid, applicable discount yielding the greatest
// absolute savings for the given price. Ties are resolved in favor of the
// earliest candidate: a later discount replaces the current best only when its
// savings are strictly greater. Returns nil when no discount applies.
func BestForProduct(candidates []Discount, productID uuid.UUID, category string, price int64, now time.Time) *Discount {
	var best *Discount
	var bestSavings int64

	for i := range candidates {
		d := candidates[i]
		if !d.IsValid(now) || !d.AppliesToProduct(productID, category) {
			continue
		}
		savings := d.Savings(price)
		if savings <= 0 {
			continue
		}
		if best == nil || savings > bestSavings {
			best = &candidates[i]
			bestSavings = savings
		}
	}

	return best
}

// ValidateForPurchase checks a discount at checkout time, where the minimum
// purchase amount is enforced in addition to validity and applicability.
func ValidateForPurchase(d Discount, productID uuid.UUID, category string, purchaseTotal int64, now time.Time) error {
	if !d.IsValid(now) {
		return ErrNotValid
	}
	if !d.AppliesToProduct(productID, category) {
		return ErrNotApplicable
	}
	if purchaseTotal < d.MinPurchase {
		return ErrBelowMinPurchase
	}
	return nil
}
