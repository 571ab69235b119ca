package discount

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type determines how the discount value is interpreted.
type Type string

const (
	TypePercentage Type = "percentage"
	TypeFixed      Type = "fixed"
)

// Target determines which products a discount applies to.
type Target string

const (
	TargetAllProducts      Target = "all_products"
	TargetCategory         Target = "category"
	TargetSpecificProducts Target = "specific_products"
)

// Discount is a promotional price reduction. All amounts are integer cents;
// percentage values are whole percent points.
type Discount struct {
	ID          uuid.UUID
	Type        Type
	Value       int64
	MaxAmount   *int64
	AppliesTo   Target
	TargetValue string
	StartsAt    time.Time
	EndsAt      time.Time
	IsActive    bool
	UsageLimit  *int
	UsedCount   int
	MinPurchase int64
}

// Savings returns the absolute price reduction for the given price,
// clamped to [0, price] and to MaxAmount when set.
func (d Discount) Savings(price int64) int64 {
	if price <= 0 {
		return 0
	}

	var savings int64
	switch d.Type {
	case TypePercentage:
		savings = price * d.Value / 100
	case TypeFixed:
		savings = d.Value
	default:
		return 0
	}

	if savings < 0 {
		savings = 0
	}
	if d.MaxAmount != nil && savings > *d.MaxAmount {
		savings = *d.MaxAmount
	}
	if savings > price {
		savings = price
	}
	return savings
}

// DiscountedPrice returns the final price after applying the discount.
// The result is never negative.
func (d Discount) DiscountedPrice(price int64) int64 {
	final := price - d.Savings(price)
	if final < 0 {
		return 0
	}
	return final
}

// IsValid reports whether the discount can be applied at the given instant.
func (d Discount) IsValid(now time.Time) bool {
	if !d.IsActive {
		return false
	}
	if now.Before(d.StartsAt) || now.After(d.EndsAt) {
		return false
	}
	if d.UsageLimit != nil && d.UsedCount >= *d.UsageLimit {
		return false
	}
	return true
}

// AppliesToProduct reports whether the discount targets the given product.
// For specific-product discounts the target value is a JSON-encoded list of
// product ids; a malformed list means the discount does not apply.
func (d Discount) AppliesToProduct(productID uuid.UUID, category string) bool {
	switch d.AppliesTo {
	case TargetAllProducts:
		return true
	case TargetCategory:
		return d.TargetValue == category
	case TargetSpecificProducts:
		var ids []string
		if err := json.Unmarshal([]byte(d.TargetValue), &ids); err != nil {
			return false
		}
		want := productID.String()
		for _, id := range ids {
			if id == want {
				return true
			}
		}
		return false
	default:
		return false
	}
}
