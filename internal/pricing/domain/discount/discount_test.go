package discount

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validWindow(now time.Time) (time.Time, time.Time) {
	return now.Add(-time.Hour), now.Add(time.Hour)
}

func TestDiscount_Savings(t *testing.T) {
	t.Run("percentage discount", func(t *testing.T) {
		d := Discount{Type: TypePercentage, Value: 10}
		assert.Equal(t, int64(100), d.Savings(1000))
	})

	t.Run("fixed discount", func(t *testing.T) {
		d := Discount{Type: TypeFixed, Value: 150}
		assert.Equal(t, int64(150), d.Savings(1000))
	})

	t.Run("savings are capped at max amount", func(t *testing.T) {
		cap := int64(50)
		d := Discount{Type: TypePercentage, Value: 10, MaxAmount: &cap}
		assert.Equal(t, int64(50), d.Savings(1000))
	})

	t.Run("savings never exceed the price", func(t *testing.T) {
		d := Discount{Type: TypeFixed, Value: 5000}
		assert.Equal(t, int64(1000), d.Savings(1000))
		assert.Equal(t, int64(0), d.DiscountedPrice(1000))
	})

	t.Run("zero or negative price yields zero savings", func(t *testing.T) {
		d := Discount{Type: TypePercentage, Value: 10}
		assert.Equal(t, int64(0), d.Savings(0))
		assert.Equal(t, int64(0), d.Savings(-100))
	})

	t.Run("unknown type yields zero savings", func(t *testing.T) {
		d := Discount{Type: "bogus", Value: 10}
		assert.Equal(t, int64(0), d.Savings(1000))
	})
}

func TestDiscount_IsValid(t *testing.T) {
	now := time.Now().UTC()
	starts, ends := validWindow(now)

	t.Run("active discount inside window", func(t *testing.T) {
		d := Discount{IsActive: true, StartsAt: starts, EndsAt: ends}
		assert.True(t, d.IsValid(now))
	})

	t.Run("inactive discount", func(t *testing.T) {
		d := Discount{IsActive: false, StartsAt: starts, EndsAt: ends}
		assert.False(t, d.IsValid(now))
	})

	t.Run("expired discount", func(t *testing.T) {
		d := Discount{IsActive: true, StartsAt: now.Add(-2 * time.Hour), EndsAt: now.Add(-time.Hour)}
		assert.False(t, d.IsValid(now))
	})

	t.Run("not yet started", func(t *testing.T) {
		d := Discount{IsActive: true, StartsAt: now.Add(time.Hour), EndsAt: now.Add(2 * time.Hour)}
		assert.False(t, d.IsValid(now))
	})

	t.Run("usage limit exhausted", func(t *testing.T) {
		limit := 5
		d := Discount{IsActive: true, StartsAt: starts, EndsAt: ends, UsageLimit: &limit, UsedCount: 5}
		assert.False(t, d.IsValid(now))
	})

	t.Run("usage limit with remaining uses", func(t *testing.T) {
		limit := 5
		d := Discount{IsActive: true, StartsAt: starts, EndsAt: ends, UsageLimit: &limit, UsedCount: 4}
		assert.True(t, d.IsValid(now))
	})
}

func TestDiscount_AppliesToProduct(t *testing.T) {
	productID := uuid.New()

	t.Run("all products", func(t *testing.T) {
		d := Discount{AppliesTo: TargetAllProducts}
		assert.True(t, d.AppliesToProduct(productID, "malbec"))
	})

	t.Run("category match", func(t *testing.T) {
		d := Discount{AppliesTo: TargetCategory, TargetValue: "malbec"}
		assert.True(t, d.AppliesToProduct(productID, "malbec"))
		assert.False(t, d.AppliesToProduct(productID, "cabernet"))
	})

	t.Run("specific products", func(t *testing.T) {
		d := Discount{
			AppliesTo:   TargetSpecificProducts,
			TargetValue: `["` + productID.String() + `"]`,
		}
		assert.True(t, d.AppliesToProduct(productID, ""))
		assert.False(t, d.AppliesToProduct(uuid.New(), ""))
	})

	t.Run("malformed product list does not apply and does not panic", func(t *testing.T) {
		d := Discount{AppliesTo: TargetSpecificProducts, TargetValue: `{not json`}
		assert.False(t, d.AppliesToProduct(productID, ""))
	})
}

func TestBestForProduct(t *testing.T) {
	now := time.Now().UTC()
	starts, ends := validWindow(now)
	productID := uuid.New()

	base := Discount{AppliesTo: TargetAllProducts, IsActive: true, StartsAt: starts, EndsAt: ends}

	t.Run("selects maximum absolute savings, not maximum percentage", func(t *testing.T) {
		a := base
		a.ID = uuid.New()
		a.Type = TypePercentage
		a.Value = 10 // 100 off 1000

		b := base
		b.ID = uuid.New()
		b.Type = TypeFixed
		b.Value = 150

		c := base
		c.ID = uuid.New()
		c.Type = TypePercentage
		c.Value = 6 // 60 off 1000

		best := BestForProduct([]Discount{a, b, c}, productID, "", 1000, now)
		require.NotNil(t, best)
		assert.Equal(t, b.ID, best.ID)
		assert.Equal(t, int64(850), best.DiscountedPrice(1000))
	})

	t.Run("ties keep the earliest candidate", func(t *testing.T) {
		a := base
		a.ID = uuid.New()
		a.Type = TypeFixed
		a.Value = 100

		b := base
		b.ID = uuid.New()
		b.Type = TypePercentage
		b.Value = 10 // also 100 off 1000

		best := BestForProduct([]Discount{a, b}, productID, "", 1000, now)
		require.NotNil(t, best)
		assert.Equal(t, a.ID, best.ID)
	})

	t.Run("expired discount is never selected even with larger savings", func(t *testing.T) {
		expired := base
		expired.ID = uuid.New()
		expired.Type = TypeFixed
		expired.Value = 500
		expired.EndsAt = now.Add(-time.Minute)

		small := base
		small.ID = uuid.New()
		small.Type = TypeFixed
		small.Value = 50

		best := BestForProduct([]Discount{expired, small}, productID, "", 1000, now)
		require.NotNil(t, best)
		assert.Equal(t, small.ID, best.ID)
	})

	t.Run("no applicable discounts", func(t *testing.T) {
		other := base
		other.AppliesTo = TargetCategory
		other.TargetValue = "sparkling"

		best := BestForProduct([]Discount{other}, productID, "malbec", 1000, now)
		assert.Nil(t, best)
	})
}

func TestValidateForPurchase(t *testing.T) {
	now := time.Now().UTC()
	starts, ends := validWindow(now)
	productID := uuid.New()

	d := Discount{
		AppliesTo:   TargetAllProducts,
		IsActive:    true,
		StartsAt:    starts,
		EndsAt:      ends,
		Type:        TypeFixed,
		Value:       100,
		MinPurchase: 2000,
	}

	t.Run("purchase above minimum", func(t *testing.T) {
		assert.NoError(t, ValidateForPurchase(d, productID, "", 2500, now))
	})

	t.Run("purchase below minimum", func(t *testing.T) {
		err := ValidateForPurchase(d, productID, "", 1500, now)
		assert.ErrorIs(t, err, ErrBelowMinPurchase)
	})

	t.Run("invalid discount", func(t *testing.T) {
		inactive := d
		inactive.IsActive = false
		err := ValidateForPurchase(inactive, productID, "", 2500, now)
		assert.ErrorIs(t, err, ErrNotValid)
	})

	t.Run("inapplicable discount", func(t *testing.T) {
		cat := d
		cat.AppliesTo = TargetCategory
		cat.TargetValue = "sparkling"
		err := ValidateForPurchase(cat, productID, "malbec", 2500, now)
		assert.ErrorIs(t, err, ErrNotApplicable)
	})
}
