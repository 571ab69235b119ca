// Package plan holds wine club subscription plans. Plans are read-mostly
// reference data; prices are per delivery frequency and a zero price means
// the plan does not offer that frequency.
package plan

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("subscription plan not found")

// Plan is a wine club membership tier.
type Plan struct {
	ID                  uuid.UUID
	Club                string
	Name                string
	PriceWeeklyCents    int64
	PriceBiweeklyCents  int64
	PriceMonthlyCents   int64
	PriceQuarterlyCents int64
	WinesPerDelivery    int
	IsActive            bool
	IsVisible           bool
}

// PriceFor returns the plan price for a frequency name, or zero when the
// plan does not offer it.
func (p *Plan) PriceFor(frequency string) int64 {
	switch frequency {
	case "weekly":
		return p.PriceWeeklyCents
	case "biweekly":
		return p.PriceBiweeklyCents
	case "monthly":
		return p.PriceMonthlyCents
	case "quarterly":
		return p.PriceQuarterlyCents
	default:
		return 0
	}
}

// Repository persists subscription plans.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Plan, error)
	ListVisible(ctx context.Context) ([]*Plan, error)
	Save(ctx context.Context, p *Plan) error
}
