package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/martinvega/vinoteca/internal/billing/domain/plan"
)

// PlanView is the public shape of a club plan.
type PlanView struct {
	ID                  uuid.UUID `json:"id"`
	Club                string    `json:"club"`
	Name                string    `json:"name"`
	PriceWeeklyCents    int64     `json:"price_weekly_cents"`
	PriceBiweeklyCents  int64     `json:"price_biweekly_cents"`
	PriceMonthlyCents   int64     `json:"price_monthly_cents"`
	PriceQuarterlyCents int64     `json:"price_quarterly_cents"`
	WinesPerDelivery    int       `json:"wines_per_delivery"`
}

// ListPlansQuery lists the plans visible on the storefront.
type ListPlansQuery struct{}

// ListPlansHandler serves the plan catalogue.
type ListPlansHandler struct {
	plans plan.Repository
}

func NewListPlansHandler(plans plan.Repository) *ListPlansHandler {
	return &ListPlansHandler{plans: plans}
}

func (h *ListPlansHandler) Handle(ctx context.Context, _ ListPlansQuery) ([]PlanView, error) {
	all, err := h.plans.ListVisible(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]PlanView, 0, len(all))
	for _, p := range all {
		views = append(views, PlanView{
			ID:                  p.ID,
			Club:                p.Club,
			Name:                p.Name,
			PriceWeeklyCents:    p.PriceWeeklyCents,
			PriceBiweeklyCents:  p.PriceBiweeklyCents,
			PriceMonthlyCents:   p.PriceMonthlyCents,
			PriceQuarterlyCents: p.PriceQuarterlyCents,
			WinesPerDelivery:    p.WinesPerDelivery,
		})
	}
	return views, nil
}
