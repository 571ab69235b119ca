package queries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/martinvega/vinoteca/internal/billing/domain/subscription"
)

// SubscriptionView is the read model returned to API consumers.
type SubscriptionView struct {
	ID               uuid.UUID  `json:"id"`
	CustomerID       uuid.UUID  `json:"customer_id"`
	PlanID           uuid.UUID  `json:"plan_id"`
	Status           string     `json:"status"`
	Frequency        string     `json:"frequency"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	NextDeliveryDate *time.Time `json:"next_delivery_date,omitempty"`
	TotalPaidCents   int64      `json:"total_paid_cents"`
	CreatedAt        time.Time  `json:"created_at"`
}

// GetSubscriptionQuery fetches one subscription by id.
type GetSubscriptionQuery struct {
	SubscriptionID uuid.UUID
}

// GetSubscriptionHandler serves subscription lookups.
type GetSubscriptionHandler struct {
	subscriptions subscription.Repository
}

func NewGetSubscriptionHandler(subscriptions subscription.Repository) *GetSubscriptionHandler {
	return &GetSubscriptionHandler{subscriptions: subscriptions}
}

func (h *GetSubscriptionHandler) Handle(ctx context.Context, q GetSubscriptionQuery) (SubscriptionView, error) {
	sub, err := h.subscriptions.FindByID(ctx, q.SubscriptionID)
	if err != nil {
		return SubscriptionView{}, err
	}
	return toView(sub), nil
}

func toView(sub *subscription.Subscription) SubscriptionView {
	return SubscriptionView{
		ID:               sub.ID(),
		CustomerID:       sub.CustomerID(),
		PlanID:           sub.PlanID(),
		Status:           string(sub.Status()),
		Frequency:        sub.Frequency().String(),
		StartDate:        sub.StartDate(),
		NextDeliveryDate: sub.NextDeliveryDate(),
		TotalPaidCents:   sub.TotalPaidCents(),
		CreatedAt:        sub.CreatedAt(),
	}
}
