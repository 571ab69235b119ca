package subscription

import (
	"github.com/google/uuid"

	"github.com/martinvega/vinoteca/internal/shared/domain"
)

const aggregateType = "subscription"

// SubscriptionCreated is raised when provisioning persists a pending
// subscription.
type SubscriptionCreated struct {
	domain.BaseEvent
	CustomerID uuid.UUID `json:"customer_id"`
	PlanID     uuid.UUID `json:"plan_id"`
	Frequency  string    `json:"frequency"`
}

func NewSubscriptionCreated(subscriptionID, customerID, planID uuid.UUID, frequency Frequency) *SubscriptionCreated {
	return &SubscriptionCreated{
		BaseEvent:  domain.NewBaseEvent(subscriptionID, aggregateType, "subscription.created"),
		CustomerID: customerID,
		PlanID:     planID,
		Frequency:  frequency.String(),
	}
}

// SubscriptionActivated is raised when the first approved payment lands.
type SubscriptionActivated struct {
	domain.BaseEvent
	CustomerID  uuid.UUID `json:"customer_id"`
	PlanID      uuid.UUID `json:"plan_id"`
	Frequency   string    `json:"frequency"`
	AmountCents int64     `json:"amount_cents"`
}

func NewSubscriptionActivated(subscriptionID, customerID, planID uuid.UUID, frequency Frequency, amountCents int64) *SubscriptionActivated {
	return &SubscriptionActivated{
		BaseEvent:   domain.NewBaseEvent(subscriptionID, aggregateType, "subscription.activated"),
		CustomerID:  customerID,
		PlanID:      planID,
		Frequency:   frequency.String(),
		AmountCents: amountCents,
	}
}

// SubscriptionPaused is raised when the customer suspends deliveries.
type SubscriptionPaused struct {
	domain.BaseEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Reason     string    `json:"reason,omitempty"`
}

func NewSubscriptionPaused(subscriptionID, customerID uuid.UUID, reason string) *SubscriptionPaused {
	return &SubscriptionPaused{
		BaseEvent:  domain.NewBaseEvent(subscriptionID, aggregateType, "subscription.paused"),
		CustomerID: customerID,
		Reason:     reason,
	}
}

// SubscriptionReactivated is raised when a paused subscription resumes.
type SubscriptionReactivated struct {
	domain.BaseEvent
	CustomerID uuid.UUID `json:"customer_id"`
}

func NewSubscriptionReactivated(subscriptionID, customerID uuid.UUID) *SubscriptionReactivated {
	return &SubscriptionReactivated{
		BaseEvent:  domain.NewBaseEvent(subscriptionID, aggregateType, "subscription.reactivated"),
		CustomerID: customerID,
	}
}

// SubscriptionCancelled is raised on termination.
type SubscriptionCancelled struct {
	domain.BaseEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Reason     string    `json:"reason,omitempty"`
}

func NewSubscriptionCancelled(subscriptionID, customerID uuid.UUID, reason string) *SubscriptionCancelled {
	return &SubscriptionCancelled{
		BaseEvent:  domain.NewBaseEvent(subscriptionID, aggregateType, "subscription.cancelled"),
		CustomerID: customerID,
		Reason:     reason,
	}
}

// SubscriptionFrequencyChanged is raised when the delivery cadence changes.
type SubscriptionFrequencyChanged struct {
	domain.BaseEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Frequency  string    `json:"frequency"`
}

func NewSubscriptionFrequencyChanged(subscriptionID, customerID uuid.UUID, frequency Frequency) *SubscriptionFrequencyChanged {
	return &SubscriptionFrequencyChanged{
		BaseEvent:  domain.NewBaseEvent(subscriptionID, aggregateType, "subscription.frequency_changed"),
		CustomerID: customerID,
		Frequency:  frequency.String(),
	}
}

// SubscriptionPlanChanged is raised when the customer moves between clubs.
type SubscriptionPlanChanged struct {
	domain.BaseEvent
	CustomerID uuid.UUID `json:"customer_id"`
	PlanID     uuid.UUID `json:"plan_id"`
	Frequency  string    `json:"frequency"`
}

func NewSubscriptionPlanChanged(subscriptionID, customerID, planID uuid.UUID, frequency Frequency) *SubscriptionPlanChanged {
	return &SubscriptionPlanChanged{
		BaseEvent:  domain.NewBaseEvent(subscriptionID, aggregateType, "subscription.plan_changed"),
		CustomerID: customerID,
		PlanID:     planID,
		Frequency:  frequency.String(),
	}
}
