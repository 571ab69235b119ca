package domain

import (
	"strings"

	"github.com/google/uuid"
)

// OrderReference correlates a payment back to a storefront order.
type OrderReference struct {
	OrderID uuid.UUID
}

// SubscriptionReference correlates a payment back to a subscription
// provisioning attempt. It mirrors the composite token sent on preapproval
// creation: customerId_planId_frequency.
type SubscriptionReference struct {
	CustomerID uuid.UUID
	PlanID     uuid.UUID
	Frequency  string
}

// Reference is the closed union of correlation targets. Exactly one of the
// fields is non-nil.
type Reference struct {
	Order        *OrderReference
	Subscription *SubscriptionReference
}

// SubscriptionToken builds the composite external reference used when
// provisioning a recurring agreement.
func SubscriptionToken(customerID, planID uuid.UUID, frequency string) string {
	return customerID.String() + "_" + planID.String() + "_" + frequency
}

// ParseReference decodes an external reference. Order payments carry the bare
// order id; subscription payments carry the composite provisioning token.
func ParseReference(raw string) (Reference, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Reference{}, ErrMissingExternalReference
	}

	if orderID, err := uuid.Parse(raw); err == nil {
		return Reference{Order: &OrderReference{OrderID: orderID}}, nil
	}

	parts := strings.Split(raw, "_")
	if len(parts) == 3 {
		customerID, err1 := uuid.Parse(parts[0])
		planID, err2 := uuid.Parse(parts[1])
		if err1 == nil && err2 == nil && parts[2] != "" {
			return Reference{Subscription: &SubscriptionReference{
				CustomerID: customerID,
				PlanID:     planID,
				Frequency:  parts[2],
			}}, nil
		}
	}

	return Reference{}, ErrInvalidExternalReference
}
