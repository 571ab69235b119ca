package order

import (
	"github.com/google/uuid"

	"github.com/martinvega/vinoteca/internal/shared/domain"
)

const aggregateType = "order"

// OrderCreated is raised when a checkout produces a new order.
type OrderCreated struct {
	domain.BaseEvent
	CustomerID uuid.UUID `json:"customer_id"`
	TotalCents int64     `json:"total_cents"`
}

// NewOrderCreated creates an OrderCreated event.
func NewOrderCreated(orderID, customerID uuid.UUID, totalCents int64) *OrderCreated {
	return &OrderCreated{
		BaseEvent:  domain.NewBaseEvent(orderID, aggregateType, "order.created"),
		CustomerID: customerID,
		TotalCents: totalCents,
	}
}

// OrderPaid is raised when an approved payment moves the order to paid.
type OrderPaid struct {
	domain.BaseEvent
	CustomerID uuid.UUID `json:"customer_id"`
	TotalCents int64     `json:"total_cents"`
}

// NewOrderPaid creates an OrderPaid event.
func NewOrderPaid(orderID, customerID uuid.UUID, totalCents int64) *OrderPaid {
	return &OrderPaid{
		BaseEvent:  domain.NewBaseEvent(orderID, aggregateType, "order.paid"),
		CustomerID: customerID,
		TotalCents: totalCents,
	}
}

// OrderCancelled is raised when a rejected payment cancels the order.
type OrderCancelled struct {
	domain.BaseEvent
	CustomerID uuid.UUID `json:"customer_id"`
}

// NewOrderCancelled creates an OrderCancelled event.
func NewOrderCancelled(orderID, customerID uuid.UUID) *OrderCancelled {
	return &OrderCancelled{
		BaseEvent:  domain.NewBaseEvent(orderID, aggregateType, "order.cancelled"),
		CustomerID: customerID,
	}
}

// OrderRefunded is raised when a refund is reported for the order.
type OrderRefunded struct {
	domain.BaseEvent
	CustomerID uuid.UUID `json:"customer_id"`
}

// NewOrderRefunded creates an OrderRefunded event.
func NewOrderRefunded(orderID, customerID uuid.UUID) *OrderRefunded {
	return &OrderRefunded{
		BaseEvent:  domain.NewBaseEvent(orderID, aggregateType, "order.refunded"),
		CustomerID: customerID,
	}
}
