// Package notifications defines the outbound email trigger contract. Only the
// trigger is owned here; template rendering and delivery belong to the mailer
// consuming the published triggers.
package notifications

import (
	"context"

	"github.com/google/uuid"
)

// LineItem is an order line as shown in a confirmation email.
type LineItem struct {
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// OrderSummary carries everything the mailer needs to render an order email.
type OrderSummary struct {
	OrderID       uuid.UUID  `json:"order_id"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email"`
	Items         []LineItem `json:"items"`
	SubtotalCents int64      `json:"subtotal_cents"`
	ShippingCents int64      `json:"shipping_cents"`
	TotalCents    int64      `json:"total_cents"`
}

// SubscriptionSummary carries the subscription trigger payload.
type SubscriptionSummary struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	CustomerName   string    `json:"customer_name"`
	CustomerEmail  string    `json:"customer_email"`
	PlanName       string    `json:"plan_name"`
	Frequency      string    `json:"frequency"`
	AmountCents    int64     `json:"amount_cents"`
	PaymentURL     string    `json:"payment_url"`
}

// Notifier dispatches email triggers. Implementations must tolerate repeat
// invocations for the same order; duplicate emails are acceptable, lost ones
// are not.
type Notifier interface {
	OrderConfirmation(ctx context.Context, summary OrderSummary) error
	AdminOrderAlert(ctx context.Context, summary OrderSummary) error
	SubscriptionPending(ctx context.Context, summary SubscriptionSummary) error
}
