package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/martinvega/vinoteca/internal/shared/infrastructure/eventbus"
)

// Routing keys consumed by the mailer.
const (
	RouteOrderConfirmation   = "notifications.order.confirmation"
	RouteAdminOrderAlert     = "notifications.order.admin_alert"
	RouteSubscriptionPending = "notifications.subscription.pending"
)

// EventbusNotifier publishes email triggers onto the event bus.
type EventbusNotifier struct {
	publisher  eventbus.Publisher
	adminEmail string
	logger     *slog.Logger
}

// NewEventbusNotifier creates a notifier that publishes trigger payloads.
func NewEventbusNotifier(publisher eventbus.Publisher, adminEmail string, logger *slog.Logger) *EventbusNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventbusNotifier{publisher: publisher, adminEmail: adminEmail, logger: logger}
}

// OrderConfirmation triggers the customer confirmation email.
func (n *EventbusNotifier) OrderConfirmation(ctx context.Context, summary OrderSummary) error {
	return n.publish(ctx, RouteOrderConfirmation, summary)
}

// AdminOrderAlert triggers the admin alert email.
func (n *EventbusNotifier) AdminOrderAlert(ctx context.Context, summary OrderSummary) error {
	alert := struct {
		OrderSummary
		AdminEmail string `json:"admin_email"`
	}{OrderSummary: summary, AdminEmail: n.adminEmail}
	return n.publish(ctx, RouteAdminOrderAlert, alert)
}

// SubscriptionPending triggers the subscription checkout email.
func (n *EventbusNotifier) SubscriptionPending(ctx context.Context, summary SubscriptionSummary) error {
	return n.publish(ctx, RouteSubscriptionPending, summary)
}

func (n *EventbusNotifier) publish(ctx context.Context, route string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode notification payload: %w", err)
	}
	if err := n.publisher.Publish(ctx, route, body); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	n.logger.Debug("notification trigger published", "route", route)
	return nil
}
