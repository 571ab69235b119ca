// Package application wires webhook deliveries through normalization, status
// resolution and the lifecycle controllers. Each delivery is handled as an
// independent request-scoped execution; redelivery safety comes from the
// insert-once event ledger plus idempotent aggregate transitions, not from
// any in-process state.
package application

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	billingCommands "github.com/martinvega/vinoteca/internal/billing/application/commands"
	orderingCommands "github.com/martinvega/vinoteca/internal/ordering/application/commands"
	"github.com/martinvega/vinoteca/internal/payments/domain"
)

// Normalizer resolves a raw webhook delivery to a single gateway payment id.
type Normalizer interface {
	Resolve(ctx context.Context, body []byte, query url.Values) (string, error)
}

// SeenCache is a best-effort duplicate filter in front of the ledger. A
// cache miss or failure only costs a redundant gateway query, never a
// duplicate transition.
type SeenCache interface {
	MarkSeen(ctx context.Context, paymentID string) bool
	Forget(ctx context.Context, paymentID string)
}

// OrderTransitioner applies a resolved payment status to an order.
type OrderTransitioner interface {
	Handle(ctx context.Context, cmd orderingCommands.ApplyPaymentStatusCommand) (orderingCommands.ApplyPaymentStatusResult, error)
}

// SubscriptionActivator applies a resolved payment to a subscription.
type SubscriptionActivator interface {
	Handle(ctx context.Context, cmd billingCommands.ActivateFromPaymentCommand) (billingCommands.ActivateFromPaymentResult, error)
}

// ProcessNotificationCommand is one raw webhook delivery.
type ProcessNotificationCommand struct {
	Body  []byte
	Query url.Values
}

// ProcessNotificationResult reports what the delivery resolved to. Exactly
// one of OrderID and SubscriptionID is set when the payment correlated.
type ProcessNotificationResult struct {
	PaymentID      string
	PaymentStatus  domain.Status
	OrderID        *uuid.UUID
	OrderStatus    string
	SubscriptionID *uuid.UUID
	Duplicate      bool
}

// ProcessNotificationHandler is the webhook pipeline: normalize, dedup,
// fetch the authoritative payment, correlate, transition. The insert-once
// ledger check lives inside each transition handler's unit of work, so it
// commits or rolls back together with the aggregate it gates.
type ProcessNotificationHandler struct {
	normalizer    Normalizer
	gateway       domain.Gateway
	seen          SeenCache
	orders        OrderTransitioner
	subscriptions SubscriptionActivator
	logger        *slog.Logger
}

func NewProcessNotificationHandler(
	normalizer Normalizer,
	gateway domain.Gateway,
	seen SeenCache,
	orders OrderTransitioner,
	subscriptions SubscriptionActivator,
	logger *slog.Logger,
) *ProcessNotificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessNotificationHandler{
		normalizer:    normalizer,
		gateway:       gateway,
		seen:          seen,
		orders:        orders,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// Handle processes a delivery. Validation failures (ErrInvalidWebhook,
// missing or malformed external reference) surface to the caller with no
// state mutated; gateway failures also surface so the gateway redelivers.
func (h *ProcessNotificationHandler) Handle(ctx context.Context, cmd ProcessNotificationCommand) (ProcessNotificationResult, error) {
	paymentID, err := h.normalizer.Resolve(ctx, cmd.Body, cmd.Query)
	if err != nil {
		return ProcessNotificationResult{}, err
	}

	if !h.seen.MarkSeen(ctx, paymentID) {
		// The ledger row is authoritative; the cache only saves the gateway
		// round-trip on the common immediate-redelivery case.
		h.logger.Info("duplicate payment notification short-circuited", "payment_id", paymentID)
		return ProcessNotificationResult{PaymentID: paymentID, Duplicate: true}, nil
	}

	result, err := h.process(ctx, paymentID)
	if err != nil {
		h.seen.Forget(ctx, paymentID)
		return ProcessNotificationResult{}, err
	}
	return result, nil
}

func (h *ProcessNotificationHandler) process(ctx context.Context, paymentID string) (ProcessNotificationResult, error) {
	payment, err := h.gateway.Payment(ctx, paymentID)
	if err != nil {
		return ProcessNotificationResult{}, err
	}

	ref, err := domain.ParseReference(payment.ExternalReference)
	if err != nil {
		return ProcessNotificationResult{}, err
	}

	result := ProcessNotificationResult{
		PaymentID:     payment.ID,
		PaymentStatus: payment.Status,
	}

	switch {
	case ref.Order != nil:
		applied, err := h.orders.Handle(ctx, orderingCommands.ApplyPaymentStatusCommand{
			OrderID:       ref.Order.OrderID,
			PaymentID:     payment.ID,
			PaymentStatus: payment.Status,
		})
		if err != nil {
			return ProcessNotificationResult{}, err
		}
		result.OrderID = &ref.Order.OrderID
		result.OrderStatus = string(applied.OrderStatus)
		result.Duplicate = applied.Duplicate

	case ref.Subscription != nil:
		activated, err := h.subscriptions.Handle(ctx, billingCommands.ActivateFromPaymentCommand{
			CustomerID:    ref.Subscription.CustomerID,
			PlanID:        ref.Subscription.PlanID,
			Frequency:     ref.Subscription.Frequency,
			PaymentID:     payment.ID,
			PaymentStatus: payment.Status,
			AmountCents:   payment.AmountCents,
		})
		if err != nil {
			return ProcessNotificationResult{}, err
		}
		result.SubscriptionID = &activated.SubscriptionID
		result.Duplicate = activated.Duplicate
	}

	return result, nil
}
