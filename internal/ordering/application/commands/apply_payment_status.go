package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/martinvega/vinoteca/internal/identity/domain"
	"github.com/martinvega/vinoteca/internal/notifications"
	"github.com/martinvega/vinoteca/internal/ordering/domain/order"
	payments "github.com/martinvega/vinoteca/internal/payments/domain"
	sharedApplication "github.com/martinvega/vinoteca/internal/shared/application"
	"github.com/martinvega/vinoteca/internal/shared/infrastructure/outbox"
)

// ApplyPaymentStatusCommand carries a resolved payment status to an order.
type ApplyPaymentStatusCommand struct {
	OrderID       uuid.UUID
	PaymentID     string
	PaymentStatus payments.Status
}

// ApplyPaymentStatusResult reports the order state after application.
type ApplyPaymentStatusResult struct {
	OrderStatus order.Status
	Changed     bool
	Duplicate   bool
}

// ApplyPaymentStatusHandler drives order transitions from payment events.
type ApplyPaymentStatusHandler struct {
	orders          order.Repository
	customers       identityDomain.CustomerRepository
	notifier        notifications.Notifier
	ledger          payments.EventLedger
	outboxRepo      outbox.Repository
	uow             sharedApplication.UnitOfWork
	allowRegression bool
	logger          *slog.Logger
}

// NewApplyPaymentStatusHandler creates the handler. allowRegression controls
// whether a late non-terminal payment status may move an order backward; it
// defaults off and exists only because backward moves could be legitimate in
// some gateway retry scenarios.
func NewApplyPaymentStatusHandler(
	orders order.Repository,
	customers identityDomain.CustomerRepository,
	notifier notifications.Notifier,
	ledger payments.EventLedger,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	allowRegression bool,
	logger *slog.Logger,
) *ApplyPaymentStatusHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApplyPaymentStatusHandler{
		orders:          orders,
		customers:       customers,
		notifier:        notifier,
		ledger:          ledger,
		outboxRepo:      outboxRepo,
		uow:             uow,
		allowRegression: allowRegression,
		logger:          logger,
	}
}

// Handle applies the payment status. Duplicate and stale deliveries resolve
// to an unchanged result rather than an error; the webhook caller answers
// them with success so the gateway stops redelivering.
func (h *ApplyPaymentStatusHandler) Handle(ctx context.Context, cmd ApplyPaymentStatusCommand) (ApplyPaymentStatusResult, error) {
	var result ApplyPaymentStatusResult
	var becamePaid bool
	var paidOrder *order.Order

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		o, err := h.orders.FindByID(txCtx, cmd.OrderID)
		if err != nil {
			return err
		}

		// The ledger insert is the first write of the transaction. A duplicate
		// delivery loses the insert race and never touches the order; a fresh
		// one commits its ledger row atomically with the transition, so a
		// rollback also releases the row for the retry.
		applied, err := h.ledger.Record(txCtx, payments.PaymentEvent{
			PaymentID:  cmd.PaymentID,
			OrderID:    &cmd.OrderID,
			Status:     cmd.PaymentStatus,
			ReceivedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if !applied {
			h.logger.Info("ignoring redelivered payment event",
				"order_id", cmd.OrderID,
				"payment_id", cmd.PaymentID,
				"payment_status", cmd.PaymentStatus,
			)
			result = ApplyPaymentStatusResult{OrderStatus: o.Status(), Changed: false, Duplicate: true}
			return nil
		}

		wasPaid := o.Status() == order.StatusPaid
		changed, err := o.ApplyPaymentStatus(cmd.PaymentStatus, h.allowRegression)
		if err != nil {
			if errors.Is(err, order.ErrBackwardTransition) || errors.Is(err, order.ErrOrderRefunded) || errors.Is(err, order.ErrOrderCancelled) || errors.Is(err, order.ErrCancelAfterDelivery) {
				h.logger.Warn("ignoring stale payment delivery",
					"order_id", cmd.OrderID,
					"payment_id", cmd.PaymentID,
					"payment_status", cmd.PaymentStatus,
					"order_status", o.Status(),
					"reason", err,
				)
				result = ApplyPaymentStatusResult{OrderStatus: o.Status(), Changed: false}
				return nil
			}
			return err
		}

		result = ApplyPaymentStatusResult{OrderStatus: o.Status(), Changed: changed}
		if !changed {
			return nil
		}

		if err := h.orders.Save(txCtx, o); err != nil {
			return err
		}

		msgs, err := outbox.MessagesFromEvents(o.DomainEvents())
		if err != nil {
			return err
		}
		if err := h.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}
		o.ClearDomainEvents()

		if !wasPaid && o.Status() == order.StatusPaid {
			becamePaid = true
			paidOrder = o
		}
		return nil
	})
	if err != nil {
		return ApplyPaymentStatusResult{}, err
	}

	// Email triggers fire after commit so a rollback cannot have announced a
	// payment that was never recorded. Redelivery may repeat them; duplicate
	// emails are acceptable, a paid order without a confirmation is not.
	if becamePaid {
		h.dispatchPaidNotifications(ctx, paidOrder)
	}

	return result, nil
}

func (h *ApplyPaymentStatusHandler) dispatchPaidNotifications(ctx context.Context, o *order.Order) {
	summary := notifications.OrderSummary{
		OrderID:       o.ID(),
		SubtotalCents: o.SubtotalCents(),
		ShippingCents: o.ShippingCents(),
		TotalCents:    o.TotalCents(),
	}
	for _, item := range o.Items() {
		summary.Items = append(summary.Items, notifications.LineItem{
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}

	customer, err := h.customers.FindByID(ctx, o.CustomerID())
	if err != nil {
		h.logger.Error("paid order has no resolvable customer",
			"order_id", o.ID(), "customer_id", o.CustomerID(), "error", err)
	} else {
		summary.CustomerName = customer.Name
		summary.CustomerEmail = customer.Email
	}

	if err := h.notifier.OrderConfirmation(ctx, summary); err != nil {
		h.logger.Error("failed to trigger order confirmation", "order_id", o.ID(), "error", err)
	}
	if err := h.notifier.AdminOrderAlert(ctx, summary); err != nil {
		h.logger.Error("failed to trigger admin order alert", "order_id", o.ID(), "error", err)
	}
}
