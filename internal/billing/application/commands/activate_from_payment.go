package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/martinvega/vinoteca/internal/billing/domain/subscription"
	payments "github.com/martinvega/vinoteca/internal/payments/domain"
	sharedApplication "github.com/martinvega/vinoteca/internal/shared/application"
	"github.com/martinvega/vinoteca/internal/shared/infrastructure/outbox"
)

// ActivateFromPaymentCommand applies a payment outcome to the subscription a
// provisioning token resolves to.
type ActivateFromPaymentCommand struct {
	CustomerID    uuid.UUID
	PlanID        uuid.UUID
	Frequency     string
	PaymentID     string
	PaymentStatus payments.Status
	AmountCents   int64
}

// ActivateFromPaymentResult reports the subscription state afterwards.
type ActivateFromPaymentResult struct {
	SubscriptionID uuid.UUID
	Status         subscription.Status
	Changed        bool
	Duplicate      bool
}

// ActivateFromPaymentHandler turns approved recurring payments into
// subscription activations and renewals.
type ActivateFromPaymentHandler struct {
	subscriptions subscription.Repository
	ledger        payments.EventLedger
	outboxRepo    outbox.Repository
	uow           sharedApplication.UnitOfWork
	now           func() time.Time
	logger        *slog.Logger
}

func NewActivateFromPaymentHandler(
	subscriptions subscription.Repository,
	ledger payments.EventLedger,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *ActivateFromPaymentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivateFromPaymentHandler{
		subscriptions: subscriptions,
		ledger:        ledger,
		outboxRepo:    outboxRepo,
		uow:           uow,
		now:           time.Now,
		logger:        logger,
	}
}

// Handle routes the payment. Non-approved statuses are recorded in the log
// only: a pending subscription simply stays pending until the gateway
// reports an approved charge or the customer abandons checkout.
func (h *ActivateFromPaymentHandler) Handle(ctx context.Context, cmd ActivateFromPaymentCommand) (ActivateFromPaymentResult, error) {
	freq, err := subscription.ParseFrequency(cmd.Frequency)
	if err != nil {
		return ActivateFromPaymentResult{}, err
	}

	var result ActivateFromPaymentResult
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		sub, err := h.subscriptions.FindByProvisioningKey(txCtx, cmd.CustomerID, cmd.PlanID, freq)
		if err != nil {
			return err
		}
		result.SubscriptionID = sub.ID()
		result.Status = sub.Status()

		// First write of the transaction. A redelivered notification loses
		// the insert race here and never reaches the aggregate, so a renewal
		// charge cannot accrue twice.
		subID := sub.ID()
		applied, err := h.ledger.Record(txCtx, payments.PaymentEvent{
			PaymentID:      cmd.PaymentID,
			SubscriptionID: &subID,
			Status:         cmd.PaymentStatus,
			ReceivedAt:     h.now().UTC(),
		})
		if err != nil {
			return err
		}
		if !applied {
			h.logger.Info("ignoring redelivered payment event",
				"subscription_id", sub.ID(),
				"payment_id", cmd.PaymentID,
				"payment_status", cmd.PaymentStatus,
			)
			result.Duplicate = true
			return nil
		}

		if cmd.PaymentStatus != payments.StatusApproved {
			h.logger.Info("subscription payment not approved, leaving state unchanged",
				"subscription_id", sub.ID(),
				"payment_id", cmd.PaymentID,
				"payment_status", cmd.PaymentStatus,
			)
			return nil
		}

		var changed bool
		switch sub.Status() {
		case subscription.StatusActive, subscription.StatusPaused:
			// A renewal charge on an agreement we already activated. The
			// gateway keeps charging a paused agreement because the pause is
			// local only, so the payment is accrued either way.
			if err := sub.RecordPayment(h.now(), cmd.AmountCents); err != nil {
				return err
			}
			changed = true
		case subscription.StatusCancelled:
			h.logger.Warn("payment arrived for a cancelled subscription",
				"subscription_id", sub.ID(),
				"payment_id", cmd.PaymentID,
			)
			return nil
		default:
			changed, err = sub.Activate(h.now(), cmd.AmountCents)
			if err != nil {
				return err
			}
		}

		result.Status = sub.Status()
		result.Changed = changed
		if !changed {
			return nil
		}

		if err := h.subscriptions.Save(txCtx, sub); err != nil {
			return err
		}
		msgs, err := outbox.MessagesFromEvents(sub.DomainEvents())
		if err != nil {
			return err
		}
		if err := h.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}
		sub.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return ActivateFromPaymentResult{}, err
	}
	return result, nil
}
