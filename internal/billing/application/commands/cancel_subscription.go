package commands

import (
	"context"

	"github.com/google/uuid"

	"github.com/martinvega/vinoteca/internal/billing/domain/subscription"
	sharedApplication "github.com/martinvega/vinoteca/internal/shared/application"
	"github.com/martinvega/vinoteca/internal/shared/infrastructure/outbox"
)

// CancelSubscriptionCommand terminates a subscription with an optional
// reason. Historical delivery records are kept.
type CancelSubscriptionCommand struct {
	SubscriptionID uuid.UUID
	Reason         string
}

// CancelSubscriptionHandler cancels subscriptions.
type CancelSubscriptionHandler struct {
	subscriptions subscription.Repository
	outboxRepo    outbox.Repository
	uow           sharedApplication.UnitOfWork
}

func NewCancelSubscriptionHandler(subscriptions subscription.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *CancelSubscriptionHandler {
	return &CancelSubscriptionHandler{subscriptions: subscriptions, outboxRepo: outboxRepo, uow: uow}
}

func (h *CancelSubscriptionHandler) Handle(ctx context.Context, cmd CancelSubscriptionCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		sub, err := h.subscriptions.FindByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}
		if err := sub.Cancel(cmd.Reason); err != nil {
			return err
		}
		return saveWithEvents(txCtx, h.subscriptions, h.outboxRepo, sub)
	})
}
