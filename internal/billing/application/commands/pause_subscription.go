package commands

import (
	"context"

	"github.com/google/uuid"

	"github.com/martinvega/vinoteca/internal/billing/domain/subscription"
	sharedApplication "github.com/martinvega/vinoteca/internal/shared/application"
	"github.com/martinvega/vinoteca/internal/shared/infrastructure/outbox"
)

// PauseSubscriptionCommand suspends deliveries with an optional reason.
type PauseSubscriptionCommand struct {
	SubscriptionID uuid.UUID
	Reason         string
}

// PauseSubscriptionHandler pauses active subscriptions.
type PauseSubscriptionHandler struct {
	subscriptions subscription.Repository
	outboxRepo    outbox.Repository
	uow           sharedApplication.UnitOfWork
}

func NewPauseSubscriptionHandler(subscriptions subscription.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *PauseSubscriptionHandler {
	return &PauseSubscriptionHandler{subscriptions: subscriptions, outboxRepo: outboxRepo, uow: uow}
}

func (h *PauseSubscriptionHandler) Handle(ctx context.Context, cmd PauseSubscriptionCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		sub, err := h.subscriptions.FindByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}
		if err := sub.Pause(cmd.Reason); err != nil {
			return err
		}
		return saveWithEvents(txCtx, h.subscriptions, h.outboxRepo, sub)
	})
}
