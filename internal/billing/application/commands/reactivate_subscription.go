package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/martinvega/vinoteca/internal/billing/domain/subscription"
	sharedApplication "github.com/martinvega/vinoteca/internal/shared/application"
	"github.com/martinvega/vinoteca/internal/shared/infrastructure/outbox"
)

// ReactivateSubscriptionCommand resumes a paused subscription.
type ReactivateSubscriptionCommand struct {
	SubscriptionID uuid.UUID
}

// ReactivateSubscriptionHandler resumes paused subscriptions with their
// previous frequency.
type ReactivateSubscriptionHandler struct {
	subscriptions subscription.Repository
	outboxRepo    outbox.Repository
	uow           sharedApplication.UnitOfWork
	now           func() time.Time
}

func NewReactivateSubscriptionHandler(subscriptions subscription.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *ReactivateSubscriptionHandler {
	return &ReactivateSubscriptionHandler{subscriptions: subscriptions, outboxRepo: outboxRepo, uow: uow, now: time.Now}
}

func (h *ReactivateSubscriptionHandler) Handle(ctx context.Context, cmd ReactivateSubscriptionCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		sub, err := h.subscriptions.FindByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}
		if err := sub.Reactivate(h.now()); err != nil {
			return err
		}
		return saveWithEvents(txCtx, h.subscriptions, h.outboxRepo, sub)
	})
}
