package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/martinvega/vinoteca/internal/billing/domain/plan"
	"github.com/martinvega/vinoteca/internal/billing/domain/subscription"
	sharedApplication "github.com/martinvega/vinoteca/internal/shared/application"
	"github.com/martinvega/vinoteca/internal/shared/infrastructure/outbox"
)

// ChangeFrequencyCommand switches a subscription's delivery cadence. The
// change takes effect from the next cycle, never retroactively.
type ChangeFrequencyCommand struct {
	SubscriptionID uuid.UUID
	Frequency      string
}

// ChangeFrequencyHandler validates and applies frequency changes.
type ChangeFrequencyHandler struct {
	subscriptions subscription.Repository
	plans         plan.Repository
	outboxRepo    outbox.Repository
	uow           sharedApplication.UnitOfWork
	now           func() time.Time
}

func NewChangeFrequencyHandler(subscriptions subscription.Repository, plans plan.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *ChangeFrequencyHandler {
	return &ChangeFrequencyHandler{subscriptions: subscriptions, plans: plans, outboxRepo: outboxRepo, uow: uow, now: time.Now}
}

func (h *ChangeFrequencyHandler) Handle(ctx context.Context, cmd ChangeFrequencyCommand) error {
	freq, err := subscription.ParseFrequency(cmd.Frequency)
	if err != nil {
		return err
	}

	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		sub, err := h.subscriptions.FindByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}
		p, err := h.plans.FindByID(txCtx, sub.PlanID())
		if err != nil {
			return err
		}
		if err := sub.ChangeFrequency(h.now(), p, freq); err != nil {
			return err
		}
		return saveWithEvents(txCtx, h.subscriptions, h.outboxRepo, sub)
	})
}
