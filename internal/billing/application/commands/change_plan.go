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

// ChangePlanCommand moves a subscription to another club plan. The current
// frequency is kept unless a new one is given, and is re-validated against
// the target plan's prices either way.
type ChangePlanCommand struct {
	SubscriptionID uuid.UUID
	PlanID         uuid.UUID
	Frequency      string
}

// ChangePlanHandler applies plan changes.
type ChangePlanHandler struct {
	subscriptions subscription.Repository
	plans         plan.Repository
	outboxRepo    outbox.Repository
	uow           sharedApplication.UnitOfWork
	now           func() time.Time
}

func NewChangePlanHandler(subscriptions subscription.Repository, plans plan.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *ChangePlanHandler {
	return &ChangePlanHandler{subscriptions: subscriptions, plans: plans, outboxRepo: outboxRepo, uow: uow, now: time.Now}
}

func (h *ChangePlanHandler) Handle(ctx context.Context, cmd ChangePlanCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		sub, err := h.subscriptions.FindByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}

		freq := sub.Frequency()
		if cmd.Frequency != "" {
			freq, err = subscription.ParseFrequency(cmd.Frequency)
			if err != nil {
				return err
			}
		}

		p, err := h.plans.FindByID(txCtx, cmd.PlanID)
		if err != nil {
			return err
		}
		if err := sub.ChangePlan(h.now(), p, freq); err != nil {
			return err
		}
		return saveWithEvents(txCtx, h.subscriptions, h.outboxRepo, sub)
	})
}
