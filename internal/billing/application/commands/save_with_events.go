package commands

import (
	"context"

	"github.com/martinvega/vinoteca/internal/billing/domain/subscription"
	"github.com/martinvega/vinoteca/internal/shared/infrastructure/outbox"
)

// saveWithEvents persists the subscription and stages its domain events on
// the outbox inside the caller's transaction.
func saveWithEvents(ctx context.Context, repo subscription.Repository, outboxRepo outbox.Repository, sub *subscription.Subscription) error {
	if err := repo.Save(ctx, sub); err != nil {
		return err
	}
	msgs, err := outbox.MessagesFromEvents(sub.DomainEvents())
	if err != nil {
		return err
	}
	if err := outboxRepo.SaveBatch(ctx, msgs); err != nil {
		return err
	}
	sub.ClearDomainEvents()
	return nil
}
