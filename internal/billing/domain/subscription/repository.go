package subscription

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no subscription matches.
var ErrNotFound = errors.New("subscription not found")

// Repository persists subscriptions.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
	// FindByProvisioningKey resolves the composite token carried as a
	// payment's external reference back to its subscription row. Cancelled
	// rows are skipped; when the same customer provisioned the same plan and
	// frequency more than once, the most recent row wins.
	FindByProvisioningKey(ctx context.Context, customerID, planID uuid.UUID, frequency Frequency) (*Subscription, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Subscription, error)
	Save(ctx context.Context, s *Subscription) error
}
