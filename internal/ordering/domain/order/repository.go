package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an order does not exist.
var ErrNotFound = errors.New("order not found")

// Repository persists orders.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	Save(ctx context.Context, o *Order) error
}
