// Package domain holds customer identity. The customer is the durable
// correlation key across gateway round-trips for both orders and
// subscriptions; guests get a customer row created just in time.
package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/martinvega/vinoteca/internal/shared/domain"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrInvalidEmail     = errors.New("customer email is required")
)

// Customer is a storefront account holder or guest.
type Customer struct {
	domain.BaseEntity
	Name  string
	Email string
}

// NewCustomer creates a customer with a generated id.
func NewCustomer(name, email string) (*Customer, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, ErrInvalidEmail
	}
	return &Customer{
		BaseEntity: domain.NewBaseEntity(),
		Name:       strings.TrimSpace(name),
		Email:      email,
	}, nil
}

// Address is a delivery address. Uniqueness over (customer, line1, city,
// state, postal code) is enforced by the store, making the dedup a single
// atomic upsert rather than a read-then-write.
type Address struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	IsDefault  bool
}

// CustomerRepository persists customers and their addresses.
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	Save(ctx context.Context, c *Customer) error

	// EnsureByEmail returns the existing customer for the email or creates
	// one. Used for guest checkouts.
	EnsureByEmail(ctx context.Context, name, email string) (*Customer, error)

	// UpsertAddress inserts the address or returns the existing row matching
	// the dedup key, atomically. When markDefault is set the address becomes
	// the customer's only default.
	UpsertAddress(ctx context.Context, addr *Address, markDefault bool) error
}
