package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	identityDomain "github.com/martinvega/vinoteca/internal/identity/domain"
	"github.com/martinvega/vinoteca/internal/notifications"
	"github.com/martinvega/vinoteca/internal/ordering/domain/order"
	payments "github.com/martinvega/vinoteca/internal/payments/domain"
	"github.com/martinvega/vinoteca/internal/shared/infrastructure/outbox"
)

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *mockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

type mockCustomerRepository struct {
	mock.Mock
}

func (m *mockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*identityDomain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Customer), args.Error(1)
}

func (m *mockCustomerRepository) FindByEmail(ctx context.Context, email string) (*identityDomain.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Customer), args.Error(1)
}

func (m *mockCustomerRepository) Save(ctx context.Context, c *identityDomain.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockCustomerRepository) EnsureByEmail(ctx context.Context, name, email string) (*identityDomain.Customer, error) {
	args := m.Called(ctx, name, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Customer), args.Error(1)
}

func (m *mockCustomerRepository) UpsertAddress(ctx context.Context, addr *identityDomain.Address, markDefault bool) error {
	args := m.Called(ctx, addr, markDefault)
	return args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) OrderConfirmation(ctx context.Context, summary notifications.OrderSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *mockNotifier) AdminOrderAlert(ctx context.Context, summary notifications.OrderSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *mockNotifier) SubscriptionPending(ctx context.Context, summary notifications.SubscriptionSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

type mockOutboxRepository struct {
	mock.Mock
}

func (m *mockOutboxRepository) Save(ctx context.Context, msg *outbox.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockOutboxRepository) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockOutboxRepository) MarkPublished(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOutboxRepository) MarkFailed(ctx context.Context, id int64, lastError string, nextRetryAt time.Time) error {
	args := m.Called(ctx, id, lastError, nextRetryAt)
	return args.Error(0)
}

func (m *mockOutboxRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *mockOutboxRepository) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// memEventLedger is an insert-once ledger keyed by payment id and status.
type memEventLedger struct {
	seen map[string]struct{}
}

func newMemEventLedger() *memEventLedger {
	return &memEventLedger{seen: make(map[string]struct{})}
}

func (l *memEventLedger) Record(_ context.Context, event payments.PaymentEvent) (bool, error) {
	key := event.PaymentID + "|" + string(event.Status)
	if _, ok := l.seen[key]; ok {
		return false, nil
	}
	l.seen[key] = struct{}{}
	return true, nil
}

// noopUnitOfWork passes the context straight through.
type noopUnitOfWork struct{}

func (noopUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (noopUnitOfWork) Commit(ctx context.Context) error                   { return nil }
func (noopUnitOfWork) Rollback(ctx context.Context) error                 { return nil }
