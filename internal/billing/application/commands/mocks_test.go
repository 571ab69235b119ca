package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/martinvega/vinoteca/internal/billing/domain/plan"
	"github.com/martinvega/vinoteca/internal/billing/domain/subscription"
	identityDomain "github.com/martinvega/vinoteca/internal/identity/domain"
	"github.com/martinvega/vinoteca/internal/notifications"
	payments "github.com/martinvega/vinoteca/internal/payments/domain"
	"github.com/martinvega/vinoteca/internal/shared/infrastructure/outbox"
)

type mockPlanRepository struct {
	mock.Mock
}

func (m *mockPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

func (m *mockPlanRepository) ListVisible(ctx context.Context) ([]*plan.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*plan.Plan), args.Error(1)
}

func (m *mockPlanRepository) Save(ctx context.Context, p *plan.Plan) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type mockSubscriptionRepository struct {
	mock.Mock
}

func (m *mockSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepository) FindByProvisioningKey(ctx context.Context, customerID, planID uuid.UUID, frequency subscription.Frequency) (*subscription.Subscription, error) {
	args := m.Called(ctx, customerID, planID, frequency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*subscription.Subscription, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscription.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepository) Save(ctx context.Context, s *subscription.Subscription) error {
	args := m.Called(ctx, s)
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

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Payment(ctx context.Context, paymentID string) (*payments.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Payment), args.Error(1)
}

func (m *mockGateway) MerchantOrder(ctx context.Context, merchantOrderID string) (*payments.MerchantOrder, error) {
	args := m.Called(ctx, merchantOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.MerchantOrder), args.Error(1)
}

func (m *mockGateway) CreatePreapproval(ctx context.Context, req payments.PreapprovalRequest) (*payments.Preapproval, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Preapproval), args.Error(1)
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

type noopUnitOfWork struct{}

func (noopUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (noopUnitOfWork) Commit(ctx context.Context) error                   { return nil }
func (noopUnitOfWork) Rollback(ctx context.Context) error                 { return nil }
