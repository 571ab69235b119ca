package api

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/martinvega/vinoteca/internal/billing/domain/plan"
	"github.com/martinvega/vinoteca/internal/billing/domain/subscription"
	identityDomain "github.com/martinvega/vinoteca/internal/identity/domain"
	"github.com/martinvega/vinoteca/internal/notifications"
	"github.com/martinvega/vinoteca/internal/ordering/domain/order"
	payments "github.com/martinvega/vinoteca/internal/payments/domain"
	"github.com/martinvega/vinoteca/internal/shared/infrastructure/outbox"
)

// In-memory fakes backing the HTTP-level tests.

type memOrderRepo struct {
	orders map[uuid.UUID]*order.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: map[uuid.UUID]*order.Order{}}
}

func (r *memOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (r *memOrderRepo) Save(_ context.Context, o *order.Order) error {
	r.orders[o.ID()] = o
	return nil
}

type memPlanRepo struct {
	plans map[uuid.UUID]*plan.Plan
}

func newMemPlanRepo(plans ...*plan.Plan) *memPlanRepo {
	r := &memPlanRepo{plans: map[uuid.UUID]*plan.Plan{}}
	for _, p := range plans {
		r.plans[p.ID] = p
	}
	return r
}

func (r *memPlanRepo) FindByID(_ context.Context, id uuid.UUID) (*plan.Plan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, plan.ErrNotFound
	}
	return p, nil
}

func (r *memPlanRepo) ListVisible(_ context.Context) ([]*plan.Plan, error) {
	var out []*plan.Plan
	for _, p := range r.plans {
		if p.IsActive && p.IsVisible {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPlanRepo) Save(_ context.Context, p *plan.Plan) error {
	r.plans[p.ID] = p
	return nil
}

type memSubscriptionRepo struct {
	subs map[uuid.UUID]*subscription.Subscription
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{subs: map[uuid.UUID]*subscription.Subscription{}}
}

func (r *memSubscriptionRepo) FindByID(_ context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	s, ok := r.subs[id]
	if !ok {
		return nil, subscription.ErrNotFound
	}
	return s, nil
}

func (r *memSubscriptionRepo) FindByProvisioningKey(_ context.Context, customerID, planID uuid.UUID, frequency subscription.Frequency) (*subscription.Subscription, error) {
	for _, s := range r.subs {
		if s.CustomerID() == customerID && s.PlanID() == planID && s.Frequency() == frequency && s.Status() != subscription.StatusCancelled {
			return s, nil
		}
	}
	return nil, subscription.ErrNotFound
}

func (r *memSubscriptionRepo) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]*subscription.Subscription, error) {
	var out []*subscription.Subscription
	for _, s := range r.subs {
		if s.CustomerID() == customerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSubscriptionRepo) Save(_ context.Context, s *subscription.Subscription) error {
	r.subs[s.ID()] = s
	return nil
}

type memCustomerRepo struct {
	customers map[uuid.UUID]*identityDomain.Customer
}

func newMemCustomerRepo(customers ...*identityDomain.Customer) *memCustomerRepo {
	r := &memCustomerRepo{customers: map[uuid.UUID]*identityDomain.Customer{}}
	for _, c := range customers {
		r.customers[c.ID()] = c
	}
	return r
}

func (r *memCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*identityDomain.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, identityDomain.ErrCustomerNotFound
	}
	return c, nil
}

func (r *memCustomerRepo) FindByEmail(_ context.Context, email string) (*identityDomain.Customer, error) {
	for _, c := range r.customers {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, identityDomain.ErrCustomerNotFound
}

func (r *memCustomerRepo) Save(_ context.Context, c *identityDomain.Customer) error {
	r.customers[c.ID()] = c
	return nil
}

func (r *memCustomerRepo) EnsureByEmail(_ context.Context, name, email string) (*identityDomain.Customer, error) {
	for _, c := range r.customers {
		if c.Email == email {
			return c, nil
		}
	}
	c, err := identityDomain.NewCustomer(name, email)
	if err != nil {
		return nil, err
	}
	r.customers[c.ID()] = c
	return c, nil
}

func (r *memCustomerRepo) UpsertAddress(_ context.Context, _ *identityDomain.Address, _ bool) error {
	return nil
}

// stubGateway answers preapproval creation and payment queries from fixtures.
type stubGateway struct {
	payment        *payments.Payment
	paymentErr     error
	preapproval    *payments.Preapproval
	preapprovalErr error
}

func (g *stubGateway) Payment(_ context.Context, _ string) (*payments.Payment, error) {
	return g.payment, g.paymentErr
}

func (g *stubGateway) MerchantOrder(_ context.Context, _ string) (*payments.MerchantOrder, error) {
	return nil, payments.NewQueryError("not implemented", 0)
}

func (g *stubGateway) CreatePreapproval(_ context.Context, _ payments.PreapprovalRequest) (*payments.Preapproval, error) {
	return g.preapproval, g.preapprovalErr
}

type nullOutbox struct{}

func (nullOutbox) Save(context.Context, *outbox.Message) error        { return nil }
func (nullOutbox) SaveBatch(context.Context, []*outbox.Message) error { return nil }
func (nullOutbox) GetUnpublished(context.Context, int) ([]*outbox.Message, error) {
	return nil, nil
}
func (nullOutbox) MarkPublished(context.Context, int64) error                  { return nil }
func (nullOutbox) MarkFailed(context.Context, int64, string, time.Time) error  { return nil }
func (nullOutbox) MarkDead(context.Context, int64, string) error               { return nil }
func (nullOutbox) DeletePublishedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (noopUnitOfWork) Commit(ctx context.Context) error                   { return nil }
func (noopUnitOfWork) Rollback(ctx context.Context) error                 { return nil }

type silentNotifier struct{}

func (silentNotifier) OrderConfirmation(context.Context, notifications.OrderSummary) error { return nil }
func (silentNotifier) AdminOrderAlert(context.Context, notifications.OrderSummary) error   { return nil }
func (silentNotifier) SubscriptionPending(context.Context, notifications.SubscriptionSummary) error {
	return nil
}

// stubNormalizer resolves every delivery to a fixed payment id.
type stubNormalizer struct {
	paymentID string
	err       error
}

func (n *stubNormalizer) Resolve(context.Context, []byte, url.Values) (string, error) {
	return n.paymentID, n.err
}

type passthroughSeenCache struct{}

func (passthroughSeenCache) MarkSeen(context.Context, string) bool { return true }
func (passthroughSeenCache) Forget(context.Context, string)        {}

type memLedger struct {
	seen map[string]bool
}

func newMemLedger() *memLedger { return &memLedger{seen: map[string]bool{}} }

func (l *memLedger) Record(_ context.Context, event payments.PaymentEvent) (bool, error) {
	key := event.PaymentID + "|" + string(event.Status)
	if l.seen[key] {
		return false, nil
	}
	l.seen[key] = true
	return true, nil
}

var (
	_ order.Repository                  = (*memOrderRepo)(nil)
	_ plan.Repository                   = (*memPlanRepo)(nil)
	_ subscription.Repository           = (*memSubscriptionRepo)(nil)
	_ identityDomain.CustomerRepository = (*memCustomerRepo)(nil)
	_ payments.Gateway                  = (*stubGateway)(nil)
	_ outbox.Repository                 = nullOutbox{}
	_ notifications.Notifier            = silentNotifier{}
	_ payments.EventLedger              = (*memLedger)(nil)
)
