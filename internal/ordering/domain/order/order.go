package order

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	payments "github.com/martinvega/vinoteca/internal/payments/domain"
	"github.com/martinvega/vinoteca/internal/shared/domain"
)

var (
	ErrNoItems             = errors.New("order must contain at least one item")
	ErrInvalidItem         = errors.New("order item has invalid quantity or price")
	ErrOrderRefunded       = errors.New("order is refunded")
	ErrOrderCancelled      = errors.New("order is cancelled")
	ErrBackwardTransition  = errors.New("payment status would move the order backward")
	ErrCancelAfterDelivery = errors.New("delivered orders cannot be cancelled")
)

// Item is a line item with the unit price snapshotted at purchase time.
type Item struct {
	ID             uuid.UUID
	ProductID      uuid.UUID
	Name           string
	Quantity       int
	UnitPriceCents int64
}

// Order is a storefront purchase moving through fulfillment.
type Order struct {
	domain.BaseAggregateRoot
	customerID    uuid.UUID
	status        Status
	items         []Item
	subtotalCents int64
	shippingCents int64
	note          string
}

// NewOrder creates a pending order, computing the subtotal from item
// snapshots. The total invariant (items + shipping) holds by construction.
func NewOrder(customerID uuid.UUID, items []Item, shippingCents int64) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	if shippingCents < 0 {
		return nil, ErrInvalidItem
	}

	var subtotal int64
	for i := range items {
		if items[i].Quantity <= 0 || items[i].UnitPriceCents < 0 {
			return nil, ErrInvalidItem
		}
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		subtotal += items[i].UnitPriceCents * int64(items[i].Quantity)
	}

	o := &Order{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		customerID:        customerID,
		status:            StatusPending,
		items:             items,
		subtotalCents:     subtotal,
		shippingCents:     shippingCents,
	}

	o.AddDomainEvent(NewOrderCreated(o.ID(), customerID, o.TotalCents()))

	return o, nil
}

// Rehydrate recreates an order from persisted state.
func Rehydrate(entity domain.BaseEntity, customerID uuid.UUID, status Status, items []Item, subtotalCents, shippingCents int64, note string) *Order {
	return &Order{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(entity),
		customerID:        customerID,
		status:            status,
		items:             items,
		subtotalCents:     subtotalCents,
		shippingCents:     shippingCents,
		note:              note,
	}
}

func (o *Order) CustomerID() uuid.UUID { return o.customerID }
func (o *Order) Status() Status        { return o.status }
func (o *Order) Items() []Item         { return o.items }
func (o *Order) SubtotalCents() int64  { return o.subtotalCents }
func (o *Order) ShippingCents() int64  { return o.shippingCents }
func (o *Order) TotalCents() int64     { return o.subtotalCents + o.shippingCents }
func (o *Order) Note() string          { return o.note }

// ApplyPaymentStatus applies a gateway payment status to the order using the
// transition table keyed by (current status, target status):
//
//   - same target as current: no-op (duplicate delivery)
//   - refunded: always applies, from any state
//   - cancelled: applies from any state except delivered
//   - from cancelled: only refunded or paid may apply; a stale pending or
//     in-process delivery must not resurrect the order
//   - forward move along the fulfillment path: applies
//   - backward move: rejected unless allowRegression is set; a stale
//     redelivery must not regress an advanced order
//
// Returns true when the order changed.
func (o *Order) ApplyPaymentStatus(ps payments.Status, allowRegression bool) (bool, error) {
	target := StatusForPayment(ps)

	if o.status == target {
		// An unmapped gateway status keeps the order pending but records why.
		if target == StatusPending && ps == payments.StatusOther && o.note == "" {
			o.transition(target, fmt.Sprintf("payment status %q left order pending", ps))
			return true, nil
		}
		return false, nil
	}
	if o.status.IsTerminal() {
		return false, ErrOrderRefunded
	}
	if o.status == StatusCancelled && target != StatusRefunded && target != StatusPaid {
		return false, ErrOrderCancelled
	}

	switch target {
	case StatusRefunded:
		o.transition(target, fmt.Sprintf("refunded on payment status %q", ps))
		o.AddDomainEvent(NewOrderRefunded(o.ID(), o.customerID))
		return true, nil

	case StatusCancelled:
		if o.status == StatusDelivered {
			return false, ErrCancelAfterDelivery
		}
		o.transition(target, fmt.Sprintf("cancelled on payment status %q", ps))
		o.AddDomainEvent(NewOrderCancelled(o.ID(), o.customerID))
		return true, nil
	}

	if fulfillmentRank[target] < fulfillmentRank[o.status] && !allowRegression {
		return false, ErrBackwardTransition
	}

	note := ""
	if target == StatusPending && ps != payments.StatusPending {
		note = fmt.Sprintf("payment status %q left order pending", ps)
	}
	o.transition(target, note)

	if target == StatusPaid {
		o.AddDomainEvent(NewOrderPaid(o.ID(), o.customerID, o.TotalCents()))
	}
	return true, nil
}

// MarkPreparing advances a paid order into fulfillment.
func (o *Order) MarkPreparing() error { return o.advance(StatusPaid, StatusPreparing) }

// MarkShipped advances a preparing order to shipped.
func (o *Order) MarkShipped() error { return o.advance(StatusPreparing, StatusShipped) }

// MarkDelivered advances a shipped order to delivered.
func (o *Order) MarkDelivered() error { return o.advance(StatusShipped, StatusDelivered) }

func (o *Order) advance(from, to Status) error {
	if o.status == to {
		return nil
	}
	if o.status != from {
		return fmt.Errorf("cannot move order from %q to %q", o.status, to)
	}
	o.transition(to, "")
	return nil
}

func (o *Order) transition(to Status, note string) {
	o.status = to
	o.note = note
	o.Touch()
}
