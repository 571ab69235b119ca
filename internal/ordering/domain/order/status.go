package order

import (
	payments "github.com/martinvega/vinoteca/internal/payments/domain"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusPreparing Status = "preparing"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// fulfillmentRank orders the forward lifecycle states. Side-exit states are
// not ranked; they are handled explicitly.
var fulfillmentRank = map[Status]int{
	StatusPending:   0,
	StatusPaid:      1,
	StatusPreparing: 2,
	StatusShipped:   3,
	StatusDelivered: 4,
}

// IsTerminal reports whether no further transitions may leave the state.
func (s Status) IsTerminal() bool {
	return s == StatusRefunded
}

// StatusForPayment maps a gateway payment status to the order status it
// drives. Unmapped payment statuses leave the order pending.
func StatusForPayment(ps payments.Status) Status {
	switch ps {
	case payments.StatusApproved:
		return StatusPaid
	case payments.StatusRejected:
		return StatusCancelled
	case payments.StatusRefunded:
		return StatusRefunded
	case payments.StatusInProcess, payments.StatusPending:
		return StatusPending
	default:
		return StatusPending
	}
}
