package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PaymentEvent records one externally delivered payment notification and the
// transition it produced. The gateway delivers at least once; the ledger
// guarantees each (payment id, status) pair maps to at most one applied
// transition, so a redelivered notification is a no-op while a genuine
// status change for the same payment still gets through.
type PaymentEvent struct {
	PaymentID      string
	OrderID        *uuid.UUID
	SubscriptionID *uuid.UUID
	Status         Status
	ReceivedAt     time.Time
}

// EventLedger is the insert-once store backing redelivery idempotency.
// Handlers call Record inside the same unit of work as the transition it
// gates, before mutating any aggregate.
type EventLedger interface {
	// Record stores the event if its payment id and status were never seen
	// together. It returns false when the pair was already recorded, in which
	// case the caller must skip the transition and report a duplicate.
	Record(ctx context.Context, event PaymentEvent) (bool, error)
}
