// Package subscription owns the wine club subscription lifecycle: created
// pending alongside a gateway recurring agreement, activated by the first
// approved payment, and mutated by user-initiated pause, frequency and plan
// changes until cancellation.
package subscription

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/martinvega/vinoteca/internal/billing/domain/plan"
	"github.com/martinvega/vinoteca/internal/shared/domain"
)

var (
	ErrCancelled           = errors.New("subscription is cancelled")
	ErrNotPending          = errors.New("subscription is not pending activation")
	ErrNotActive           = errors.New("subscription is not active")
	ErrNotPaused           = errors.New("subscription is not paused")
	ErrFrequencyNotOffered = errors.New("plan has no price for the requested frequency")
)

// Subscription is a customer's membership in a wine club plan.
type Subscription struct {
	domain.BaseAggregateRoot
	customerID       uuid.UUID
	planID           uuid.UUID
	status           Status
	frequency        Frequency
	startDate        *time.Time
	currentPeriodEnd *time.Time
	nextDeliveryDate *time.Time
	preapprovalID    string
	totalPaidCents   int64
	pauseReason      string
	cancelReason     string
}

// NewSubscription creates a pending subscription tied to a gateway recurring
// agreement. The frequency must already be validated against the plan.
func NewSubscription(customerID uuid.UUID, p *plan.Plan, frequency Frequency, preapprovalID string) (*Subscription, error) {
	if p.PriceFor(frequency.String()) <= 0 {
		return nil, ErrFrequencyNotOffered
	}
	s := &Subscription{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		customerID:        customerID,
		planID:            p.ID,
		status:            StatusPending,
		frequency:         frequency,
		preapprovalID:     preapprovalID,
	}
	s.AddDomainEvent(NewSubscriptionCreated(s.ID(), customerID, p.ID, frequency))
	return s, nil
}

// Rehydrate recreates a subscription from persisted state.
func Rehydrate(
	entity domain.BaseEntity,
	customerID, planID uuid.UUID,
	status Status,
	frequency Frequency,
	startDate, currentPeriodEnd, nextDeliveryDate *time.Time,
	preapprovalID string,
	totalPaidCents int64,
	pauseReason, cancelReason string,
) *Subscription {
	return &Subscription{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(entity),
		customerID:        customerID,
		planID:            planID,
		status:            status,
		frequency:         frequency,
		startDate:         startDate,
		currentPeriodEnd:  currentPeriodEnd,
		nextDeliveryDate:  nextDeliveryDate,
		preapprovalID:     preapprovalID,
		totalPaidCents:    totalPaidCents,
		pauseReason:       pauseReason,
		cancelReason:      cancelReason,
	}
}

func (s *Subscription) CustomerID() uuid.UUID        { return s.customerID }
func (s *Subscription) PlanID() uuid.UUID            { return s.planID }
func (s *Subscription) Status() Status               { return s.status }
func (s *Subscription) Frequency() Frequency         { return s.frequency }
func (s *Subscription) StartDate() *time.Time        { return s.startDate }
func (s *Subscription) CurrentPeriodEnd() *time.Time { return s.currentPeriodEnd }
func (s *Subscription) NextDeliveryDate() *time.Time { return s.nextDeliveryDate }
func (s *Subscription) PreapprovalID() string        { return s.preapprovalID }
func (s *Subscription) TotalPaidCents() int64        { return s.totalPaidCents }
func (s *Subscription) PauseReason() string          { return s.pauseReason }
func (s *Subscription) CancelReason() string         { return s.cancelReason }

// Activate moves a pending subscription to active on its first approved
// payment. Repeat activations are a no-op so webhook redelivery is safe.
func (s *Subscription) Activate(now time.Time, amountCents int64) (bool, error) {
	if s.status == StatusActive {
		return false, nil
	}
	if s.status != StatusPending {
		return false, ErrNotPending
	}

	start := now.UTC()
	next := s.frequency.NextDelivery(start, s.nextDeliveryDate)
	periodEnd := next

	s.status = StatusActive
	s.startDate = &start
	s.nextDeliveryDate = &next
	s.currentPeriodEnd = &periodEnd
	s.totalPaidCents += amountCents
	s.Touch()
	s.AddDomainEvent(NewSubscriptionActivated(s.ID(), s.customerID, s.planID, s.frequency, amountCents))
	return true, nil
}

// RecordPayment accrues a recurring charge. An active subscription also rolls
// its delivery schedule forward; a paused one only accrues, since the gateway
// agreement keeps charging while the pause holds deliveries locally.
func (s *Subscription) RecordPayment(now time.Time, amountCents int64) error {
	if s.status.IsTerminal() {
		return ErrCancelled
	}
	switch s.status {
	case StatusActive:
		next := s.frequency.NextDelivery(now.UTC(), s.nextDeliveryDate)
		s.nextDeliveryDate = &next
		s.currentPeriodEnd = &next
	case StatusPaused:
	default:
		return ErrNotActive
	}
	s.totalPaidCents += amountCents
	s.Touch()
	return nil
}

// Pause suspends deliveries. The reason is free text and optional.
func (s *Subscription) Pause(reason string) error {
	if s.status.IsTerminal() {
		return ErrCancelled
	}
	if s.status != StatusActive {
		return ErrNotActive
	}
	s.status = StatusPaused
	s.pauseReason = reason
	s.Touch()
	s.AddDomainEvent(NewSubscriptionPaused(s.ID(), s.customerID, reason))
	return nil
}

// Reactivate resumes a paused subscription with its previous frequency.
func (s *Subscription) Reactivate(now time.Time) error {
	if s.status.IsTerminal() {
		return ErrCancelled
	}
	if s.status != StatusPaused {
		return ErrNotPaused
	}
	next := s.frequency.NextDelivery(now.UTC(), s.nextDeliveryDate)
	s.status = StatusActive
	s.pauseReason = ""
	s.nextDeliveryDate = &next
	s.Touch()
	s.AddDomainEvent(NewSubscriptionReactivated(s.ID(), s.customerID))
	return nil
}

// Cancel is terminal. Historical delivery and payment records are kept.
func (s *Subscription) Cancel(reason string) error {
	if s.status.IsTerminal() {
		return ErrCancelled
	}
	s.status = StatusCancelled
	s.cancelReason = reason
	s.Touch()
	s.AddDomainEvent(NewSubscriptionCancelled(s.ID(), s.customerID, reason))
	return nil
}

// ChangeFrequency switches the delivery cadence. The new frequency must have
// a non-zero price on the plan; it takes effect from the next cycle.
func (s *Subscription) ChangeFrequency(now time.Time, p *plan.Plan, frequency Frequency) error {
	if s.status.IsTerminal() {
		return ErrCancelled
	}
	if p.PriceFor(frequency.String()) <= 0 {
		return ErrFrequencyNotOffered
	}
	if s.frequency == frequency {
		return nil
	}
	next := frequency.NextDelivery(now.UTC(), s.nextDeliveryDate)
	s.frequency = frequency
	s.nextDeliveryDate = &next
	s.Touch()
	s.AddDomainEvent(NewSubscriptionFrequencyChanged(s.ID(), s.customerID, frequency))
	return nil
}

// ChangePlan moves the subscription to another plan, re-validating the
// current frequency against the new plan's prices.
func (s *Subscription) ChangePlan(now time.Time, p *plan.Plan, frequency Frequency) error {
	if s.status.IsTerminal() {
		return ErrCancelled
	}
	if p.PriceFor(frequency.String()) <= 0 {
		return ErrFrequencyNotOffered
	}
	next := frequency.NextDelivery(now.UTC(), s.nextDeliveryDate)
	s.planID = p.ID
	s.frequency = frequency
	s.nextDeliveryDate = &next
	s.Touch()
	s.AddDomainEvent(NewSubscriptionPlanChanged(s.ID(), s.customerID, p.ID, frequency))
	return nil
}
