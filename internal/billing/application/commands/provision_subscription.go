package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/martinvega/vinoteca/internal/billing/domain/plan"
	"github.com/martinvega/vinoteca/internal/billing/domain/subscription"
	identityDomain "github.com/martinvega/vinoteca/internal/identity/domain"
	"github.com/martinvega/vinoteca/internal/notifications"
	payments "github.com/martinvega/vinoteca/internal/payments/domain"
	sharedApplication "github.com/martinvega/vinoteca/internal/shared/application"
	"github.com/martinvega/vinoteca/internal/shared/infrastructure/outbox"
)

// ErrBelowMinimumAmount is returned when the plan price for the requested
// frequency is under the gateway floor. Checked before any external call.
var ErrBelowMinimumAmount = errors.New("plan price is below the minimum payable amount")

// preapprovalExcludedTypes keeps cash-equivalent instruments off recurring
// agreements; they cannot be charged unattended.
var preapprovalExcludedTypes = []string{"ticket", "atm"}

// GuestInfo is the contact and delivery payload for an unauthenticated
// provisioning request.
type GuestInfo struct {
	Name       string
	Email      string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
}

// ProvisionSubscriptionCommand requests a new recurring wine club agreement.
// CustomerID is nil for guests; GuestInfo must then carry the contact data.
type ProvisionSubscriptionCommand struct {
	PlanID     uuid.UUID
	Frequency  string
	CustomerID *uuid.UUID
	Guest      *GuestInfo
}

// ProvisionSubscriptionResult carries the pending subscription and the
// gateway-hosted payment URL the caller redirects to.
type ProvisionSubscriptionResult struct {
	SubscriptionID uuid.UUID
	CustomerID     uuid.UUID
	PlanID         uuid.UUID
	Frequency      string
	Status         string
	AmountCents    int64
	PaymentURL     string
}

// ProvisionSubscriptionHandler creates gateway recurring agreements and the
// pending subscription rows tracking them.
type ProvisionSubscriptionHandler struct {
	plans         plan.Repository
	subscriptions subscription.Repository
	customers     identityDomain.CustomerRepository
	gateway       payments.Gateway
	notifier      notifications.Notifier
	outboxRepo    outbox.Repository
	uow           sharedApplication.UnitOfWork
	currencyID    string
	backURL       string
	logger        *slog.Logger
}

func NewProvisionSubscriptionHandler(
	plans plan.Repository,
	subscriptions subscription.Repository,
	customers identityDomain.CustomerRepository,
	gateway payments.Gateway,
	notifier notifications.Notifier,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	currencyID string,
	backURL string,
	logger *slog.Logger,
) *ProvisionSubscriptionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProvisionSubscriptionHandler{
		plans:         plans,
		subscriptions: subscriptions,
		customers:     customers,
		gateway:       gateway,
		notifier:      notifier,
		outboxRepo:    outboxRepo,
		uow:           uow,
		currencyID:    currencyID,
		backURL:       backURL,
		logger:        logger,
	}
}

// Handle provisions the agreement. The gateway call happens before any local
// write: a gateway failure leaves no subscription row behind, and the
// composite external reference makes gateway-side retries idempotent.
func (h *ProvisionSubscriptionHandler) Handle(ctx context.Context, cmd ProvisionSubscriptionCommand) (ProvisionSubscriptionResult, error) {
	freq, err := subscription.ParseFrequency(cmd.Frequency)
	if err != nil {
		return ProvisionSubscriptionResult{}, err
	}

	p, err := h.plans.FindByID(ctx, cmd.PlanID)
	if err != nil {
		return ProvisionSubscriptionResult{}, err
	}

	price := p.PriceFor(freq.String())
	if price <= 0 {
		return ProvisionSubscriptionResult{}, subscription.ErrFrequencyNotOffered
	}
	if price < payments.MinPreapprovalAmountCents {
		return ProvisionSubscriptionResult{}, fmt.Errorf("%w: %d cents", ErrBelowMinimumAmount, price)
	}

	customer, err := h.resolveCustomer(ctx, cmd)
	if err != nil {
		return ProvisionSubscriptionResult{}, err
	}

	preapproval, err := h.gateway.CreatePreapproval(ctx, payments.PreapprovalRequest{
		Reason:               fmt.Sprintf("%s - %s (%s)", p.Club, p.Name, freq),
		ExternalReference:    payments.SubscriptionToken(customer.ID(), p.ID, freq.String()),
		PayerEmail:           customer.Email,
		AmountCents:          price,
		CurrencyID:           h.currencyID,
		FrequencyCount:       intervalCount(freq),
		FrequencyUnit:        intervalUnit(freq),
		BackURL:              h.backURL,
		ExcludedPaymentTypes: preapprovalExcludedTypes,
	})
	if err != nil {
		return ProvisionSubscriptionResult{}, err
	}

	sub, err := subscription.NewSubscription(customer.ID(), p, freq, preapproval.ID)
	if err != nil {
		return ProvisionSubscriptionResult{}, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.subscriptions.Save(txCtx, sub); err != nil {
			return err
		}
		msgs, err := outbox.MessagesFromEvents(sub.DomainEvents())
		if err != nil {
			return err
		}
		if err := h.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}
		sub.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return ProvisionSubscriptionResult{}, err
	}

	summary := notifications.SubscriptionSummary{
		SubscriptionID: sub.ID(),
		CustomerName:   customer.Name,
		CustomerEmail:  customer.Email,
		PlanName:       p.Name,
		Frequency:      freq.String(),
		AmountCents:    price,
		PaymentURL:     preapproval.InitPoint,
	}
	if err := h.notifier.SubscriptionPending(ctx, summary); err != nil {
		h.logger.Error("failed to trigger subscription pending email",
			"subscription_id", sub.ID(), "error", err)
	}

	return ProvisionSubscriptionResult{
		SubscriptionID: sub.ID(),
		CustomerID:     customer.ID(),
		PlanID:         p.ID,
		Frequency:      freq.String(),
		Status:         string(sub.Status()),
		AmountCents:    price,
		PaymentURL:     preapproval.InitPoint,
	}, nil
}

func (h *ProvisionSubscriptionHandler) resolveCustomer(ctx context.Context, cmd ProvisionSubscriptionCommand) (*identityDomain.Customer, error) {
	if cmd.CustomerID != nil {
		return h.customers.FindByID(ctx, *cmd.CustomerID)
	}
	if cmd.Guest == nil {
		return nil, identityDomain.ErrInvalidEmail
	}

	customer, err := h.customers.EnsureByEmail(ctx, cmd.Guest.Name, cmd.Guest.Email)
	if err != nil {
		return nil, err
	}

	if cmd.Guest.Line1 != "" {
		addr := &identityDomain.Address{
			CustomerID: customer.ID(),
			Line1:      cmd.Guest.Line1,
			Line2:      cmd.Guest.Line2,
			City:       cmd.Guest.City,
			State:      cmd.Guest.State,
			PostalCode: cmd.Guest.PostalCode,
		}
		if err := h.customers.UpsertAddress(ctx, addr, true); err != nil {
			return nil, err
		}
	}
	return customer, nil
}

func intervalCount(f subscription.Frequency) int {
	count, _ := f.BillingInterval()
	return count
}

func intervalUnit(f subscription.Frequency) string {
	_, unit := f.BillingInterval()
	return unit
}
