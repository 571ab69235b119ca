package commands

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/martinvega/vinoteca/internal/billing/domain/plan"
	"github.com/martinvega/vinoteca/internal/billing/domain/subscription"
)

func newActiveSubscription(t *testing.T) *subscription.Subscription {
	t.Helper()
	s, err := subscription.NewSubscription(uuid.New(), provisionPlan(), subscription.FrequencyWeekly, "pre_1")
	require.NoError(t, err)
	_, err = s.Activate(time.Now(), 5000)
	require.NoError(t, err)
	s.ClearDomainEvents()
	return s
}

func TestPauseAndReactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("pause then reactivate round-trips the status", func(t *testing.T) {
		sub := newActiveSubscription(t)
		subs := new(mockSubscriptionRepository)
		outboxRepo := new(mockOutboxRepository)
		subs.On("FindByID", mock.Anything, sub.ID()).Return(sub, nil)
		subs.On("Save", mock.Anything, sub).Return(nil)
		outboxRepo.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)

		pause := NewPauseSubscriptionHandler(subs, outboxRepo, noopUnitOfWork{})
		require.NoError(t, pause.Handle(ctx, PauseSubscriptionCommand{SubscriptionID: sub.ID(), Reason: "vacaciones"}))
		assert.Equal(t, subscription.StatusPaused, sub.Status())

		reactivate := NewReactivateSubscriptionHandler(subs, outboxRepo, noopUnitOfWork{})
		require.NoError(t, reactivate.Handle(ctx, ReactivateSubscriptionCommand{SubscriptionID: sub.ID()}))
		assert.Equal(t, subscription.StatusActive, sub.Status())
	})

	t.Run("pausing a pending subscription fails", func(t *testing.T) {
		sub, err := subscription.NewSubscription(uuid.New(), provisionPlan(), subscription.FrequencyWeekly, "pre_1")
		require.NoError(t, err)
		subs := new(mockSubscriptionRepository)
		subs.On("FindByID", mock.Anything, sub.ID()).Return(sub, nil)

		pause := NewPauseSubscriptionHandler(subs, new(mockOutboxRepository), noopUnitOfWork{})
		err = pause.Handle(ctx, PauseSubscriptionCommand{SubscriptionID: sub.ID()})
		assert.ErrorIs(t, err, subscription.ErrNotActive)
	})
}

func TestCancelSubscriptionHandler_Handle(t *testing.T) {
	ctx := context.Background()

	sub := newActiveSubscription(t)
	subs := new(mockSubscriptionRepository)
	outboxRepo := new(mockOutboxRepository)
	subs.On("FindByID", mock.Anything, sub.ID()).Return(sub, nil)
	subs.On("Save", mock.Anything, sub).Return(nil)
	outboxRepo.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)

	handler := NewCancelSubscriptionHandler(subs, outboxRepo, noopUnitOfWork{})
	require.NoError(t, handler.Handle(ctx, CancelSubscriptionCommand{SubscriptionID: sub.ID(), Reason: "mudanza"}))
	assert.Equal(t, subscription.StatusCancelled, sub.Status())
	assert.Equal(t, "mudanza", sub.CancelReason())

	err := handler.Handle(ctx, CancelSubscriptionCommand{SubscriptionID: sub.ID()})
	assert.ErrorIs(t, err, subscription.ErrCancelled)
}

func TestChangeFrequencyHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("switches to a priced frequency", func(t *testing.T) {
		sub := newActiveSubscription(t)
		p := provisionPlan()
		p.ID = sub.PlanID()

		subs := new(mockSubscriptionRepository)
		plans := new(mockPlanRepository)
		outboxRepo := new(mockOutboxRepository)
		subs.On("FindByID", mock.Anything, sub.ID()).Return(sub, nil)
		plans.On("FindByID", mock.Anything, sub.PlanID()).Return(p, nil)
		subs.On("Save", mock.Anything, sub).Return(nil)
		outboxRepo.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)

		handler := NewChangeFrequencyHandler(subs, plans, outboxRepo, noopUnitOfWork{})
		require.NoError(t, handler.Handle(ctx, ChangeFrequencyCommand{SubscriptionID: sub.ID(), Frequency: "monthly"}))
		assert.Equal(t, subscription.FrequencyMonthly, sub.Frequency())
	})

	t.Run("rejects a frequency with no plan price", func(t *testing.T) {
		sub := newActiveSubscription(t)
		p := provisionPlan()
		p.ID = sub.PlanID()

		subs := new(mockSubscriptionRepository)
		plans := new(mockPlanRepository)
		subs.On("FindByID", mock.Anything, sub.ID()).Return(sub, nil)
		plans.On("FindByID", mock.Anything, sub.PlanID()).Return(p, nil)

		handler := NewChangeFrequencyHandler(subs, plans, new(mockOutboxRepository), noopUnitOfWork{})
		err := handler.Handle(ctx, ChangeFrequencyCommand{SubscriptionID: sub.ID(), Frequency: "quarterly"})
		assert.ErrorIs(t, err, subscription.ErrFrequencyNotOffered)
	})
}

func TestChangePlanHandler_Handle(t *testing.T) {
	ctx := context.Background()

	sub := newActiveSubscription(t)
	target := &plan.Plan{ID: uuid.New(), Club: "blanco", Name: "Club Blanco", PriceMonthlyCents: 12000}

	subs := new(mockSubscriptionRepository)
	plans := new(mockPlanRepository)
	outboxRepo := new(mockOutboxRepository)
	subs.On("FindByID", mock.Anything, sub.ID()).Return(sub, nil)
	plans.On("FindByID", mock.Anything, target.ID).Return(target, nil)
	subs.On("Save", mock.Anything, sub).Return(nil)
	outboxRepo.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)

	handler := NewChangePlanHandler(subs, plans, outboxRepo, noopUnitOfWork{})

	// The current weekly frequency has no price on the target plan.
	err := handler.Handle(ctx, ChangePlanCommand{SubscriptionID: sub.ID(), PlanID: target.ID})
	assert.ErrorIs(t, err, subscription.ErrFrequencyNotOffered)

	require.NoError(t, handler.Handle(ctx, ChangePlanCommand{SubscriptionID: sub.ID(), PlanID: target.ID, Frequency: "monthly"}))
	assert.Equal(t, target.ID, sub.PlanID())
	assert.Equal(t, subscription.FrequencyMonthly, sub.Frequency())
}
