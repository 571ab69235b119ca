package subscription

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinvega/vinoteca/internal/billing/domain/plan"
)

func testPlan() *plan.Plan {
	return &plan.Plan{
		ID:                 uuid.New(),
		Club:               "tinto",
		Name:               "Club Tinto",
		PriceWeeklyCents:   5000,
		PriceBiweeklyCents: 9000,
		PriceMonthlyCents:  16000,
		WinesPerDelivery:   3,
		IsActive:           true,
		IsVisible:          true,
	}
}

func TestNewSubscription(t *testing.T) {
	t.Run("creates a pending subscription with the agreement id", func(t *testing.T) {
		p := testPlan()
		s, err := NewSubscription(uuid.New(), p, FrequencyWeekly, "pre_123")

		require.NoError(t, err)
		assert.Equal(t, StatusPending, s.Status())
		assert.Equal(t, FrequencyWeekly, s.Frequency())
		assert.Equal(t, "pre_123", s.PreapprovalID())
		assert.Nil(t, s.StartDate())
		require.Len(t, s.DomainEvents(), 1)
		assert.Equal(t, "subscription.created", s.DomainEvents()[0].RoutingKey())
	})

	t.Run("rejects a frequency the plan does not price", func(t *testing.T) {
		p := testPlan()
		_, err := NewSubscription(uuid.New(), p, FrequencyQuarterly, "pre_123")
		assert.ErrorIs(t, err, ErrFrequencyNotOffered)
	})
}

func TestSubscription_Activate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("first approved payment activates and schedules delivery", func(t *testing.T) {
		s, err := NewSubscription(uuid.New(), testPlan(), FrequencyWeekly, "pre_1")
		require.NoError(t, err)
		s.ClearDomainEvents()

		changed, err := s.Activate(now, 5000)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, StatusActive, s.Status())
		require.NotNil(t, s.NextDeliveryDate())
		assert.Equal(t, now.AddDate(0, 0, 7), *s.NextDeliveryDate())
		assert.Equal(t, int64(5000), s.TotalPaidCents())
		require.Len(t, s.DomainEvents(), 1)
		assert.Equal(t, "subscription.activated", s.DomainEvents()[0].RoutingKey())
	})

	t.Run("redelivered activation is a no-op", func(t *testing.T) {
		s, err := NewSubscription(uuid.New(), testPlan(), FrequencyWeekly, "pre_1")
		require.NoError(t, err)
		_, err = s.Activate(now, 5000)
		require.NoError(t, err)
		s.ClearDomainEvents()

		changed, err := s.Activate(now, 5000)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, int64(5000), s.TotalPaidCents())
		assert.Empty(t, s.DomainEvents())
	})

	t.Run("cancelled subscription cannot activate", func(t *testing.T) {
		s, err := NewSubscription(uuid.New(), testPlan(), FrequencyWeekly, "pre_1")
		require.NoError(t, err)
		require.NoError(t, s.Cancel(""))

		_, err = s.Activate(now, 5000)
		assert.ErrorIs(t, err, ErrNotPending)
	})
}

func TestSubscription_PauseReactivateCancel(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	newActive := func(t *testing.T) *Subscription {
		t.Helper()
		s, err := NewSubscription(uuid.New(), testPlan(), FrequencyMonthly, "pre_9")
		require.NoError(t, err)
		_, err = s.Activate(now, 16000)
		require.NoError(t, err)
		s.ClearDomainEvents()
		return s
	}

	t.Run("pause records the reason and reactivate clears it", func(t *testing.T) {
		s := newActive(t)
		require.NoError(t, s.Pause("travelling"))
		assert.Equal(t, StatusPaused, s.Status())
		assert.Equal(t, "travelling", s.PauseReason())

		require.NoError(t, s.Reactivate(now.AddDate(0, 2, 0)))
		assert.Equal(t, StatusActive, s.Status())
		assert.Empty(t, s.PauseReason())
		assert.Equal(t, FrequencyMonthly, s.Frequency())
	})

	t.Run("pause requires an active subscription", func(t *testing.T) {
		s, err := NewSubscription(uuid.New(), testPlan(), FrequencyWeekly, "pre_1")
		require.NoError(t, err)
		assert.ErrorIs(t, s.Pause(""), ErrNotActive)
	})

	t.Run("cancel is terminal", func(t *testing.T) {
		s := newActive(t)
		require.NoError(t, s.Cancel("too much wine"))
		assert.Equal(t, StatusCancelled, s.Status())
		assert.Equal(t, "too much wine", s.CancelReason())

		assert.ErrorIs(t, s.Pause(""), ErrCancelled)
		assert.ErrorIs(t, s.Reactivate(now), ErrCancelled)
		assert.ErrorIs(t, s.Cancel(""), ErrCancelled)
	})
}

func TestSubscription_ChangeFrequencyAndPlan(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	newActive := func(t *testing.T) *Subscription {
		t.Helper()
		s, err := NewSubscription(uuid.New(), testPlan(), FrequencyWeekly, "pre_2")
		require.NoError(t, err)
		_, err = s.Activate(now, 5000)
		require.NoError(t, err)
		s.ClearDomainEvents()
		return s
	}

	t.Run("change to a priced frequency reschedules delivery", func(t *testing.T) {
		s := newActive(t)
		require.NoError(t, s.ChangeFrequency(now, testPlan(), FrequencyMonthly))
		assert.Equal(t, FrequencyMonthly, s.Frequency())
		// Previous next delivery was now+7d, later than now, so the new cycle
		// counts from it.
		assert.Equal(t, now.AddDate(0, 0, 7+30), *s.NextDeliveryDate())
	})

	t.Run("change to a zero-priced frequency is rejected", func(t *testing.T) {
		s := newActive(t)
		err := s.ChangeFrequency(now, testPlan(), FrequencyQuarterly)
		assert.ErrorIs(t, err, ErrFrequencyNotOffered)
		assert.Equal(t, FrequencyWeekly, s.Frequency())
	})

	t.Run("change to the same frequency is a no-op", func(t *testing.T) {
		s := newActive(t)
		before := *s.NextDeliveryDate()
		require.NoError(t, s.ChangeFrequency(now, testPlan(), FrequencyWeekly))
		assert.Equal(t, before, *s.NextDeliveryDate())
		assert.Empty(t, s.DomainEvents())
	})

	t.Run("change plan re-validates the frequency against the new plan", func(t *testing.T) {
		s := newActive(t)
		next := &plan.Plan{ID: uuid.New(), Club: "blanco", Name: "Club Blanco", PriceMonthlyCents: 12000}

		assert.ErrorIs(t, s.ChangePlan(now, next, FrequencyWeekly), ErrFrequencyNotOffered)

		require.NoError(t, s.ChangePlan(now, next, FrequencyMonthly))
		assert.Equal(t, next.ID, s.PlanID())
		assert.Equal(t, FrequencyMonthly, s.Frequency())
	})
}

func TestFrequency_NextDelivery(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("counts from now when there is no previous date", func(t *testing.T) {
		assert.Equal(t, now.AddDate(0, 0, 14), FrequencyBiweekly.NextDelivery(now, nil))
	})

	t.Run("counts from the previous date when it is in the future", func(t *testing.T) {
		prev := now.AddDate(0, 0, 5)
		assert.Equal(t, prev.AddDate(0, 0, 7), FrequencyWeekly.NextDelivery(now, &prev))
	})

	t.Run("ignores a stale previous date in the past", func(t *testing.T) {
		prev := now.AddDate(0, 0, -40)
		assert.Equal(t, now.AddDate(0, 0, 30), FrequencyMonthly.NextDelivery(now, &prev))
	})
}

func TestParseFrequency(t *testing.T) {
	for _, valid := range []string{"weekly", "biweekly", "monthly", "quarterly"} {
		f, err := ParseFrequency(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, f.String())
	}

	_, err := ParseFrequency("fortnightly")
	assert.ErrorIs(t, err, ErrInvalidFrequency)
}
