package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/martinvega/vinoteca/internal/billing/domain/subscription"
	sharedDomain "github.com/martinvega/vinoteca/internal/shared/domain"
	sharedPersistence "github.com/martinvega/vinoteca/internal/shared/infrastructure/persistence"
)

const subscriptionColumns = `id, customer_id, plan_id, status, frequency,
	start_date, current_period_end, next_delivery_date, preapproval_id,
	total_paid_cents, pause_reason, cancel_reason, created_at, updated_at`

// PostgresSubscriptionRepository persists wine club subscriptions.
type PostgresSubscriptionRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresSubscriptionRepository(pool *pgxpool.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

func (r *PostgresSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM user_subscriptions WHERE id = $1`, id)
	return scanSubscription(row)
}

func (r *PostgresSubscriptionRepository) FindByProvisioningKey(ctx context.Context, customerID, planID uuid.UUID, frequency subscription.Frequency) (*subscription.Subscription, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)
	row := exec.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM user_subscriptions
		WHERE customer_id = $1 AND plan_id = $2 AND frequency = $3 AND status != 'cancelled'
		ORDER BY created_at DESC
		LIMIT 1`,
		customerID, planID, frequency.String())
	return scanSubscription(row)
}

func (r *PostgresSubscriptionRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*subscription.Subscription, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)
	rows, err := exec.Query(ctx, `
		SELECT `+subscriptionColumns+`
		FROM user_subscriptions
		WHERE customer_id = $1
		ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (r *PostgresSubscriptionRepository) Save(ctx context.Context, s *subscription.Subscription) error {
	exec := sharedPersistence.Executor(ctx, r.pool)
	_, err := exec.Exec(ctx, `
		INSERT INTO user_subscriptions (id, customer_id, plan_id, status, frequency,
			start_date, current_period_end, next_delivery_date, preapproval_id,
			total_paid_cents, pause_reason, cancel_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			status = EXCLUDED.status,
			frequency = EXCLUDED.frequency,
			start_date = EXCLUDED.start_date,
			current_period_end = EXCLUDED.current_period_end,
			next_delivery_date = EXCLUDED.next_delivery_date,
			total_paid_cents = EXCLUDED.total_paid_cents,
			pause_reason = EXCLUDED.pause_reason,
			cancel_reason = EXCLUDED.cancel_reason,
			updated_at = EXCLUDED.updated_at`,
		s.ID(), s.CustomerID(), s.PlanID(), string(s.Status()), s.Frequency().String(),
		s.StartDate(), s.CurrentPeriodEnd(), s.NextDeliveryDate(), s.PreapprovalID(),
		s.TotalPaidCents(), s.PauseReason(), s.CancelReason(), s.CreatedAt(), s.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var (
		id, customerID, planID                    uuid.UUID
		status, frequency                         string
		startDate, currentPeriodEnd, nextDelivery *time.Time
		preapprovalID, pauseReason, cancelReason  string
		totalPaidCents                            int64
		createdAt, updatedAt                      time.Time
	)
	err := row.Scan(&id, &customerID, &planID, &status, &frequency,
		&startDate, &currentPeriodEnd, &nextDelivery, &preapprovalID,
		&totalPaidCents, &pauseReason, &cancelReason, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, subscription.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}

	entity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return subscription.Rehydrate(entity, customerID, planID,
		subscription.Status(status), subscription.Frequency(frequency),
		startDate, currentPeriodEnd, nextDelivery,
		preapprovalID, totalPaidCents, pauseReason, cancelReason), nil
}
