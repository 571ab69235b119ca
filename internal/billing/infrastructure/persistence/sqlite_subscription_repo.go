package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/martinvega/vinoteca/internal/billing/domain/subscription"
	sharedDomain "github.com/martinvega/vinoteca/internal/shared/domain"
)

// SQLiteSubscriptionRepository is the embedded-store variant of the
// subscription repository, used for single-node deployments and tests.
type SQLiteSubscriptionRepository struct {
	db *sql.DB
}

func NewSQLiteSubscriptionRepository(db *sql.DB) *SQLiteSubscriptionRepository {
	return &SQLiteSubscriptionRepository{db: db}
}

func (r *SQLiteSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, plan_id, status, frequency,
			start_date, current_period_end, next_delivery_date, preapproval_id,
			total_paid_cents, pause_reason, cancel_reason, created_at, updated_at
		FROM user_subscriptions WHERE id = ?`, id.String())
	return scanSQLiteSubscription(row)
}

func (r *SQLiteSubscriptionRepository) FindByProvisioningKey(ctx context.Context, customerID, planID uuid.UUID, frequency subscription.Frequency) (*subscription.Subscription, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, plan_id, status, frequency,
			start_date, current_period_end, next_delivery_date, preapproval_id,
			total_paid_cents, pause_reason, cancel_reason, created_at, updated_at
		FROM user_subscriptions
		WHERE customer_id = ? AND plan_id = ? AND frequency = ? AND status != 'cancelled'
		ORDER BY created_at DESC
		LIMIT 1`, customerID.String(), planID.String(), frequency.String())
	return scanSQLiteSubscription(row)
}

func (r *SQLiteSubscriptionRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*subscription.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_id, plan_id, status, frequency,
			start_date, current_period_end, next_delivery_date, preapproval_id,
			total_paid_cents, pause_reason, cancel_reason, created_at, updated_at
		FROM user_subscriptions
		WHERE customer_id = ?
		ORDER BY created_at DESC`, customerID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*subscription.Subscription
	for rows.Next() {
		sub, err := scanSQLiteSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (r *SQLiteSubscriptionRepository) Save(ctx context.Context, s *subscription.Subscription) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_subscriptions (id, customer_id, plan_id, status, frequency,
			start_date, current_period_end, next_delivery_date, preapproval_id,
			total_paid_cents, pause_reason, cancel_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			plan_id = excluded.plan_id,
			status = excluded.status,
			frequency = excluded.frequency,
			start_date = excluded.start_date,
			current_period_end = excluded.current_period_end,
			next_delivery_date = excluded.next_delivery_date,
			total_paid_cents = excluded.total_paid_cents,
			pause_reason = excluded.pause_reason,
			cancel_reason = excluded.cancel_reason,
			updated_at = excluded.updated_at`,
		s.ID().String(), s.CustomerID().String(), s.PlanID().String(),
		string(s.Status()), s.Frequency().String(),
		formatNullableTime(s.StartDate()), formatNullableTime(s.CurrentPeriodEnd()),
		formatNullableTime(s.NextDeliveryDate()), s.PreapprovalID(),
		s.TotalPaidCents(), s.PauseReason(), s.CancelReason(),
		s.CreatedAt().UTC().Format(time.RFC3339Nano), s.UpdatedAt().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSubscription(row rowScanner) (*subscription.Subscription, error) {
	var (
		idStr, customerStr, planStr              string
		status, frequency                        string
		startStr, periodEndStr, nextDeliveryStr  sql.NullString
		preapprovalID, pauseReason, cancelReason string
		totalPaidCents                           int64
		createdStr, updatedStr                   string
	)
	err := row.Scan(&idStr, &customerStr, &planStr, &status, &frequency,
		&startStr, &periodEndStr, &nextDeliveryStr, &preapprovalID,
		&totalPaidCents, &pauseReason, &cancelReason, &createdStr, &updatedStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, subscription.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid subscription id: %w", err)
	}
	customerID, err := uuid.Parse(customerStr)
	if err != nil {
		return nil, fmt.Errorf("invalid customer id: %w", err)
	}
	planID, err := uuid.Parse(planStr)
	if err != nil {
		return nil, fmt.Errorf("invalid plan id: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, updatedStr)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}

	startDate, err := parseNullableTime(startStr)
	if err != nil {
		return nil, err
	}
	periodEnd, err := parseNullableTime(periodEndStr)
	if err != nil {
		return nil, err
	}
	nextDelivery, err := parseNullableTime(nextDeliveryStr)
	if err != nil {
		return nil, err
	}

	entity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return subscription.Rehydrate(entity, customerID, planID,
		subscription.Status(status), subscription.Frequency(frequency),
		startDate, periodEnd, nextDelivery,
		preapprovalID, totalPaidCents, pauseReason, cancelReason), nil
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", s.String, err)
	}
	t = t.UTC()
	return &t, nil
}
