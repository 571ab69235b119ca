package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/martinvega/vinoteca/internal/billing/domain/plan"
)

// SQLitePlanRepository is the embedded-store variant of the plan repository.
type SQLitePlanRepository struct {
	db *sql.DB
}

func NewSQLitePlanRepository(db *sql.DB) *SQLitePlanRepository {
	return &SQLitePlanRepository{db: db}
}

func (r *SQLitePlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, club, name, price_weekly_cents, price_biweekly_cents,
			price_monthly_cents, price_quarterly_cents, wines_per_delivery, is_active, is_visible
		FROM subscription_plans WHERE id = ?`, id.String())
	return scanSQLitePlan(row)
}

func (r *SQLitePlanRepository) ListVisible(ctx context.Context) ([]*plan.Plan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, club, name, price_weekly_cents, price_biweekly_cents,
			price_monthly_cents, price_quarterly_cents, wines_per_delivery, is_active, is_visible
		FROM subscription_plans
		WHERE is_active = 1 AND is_visible = 1
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*plan.Plan
	for rows.Next() {
		p, err := scanSQLitePlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *SQLitePlanRepository) Save(ctx context.Context, p *plan.Plan) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscription_plans (id, club, name, price_weekly_cents, price_biweekly_cents,
			price_monthly_cents, price_quarterly_cents, wines_per_delivery, is_active, is_visible)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			club = excluded.club,
			name = excluded.name,
			price_weekly_cents = excluded.price_weekly_cents,
			price_biweekly_cents = excluded.price_biweekly_cents,
			price_monthly_cents = excluded.price_monthly_cents,
			price_quarterly_cents = excluded.price_quarterly_cents,
			wines_per_delivery = excluded.wines_per_delivery,
			is_active = excluded.is_active,
			is_visible = excluded.is_visible`,
		p.ID.String(), p.Club, p.Name, p.PriceWeeklyCents, p.PriceBiweeklyCents,
		p.PriceMonthlyCents, p.PriceQuarterlyCents, p.WinesPerDelivery, p.IsActive, p.IsVisible,
	)
	if err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

func scanSQLitePlan(row rowScanner) (*plan.Plan, error) {
	var (
		idStr               string
		p                   plan.Plan
		isActive, isVisible int
	)
	err := row.Scan(&idStr, &p.Club, &p.Name, &p.PriceWeeklyCents, &p.PriceBiweeklyCents,
		&p.PriceMonthlyCents, &p.PriceQuarterlyCents, &p.WinesPerDelivery, &isActive, &isVisible)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, plan.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid plan id: %w", err)
	}
	p.ID = id
	p.IsActive = isActive != 0
	p.IsVisible = isVisible != 0
	return &p, nil
}
