package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/martinvega/vinoteca/internal/billing/domain/plan"
	sharedPersistence "github.com/martinvega/vinoteca/internal/shared/infrastructure/persistence"
)

const planColumns = `id, club, name, price_weekly_cents, price_biweekly_cents,
	price_monthly_cents, price_quarterly_cents, wines_per_delivery, is_active, is_visible`

// PostgresPlanRepository persists club plan reference data.
type PostgresPlanRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPlanRepository(pool *pgxpool.Pool) *PostgresPlanRepository {
	return &PostgresPlanRepository{pool: pool}
}

func (r *PostgresPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+planColumns+` FROM subscription_plans WHERE id = $1`, id)
	return scanPlan(row)
}

func (r *PostgresPlanRepository) ListVisible(ctx context.Context) ([]*plan.Plan, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)
	rows, err := exec.Query(ctx, `
		SELECT `+planColumns+`
		FROM subscription_plans
		WHERE is_active AND is_visible
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*plan.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *PostgresPlanRepository) Save(ctx context.Context, p *plan.Plan) error {
	exec := sharedPersistence.Executor(ctx, r.pool)
	_, err := exec.Exec(ctx, `
		INSERT INTO subscription_plans (id, club, name, price_weekly_cents, price_biweekly_cents,
			price_monthly_cents, price_quarterly_cents, wines_per_delivery, is_active, is_visible)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			club = EXCLUDED.club,
			name = EXCLUDED.name,
			price_weekly_cents = EXCLUDED.price_weekly_cents,
			price_biweekly_cents = EXCLUDED.price_biweekly_cents,
			price_monthly_cents = EXCLUDED.price_monthly_cents,
			price_quarterly_cents = EXCLUDED.price_quarterly_cents,
			wines_per_delivery = EXCLUDED.wines_per_delivery,
			is_active = EXCLUDED.is_active,
			is_visible = EXCLUDED.is_visible`,
		p.ID, p.Club, p.Name, p.PriceWeeklyCents, p.PriceBiweeklyCents,
		p.PriceMonthlyCents, p.PriceQuarterlyCents, p.WinesPerDelivery, p.IsActive, p.IsVisible,
	)
	if err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

func scanPlan(row pgx.Row) (*plan.Plan, error) {
	var p plan.Plan
	err := row.Scan(&p.ID, &p.Club, &p.Name, &p.PriceWeeklyCents, &p.PriceBiweeklyCents,
		&p.PriceMonthlyCents, &p.PriceQuarterlyCents, &p.WinesPerDelivery, &p.IsActive, &p.IsVisible)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, plan.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}
	return &p, nil
}
