package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/martinvega/vinoteca/internal/ordering/domain/order"
	sharedDomain "github.com/martinvega/vinoteca/internal/shared/domain"
	sharedPersistence "github.com/martinvega/vinoteca/internal/shared/infrastructure/persistence"
)

// PostgresOrderRepository persists orders and their line items.
type PostgresOrderRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresOrderRepository(pool *pgxpool.Pool) *PostgresOrderRepository {
	return &PostgresOrderRepository{pool: pool}
}

func (r *PostgresOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)

	var (
		customerID    uuid.UUID
		status        string
		subtotalCents int64
		shippingCents int64
		note          string
		createdAt     time.Time
		updatedAt     time.Time
	)
	err := exec.QueryRow(ctx, `
		SELECT customer_id, status, subtotal_cents, shipping_cents, note, created_at, updated_at
		FROM orders
		WHERE id = $1`, id,
	).Scan(&customerID, &status, &subtotalCents, &shippingCents, &note, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	rows, err := exec.Query(ctx, `
		SELECT id, product_id, name, quantity, unit_price_cents
		FROM order_items
		WHERE order_id = $1
		ORDER BY name`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	var items []order.Item
	for rows.Next() {
		var it order.Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Name, &it.Quantity, &it.UnitPriceCents); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}

	entity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return order.Rehydrate(entity, customerID, order.Status(status), items, subtotalCents, shippingCents, note), nil
}

func (r *PostgresOrderRepository) Save(ctx context.Context, o *order.Order) error {
	exec := sharedPersistence.Executor(ctx, r.pool)

	_, err := exec.Exec(ctx, `
		INSERT INTO orders (id, customer_id, status, subtotal_cents, shipping_cents, total_cents, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			note = EXCLUDED.note,
			updated_at = EXCLUDED.updated_at`,
		o.ID(), o.CustomerID(), string(o.Status()), o.SubtotalCents(), o.ShippingCents(), o.TotalCents(), o.Note(), o.CreatedAt(), o.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}

	// Line items are immutable after creation; the upsert only inserts them
	// the first time the order is saved.
	for _, it := range o.Items() {
		_, err := exec.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, quantity, unit_price_cents)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING`,
			it.ID, o.ID(), it.ProductID, it.Name, it.Quantity, it.UnitPriceCents,
		)
		if err != nil {
			return fmt.Errorf("failed to save order item: %w", err)
		}
	}

	return nil
}
