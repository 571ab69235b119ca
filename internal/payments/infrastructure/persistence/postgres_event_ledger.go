package persistence

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/martinvega/vinoteca/internal/payments/domain"
	sharedPersistence "github.com/martinvega/vinoteca/internal/shared/infrastructure/persistence"
)

// PostgresEventLedger implements the payment event ledger with PostgreSQL.
// Insert-once on the (payment id, status) primary key makes duplicate webhook
// deliveries observable regardless of ordering, while still letting a later
// status for the same payment id through. Record joins an ambient transaction
// when one is present in the context, so the ledger row commits or rolls back
// together with the transition it gates.
type PostgresEventLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresEventLedger creates a new ledger.
func NewPostgresEventLedger(pool *pgxpool.Pool) *PostgresEventLedger {
	return &PostgresEventLedger{pool: pool}
}

// Record stores the event unless the same payment id and status were already recorded.
func (l *PostgresEventLedger) Record(ctx context.Context, event domain.PaymentEvent) (bool, error) {
	query := `
		INSERT INTO payment_events (payment_id, order_id, subscription_id, payment_status, received_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (payment_id, payment_status) DO NOTHING
	`

	execer := sharedPersistence.Executor(ctx, l.pool)
	tag, err := execer.Exec(ctx, query,
		event.PaymentID,
		event.OrderID,
		event.SubscriptionID,
		string(event.Status),
		event.ReceivedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
