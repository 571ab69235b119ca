package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/martinvega/vinoteca/internal/payments/domain"
)

// SQLiteEventLedger implements the payment event ledger with SQLite.
type SQLiteEventLedger struct {
	db *sql.DB
}

// NewSQLiteEventLedger creates a new ledger.
func NewSQLiteEventLedger(db *sql.DB) *SQLiteEventLedger {
	return &SQLiteEventLedger{db: db}
}

// Record stores the event unless the same payment id and status were already recorded.
func (l *SQLiteEventLedger) Record(ctx context.Context, event domain.PaymentEvent) (bool, error) {
	query := `
		INSERT INTO payment_events (payment_id, order_id, subscription_id, payment_status, received_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (payment_id, payment_status) DO NOTHING
	`

	var orderID, subscriptionID any
	if event.OrderID != nil {
		orderID = event.OrderID.String()
	}
	if event.SubscriptionID != nil {
		subscriptionID = event.SubscriptionID.String()
	}

	result, err := l.db.ExecContext(ctx, query,
		event.PaymentID,
		orderID,
		subscriptionID,
		string(event.Status),
		event.ReceivedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
