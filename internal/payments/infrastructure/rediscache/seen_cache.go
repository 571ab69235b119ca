// Package rediscache provides a Redis fast path in front of the payment
// event ledger.
package rediscache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "vinoteca:payment-event:"

// SeenCache remembers recently processed payment ids so duplicate webhook
// deliveries can short-circuit before touching the database. It is advisory
// only: a cache miss or a Redis outage falls through to the durable ledger.
type SeenCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewSeenCache creates a cache with the given retention.
func NewSeenCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *SeenCache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SeenCache{client: client, ttl: ttl, logger: logger}
}

// MarkSeen records a payment id. Returns true when the id was not seen before.
func (c *SeenCache) MarkSeen(ctx context.Context, paymentID string) bool {
	ok, err := c.client.SetNX(ctx, keyPrefix+paymentID, 1, c.ttl).Result()
	if err != nil {
		c.logger.Warn("payment event cache unavailable", "error", err)
		return true
	}
	return ok
}

// Forget removes a payment id, letting a later delivery be processed again.
// Used when processing fails after the id was marked.
func (c *SeenCache) Forget(ctx context.Context, paymentID string) {
	if err := c.client.Del(ctx, keyPrefix+paymentID).Err(); err != nil {
		c.logger.Warn("failed to evict payment event marker", "payment_id", paymentID, "error", err)
	}
}
