package rediscache

import "context"

// NoopSeenCache lets every delivery through. Used in development when no
// Redis is available; duplicate filtering then rests entirely on the ledger.
type NoopSeenCache struct{}

// NewNoopSeenCache creates a cache that never filters.
func NewNoopSeenCache() *NoopSeenCache { return &NoopSeenCache{} }

func (NoopSeenCache) MarkSeen(context.Context, string) bool { return true }
func (NoopSeenCache) Forget(context.Context, string)        {}
