package shared

import (
	"context"
	"time"
)

// IdempotencyStore records keys of operations that already ran so a
// retried request or a redelivered event is applied at most once.
// Keys expire after the TTL given when they were marked.
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl. The first caller gets true;
	// later callers get false until the key expires or is forgotten.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	IsProcessed(ctx context.Context, key string) (bool, error)

	// Forget releases a claim so a failed operation can run again
	Forget(ctx context.Context, key string) error

	Close() error
}

// IdempotencyConfig controls deduplication of event handling
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig remembers keys for a day
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{TTL: 24 * time.Hour, Enabled: true}
}
