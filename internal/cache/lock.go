package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SweepLock is a Redis lease preventing a scheduled sweep and a manually
// triggered one from running the same sport concurrently. The ledger's
// upserts make overlap harmless, but running both burns provider quota for
// nothing.
type SweepLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSweepLock creates a sweep lock with the given lease duration
func NewSweepLock(client *redis.Client, ttl time.Duration) *SweepLock {
	return &SweepLock{client: client, ttl: ttl}
}

// Acquire tries to take the lease for a sport. Returns false when another
// sweep holds it.
func (l *SweepLock) Acquire(ctx context.Context, sportKey, runID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(sportKey), runID, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire sweep lock: %w", err)
	}
	return ok, nil
}

// Release drops the lease if this run still holds it
func (l *SweepLock) Release(ctx context.Context, sportKey, runID string) error {
	// Only delete our own lease; an expired lease may belong to a newer run
	const script = `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		end
		return 0
	`
	return l.client.Eval(ctx, script, []string{l.key(sportKey)}, runID).Err()
}

func (l *SweepLock) key(sportKey string) string {
	return fmt.Sprintf("sweep:lock:%s", sportKey)
}
