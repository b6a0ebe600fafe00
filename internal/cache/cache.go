// Package cache wraps Redis as the response cache for computed match
// analyses. Keys are date-grained (teams + sport + match date), so a
// request at any time of day hits the same entry. Sweep-produced entries
// live longer than on-demand ones; entries written under older schemas are
// coerced on read.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
)

// TTL classes
const (
	DefaultLongTTL  = 6 * time.Hour
	DefaultShortTTL = 30 * time.Minute
)

// RedisCache implements contracts.ResponseCache
type RedisCache struct {
	client   *redis.Client
	longTTL  time.Duration
	shortTTL time.Duration
}

// NewRedisCache creates a response cache. Zero TTLs fall back to the
// defaults.
func NewRedisCache(client *redis.Client, longTTL, shortTTL time.Duration) *RedisCache {
	if longTTL <= 0 {
		longTTL = DefaultLongTTL
	}
	if shortTTL <= 0 {
		shortTTL = DefaultShortTTL
	}
	return &RedisCache{client: client, longTTL: longTTL, shortTTL: shortTTL}
}

// Key builds the Redis key for a cache entry. Team names are normalized so
// "Arsenal FC" and "arsenal fc" share an entry.
func Key(k contracts.CacheKey) string {
	return fmt.Sprintf("analysis:%s:%s:%s:%s",
		k.SportKey, normalizeTeam(k.HomeTeam), normalizeTeam(k.AwayTeam), k.MatchDate)
}

func normalizeTeam(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Get reads a cached analysis, coercing legacy-schema entries to the
// current shape. A corrupt entry reads as a miss, never as an error the
// caller has to care about.
func (c *RedisCache) Get(ctx context.Context, key contracts.CacheKey) (*models.MatchAnalysis, bool, error) {
	data, err := c.client.Get(ctx, Key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache: %w", err)
	}

	analysis, err := decodeAnalysis(data)
	if err != nil {
		// Unreadable entry: drop it and treat as a miss
		c.client.Del(ctx, Key(key))
		return nil, false, nil
	}

	return analysis, true, nil
}

// Set writes an analysis under the TTL class it was produced with
func (c *RedisCache) Set(ctx context.Context, key contracts.CacheKey, analysis *models.MatchAnalysis, class models.TTLClass) error {
	analysis.SchemaVersion = models.AnalysisSchemaVersion
	analysis.TTLClass = class

	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	ttl := c.shortTTL
	if class == models.TTLLong {
		ttl = c.longTTL
	}

	if err := c.client.Set(ctx, Key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}
