// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"stock_simulator/internal/feature/candles/domain/entity"
	"stock_simulator/internal/feature/candles/usecase"
)

// CandleStore is the persistent candle store being decorated: the read side
// used by the candles usecase and the sink written by the aggregator.
type CandleStore interface {
	usecase.CandleRepository
	usecase.CandleSink
}

// CachingCandleRepository decorates a CandleStore with Redis caching.
// Reads are served from Redis when possible; every write invalidates the
// cached pages of the written symbol.
type CachingCandleRepository struct {
	inner     CandleStore
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var (
	_ usecase.CandleRepository = (*CachingCandleRepository)(nil)
	_ usecase.CandleSink       = (*CachingCandleRepository)(nil)
)

// NewCachingCandleRepository decorates a CandleStore with Redis caching.
// If ttl is 0, it defaults to 1 minute (one candle bucket). If namespace is empty, it uses "candles".
func NewCachingCandleRepository(rdb *redis.Client, ttl time.Duration, inner CandleStore, namespace string) *CachingCandleRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if namespace == "" {
		namespace = "candles"
	}
	return &CachingCandleRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Write persists a completed candle and invalidates cached pages of its symbol.
func (c *CachingCandleRepository) Write(ctx context.Context, candle entity.Candle) error {
	if err := c.inner.Write(ctx, candle); err != nil {
		return err
	}
	if c.rdb == nil {
		return nil
	}
	// Best effort: a stale page expires with its TTL anyway
	if err := c.deleteByPattern(ctx, c.cacheKeyPrefix(candle.Symbol)+"*"); err != nil {
		slog.Warn("failed to invalidate candle cache", "symbol", candle.Symbol, "error", err)
	}
	return nil
}

// Find retrieves candles, checking cache first then falling back to the database.
func (c *CachingCandleRepository) Find(ctx context.Context, symbol string, limit int) ([]entity.Candle, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.Find(ctx, symbol, limit)
	}

	key := c.cacheKey(symbol, limit)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.Candle
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := c.inner.Find(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

func (c *CachingCandleRepository) cacheKey(symbol string, limit int) string {
	return fmt.Sprintf("%s%d", c.cacheKeyPrefix(symbol), limit)
}

func (c *CachingCandleRepository) cacheKeyPrefix(symbol string) string {
	return fmt.Sprintf("%s:%s:", c.namespace, safe(symbol))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingCandleRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "*", "_")
	return s
}
