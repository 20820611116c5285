// Package cache keeps short-lived copies of exchange price tables in Redis so
// concurrent API requests inside one refresh window share a single fetch.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/irfndi/cryptogap-go/internal/exchange"
	"github.com/irfndi/cryptogap-go/internal/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "price_table:"

// PriceCacheEntry is the stored form of one price table.
type PriceCacheEntry struct {
	Exchange string            `json:"exchange"`
	Prices   models.PriceTable `json:"prices"`
	CachedAt time.Time         `json:"cached_at"`
}

// PriceCacheStats tracks cache performance metrics
type PriceCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Errors int64 `json:"errors"`
}

// HitRate is hits over lookups, in percent.
func (s PriceCacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// PriceCache stores price tables in Redis with a fixed TTL.
type PriceCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger

	mu    sync.Mutex
	stats PriceCacheStats
}

// NewPriceCache creates a Redis-backed price table cache.
func NewPriceCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *PriceCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceCache{
		redis:  client,
		ttl:    ttl,
		logger: logger.With("component", "price_cache"),
	}
}

// Key returns the Redis key of one exchange's table for a symbol and market
// universe. Order matters: the same sets in a different order are a
// different key.
func Key(exchangeName string, symbols, markets []string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(symbols, ",")))
	h.Write([]byte{'|'})
	h.Write([]byte(strings.Join(markets, ",")))
	return keyPrefix + exchangeName + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}

// Get returns the cached table, ok == false on a miss or any Redis error.
func (c *PriceCache) Get(ctx context.Context, key string) (models.PriceTable, bool) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.record(func(s *PriceCacheStats) { s.Misses++ })
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Redis error reading price table", "key", key, "error", err)
		c.record(func(s *PriceCacheStats) { s.Misses++; s.Errors++ })
		return nil, false
	}

	var entry PriceCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("Discarding undecodable price table", "key", key, "error", err)
		c.record(func(s *PriceCacheStats) { s.Misses++; s.Errors++ })
		return nil, false
	}

	c.record(func(s *PriceCacheStats) { s.Hits++ })
	return entry.Prices, true
}

// Set stores a table under key for the cache TTL.
func (c *PriceCache) Set(ctx context.Context, key, exchangeName string, prices models.PriceTable) error {
	data, err := json.Marshal(PriceCacheEntry{Exchange: exchangeName, Prices: prices, CachedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode price table: %w", err)
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.record(func(s *PriceCacheStats) { s.Errors++ })
		return fmt.Errorf("failed to cache price table: %w", err)
	}
	c.record(func(s *PriceCacheStats) { s.Sets++ })
	return nil
}

// GetStats returns current cache statistics
func (c *PriceCache) GetStats() PriceCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// LogStats logs current cache performance statistics
func (c *PriceCache) LogStats() {
	stats := c.GetStats()
	c.logger.Info("Price cache stats",
		"hits", stats.Hits,
		"misses", stats.Misses,
		"sets", stats.Sets,
		"errors", stats.Errors,
		"hit_rate", fmt.Sprintf("%.2f%%", stats.HitRate()))
}

func (c *PriceCache) record(update func(*PriceCacheStats)) {
	c.mu.Lock()
	update(&c.stats)
	c.mu.Unlock()
}

// CachedFetcher serves price tables from the cache and falls back to the
// wrapped fetcher. Empty tables are never cached.
type CachedFetcher struct {
	next  exchange.Fetcher
	cache *PriceCache
}

var _ exchange.Fetcher = (*CachedFetcher)(nil)

// NewCachedFetcher decorates next with cache.
func NewCachedFetcher(next exchange.Fetcher, cache *PriceCache) *CachedFetcher {
	return &CachedFetcher{next: next, cache: cache}
}

// Name returns the wrapped exchange's name.
func (f *CachedFetcher) Name() string {
	return f.next.Name()
}

// FetchPrices implements exchange.Fetcher.
func (f *CachedFetcher) FetchPrices(ctx context.Context, symbols, markets []string) (models.PriceTable, error) {
	key := Key(f.next.Name(), symbols, markets)
	if prices, ok := f.cache.Get(ctx, key); ok {
		return prices, nil
	}

	prices, err := f.next.FetchPrices(ctx, symbols, markets)
	if err != nil {
		return nil, err
	}
	if len(prices) > 0 {
		if err := f.cache.Set(ctx, key, f.next.Name(), prices); err != nil {
			f.cache.logger.Warn("Failed to cache price table", "exchange", f.next.Name(), "error", err)
		}
	}
	return prices, nil
}
