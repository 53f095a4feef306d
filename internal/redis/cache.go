package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"cabbooking/internal/domain"
)

// QuoteCacheTTL bounds how long a routed quote is reused.
const QuoteCacheTTL = 10 * time.Minute

const quoteCachePrefix = "fare:quote:"

// CachedQuote represents a cached fare quote.
type CachedQuote struct {
	DistanceKm  string `json:"distance_km"`
	DurationMin int64  `json:"duration_min"`
	Fare        int64  `json:"fare"`
}

// QuoteCache stores successful external fare quotes in Redis.
// A nil client disables the cache.
type QuoteCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQuoteCache creates a new QuoteCache.
func NewQuoteCache(client *redis.Client) *QuoteCache {
	return &QuoteCache{client: client, ttl: QuoteCacheTTL}
}

// Get returns the cached quote for a pickup/drop pair, or nil on a miss.
func (c *QuoteCache) Get(ctx context.Context, pickup, drop string) (*domain.FareQuote, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, quoteKey(pickup, drop)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var cached CachedQuote
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &domain.FareQuote{
		DistanceKm:  cached.DistanceKm,
		DurationMin: cached.DurationMin,
		Fare:        cached.Fare,
	}, nil
}

// Set stores a successful quote. Failed quotes are ignored.
func (c *QuoteCache) Set(ctx context.Context, pickup, drop string, quote *domain.FareQuote) error {
	if c == nil || c.client == nil || quote == nil || !quote.OK() {
		return nil
	}

	data, err := json.Marshal(CachedQuote{
		DistanceKm:  quote.DistanceKm,
		DurationMin: quote.DurationMin,
		Fare:        quote.Fare,
	})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, quoteKey(pickup, drop), data, c.ttl).Err()
}

// Invalidate drops the cached quote for a pickup/drop pair.
func (c *QuoteCache) Invalidate(ctx context.Context, pickup, drop string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, quoteKey(pickup, drop)).Err()
}

func quoteKey(pickup, drop string) string {
	return quoteCachePrefix + normalizeAddress(pickup) + "|" + normalizeAddress(drop)
}

// normalizeAddress lowercases an address and collapses whitespace.
func normalizeAddress(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}
