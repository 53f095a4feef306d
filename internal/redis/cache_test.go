package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cabbooking/internal/domain"
)

func newTestCache(t *testing.T) (*QuoteCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewQuoteCache(client), mr
}

func TestQuoteCache_RoundTrip(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	miss, err := cache.Get(ctx, "A", "B")
	require.NoError(t, err)
	assert.Nil(t, miss)

	quote := &domain.FareQuote{DistanceKm: "5.00", DurationMin: 10, Fare: 125}
	require.NoError(t, cache.Set(ctx, "A", "B", quote))

	got, err := cache.Get(ctx, "  a ", "b")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *quote, *got)

	assert.True(t, mr.Exists("fare:quote:a|b"))
	assert.Equal(t, QuoteCacheTTL, mr.TTL("fare:quote:a|b"))

	mr.FastForward(QuoteCacheTTL + time.Second)
	expired, err := cache.Get(ctx, "A", "B")
	require.NoError(t, err)
	assert.Nil(t, expired)
}

func TestQuoteCache_SkipsFailedQuotes(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "A", "B", &domain.FareQuote{Error: "failed to calculate fare: boom"}))
	assert.Empty(t, mr.Keys())
}

func TestQuoteCache_Invalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "A", "B", &domain.FareQuote{DistanceKm: "1.00", DurationMin: 2, Fare: 80}))
	require.NoError(t, cache.Invalidate(ctx, "A", "B"))

	got, err := cache.Get(ctx, "A", "B")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestQuoteCache_NilClientDisablesCache(t *testing.T) {
	cache := NewQuoteCache(nil)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "A", "B", &domain.FareQuote{Fare: 80}))
	got, err := cache.Get(ctx, "A", "B")
	require.NoError(t, err)
	assert.Nil(t, got)
}
