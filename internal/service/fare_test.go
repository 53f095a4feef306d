package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cabbooking/internal/domain"
)

type fakeRouting struct {
	coords     map[string][]domain.Coordinate
	routes     []domain.Route
	geocodeErr error
	routeErr   error
	delay      time.Duration

	mu    sync.Mutex
	calls int
}

func (f *fakeRouting) Geocode(ctx context.Context, address string) ([]domain.Coordinate, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.geocodeErr != nil {
		return nil, f.geocodeErr
	}
	return f.coords[address], nil
}

func (f *fakeRouting) Routes(ctx context.Context, origin, destination domain.Coordinate) ([]domain.Route, error) {
	if f.routeErr != nil {
		return nil, f.routeErr
	}
	return f.routes, nil
}

type mapCache struct {
	mu     sync.Mutex
	quotes map[string]*domain.FareQuote
}

func (c *mapCache) Get(ctx context.Context, pickup, drop string) (*domain.FareQuote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quotes[pickup+"|"+drop], nil
}

func (c *mapCache) Set(ctx context.Context, pickup, drop string, quote *domain.FareQuote) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.quotes == nil {
		c.quotes = make(map[string]*domain.FareQuote)
	}
	c.quotes[pickup+"|"+drop] = quote
	return nil
}

func abRouting() *fakeRouting {
	return &fakeRouting{
		coords: map[string][]domain.Coordinate{
			"A": {{Lon: 1.0, Lat: 2.0}},
			"B": {{Lon: 1.1, Lat: 2.1}},
		},
		routes: []domain.Route{{DistanceMeters: 5000, DurationSeconds: 600}},
	}
}

func TestFlatEstimate(t *testing.T) {
	assert.Equal(t, 150.0, FlatEstimate("X", "Y"))
	assert.Equal(t, 150.0, FlatEstimate("", "anywhere"))
}

func TestDistanceEstimate(t *testing.T) {
	assert.Equal(t, 50.0, DistanceEstimate(0))
	assert.Equal(t, 70.0, DistanceEstimate(1))
	assert.Equal(t, 250.0, DistanceEstimate(10))

	prev := DistanceEstimate(0)
	for d := 0.25; d <= 50; d += 0.25 {
		cur := DistanceEstimate(d)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestQuoteForRoute(t *testing.T) {
	tests := []struct {
		name  string
		route domain.Route
		want  domain.FareQuote
	}{
		{"five km", domain.Route{DistanceMeters: 5000, DurationSeconds: 600}, domain.FareQuote{DistanceKm: "5.00", DurationMin: 10, Fare: 125}},
		{"minimum fare", domain.Route{DistanceMeters: 1000, DurationSeconds: 90}, domain.FareQuote{DistanceKm: "1.00", DurationMin: 2, Fare: 80}},
		{"rounding", domain.Route{DistanceMeters: 12340, DurationSeconds: 1529}, domain.FareQuote{DistanceKm: "12.34", DurationMin: 25, Fare: 235}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, *QuoteForRoute(tt.route))
		})
	}
}

func TestFareService_ExternalEstimate(t *testing.T) {
	svc := NewFareService(abRouting(), nil, time.Second, nil)

	quote := svc.ExternalEstimate(context.Background(), "A", "B")
	require.True(t, quote.OK(), quote.Error)
	assert.Equal(t, "5.00", quote.DistanceKm)
	assert.Equal(t, int64(10), quote.DurationMin)
	assert.Equal(t, int64(125), quote.Fare)
}

func TestFareService_ExternalEstimateFailuresAreReported(t *testing.T) {
	tests := []struct {
		name    string
		routing *fakeRouting
		pickup  string
		want    error
	}{
		{"unknown pickup", abRouting(), "nowhere", ErrGeocode},
		{"geocode error", &fakeRouting{geocodeErr: errors.New("quota exceeded")}, "A", ErrGeocode},
		{"no route", &fakeRouting{coords: abRouting().coords}, "A", ErrRouting},
		{"route error", &fakeRouting{coords: abRouting().coords, routeErr: errors.New("ZERO_RESULTS")}, "A", ErrRouting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFareService(tt.routing, nil, time.Second, nil)
			quote := svc.ExternalEstimate(context.Background(), tt.pickup, "B")
			assert.False(t, quote.OK())
			assert.ErrorIs(t, quote.Err, tt.want)
			assert.Contains(t, quote.Error, "failed to calculate fare: ")
			assert.Zero(t, quote.Fare)
		})
	}
}

func TestFareService_ExternalEstimateWithoutProvider(t *testing.T) {
	svc := NewFareService(nil, nil, time.Second, nil)
	quote := svc.ExternalEstimate(context.Background(), "A", "B")
	assert.ErrorIs(t, quote.Err, ErrRouting)
}

func TestFareService_ExternalEstimateTimesOut(t *testing.T) {
	routing := abRouting()
	routing.delay = time.Second
	svc := NewFareService(routing, nil, 20*time.Millisecond, nil)

	start := time.Now()
	quote := svc.ExternalEstimate(context.Background(), "A", "B")
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.ErrorIs(t, quote.Err, context.DeadlineExceeded)
	assert.NotEmpty(t, quote.Error)
}

func TestFareService_CachesSuccessfulQuotes(t *testing.T) {
	routing := abRouting()
	cache := &mapCache{}
	svc := NewFareService(routing, cache, time.Second, nil)

	first := svc.ExternalEstimate(context.Background(), "A", "B")
	require.True(t, first.OK())
	second := svc.ExternalEstimate(context.Background(), "A", "B")
	assert.Equal(t, first.Fare, second.Fare)
	assert.Equal(t, 2, routing.calls)

	failed := svc.ExternalEstimate(context.Background(), "A", "nowhere")
	assert.False(t, failed.OK())
	assert.Nil(t, cache.quotes["A|nowhere"])
}
