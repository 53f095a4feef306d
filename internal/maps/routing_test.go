package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cabbooking/internal/domain"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *RoutingProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewRoutingProvider(Config{APIKey: "test-key", BaseURL: srv.URL, Timeout: time.Second})
	require.NoError(t, err)
	return p
}

func TestNewRoutingProvider_RequiresKey(t *testing.T) {
	_, err := NewRoutingProvider(Config{})
	assert.Error(t, err)
}

func TestRoutingProvider_Geocode(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/geocode/json", r.URL.Path)
		assert.Equal(t, "A", r.URL.Query().Get("address"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [
				{"geometry": {"location": {"lat": 2.0, "lng": 1.0}}},
				{"geometry": {"location": {"lat": 9.0, "lng": 9.0}}}
			]
		}`))
	})

	coords, err := p.Geocode(context.Background(), "A")
	require.NoError(t, err)
	require.Len(t, coords, 2)
	assert.Equal(t, domain.Coordinate{Lon: 1.0, Lat: 2.0}, coords[0])
}

func TestRoutingProvider_Routes(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/directions/json", r.URL.Path)
		assert.Equal(t, "2,1", r.URL.Query().Get("origin"))
		assert.Equal(t, "2.1,1.1", r.URL.Query().Get("destination"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"routes": [{
				"legs": [
					{"distance": {"value": 3000, "text": "3 km"}, "duration": {"value": 360, "text": "6 mins"}},
					{"distance": {"value": 2000, "text": "2 km"}, "duration": {"value": 240, "text": "4 mins"}}
				]
			}]
		}`))
	})

	routes, err := p.Routes(context.Background(),
		domain.Coordinate{Lon: 1.0, Lat: 2.0},
		domain.Coordinate{Lon: 1.1, Lat: 2.1},
	)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, 5000.0, routes[0].DistanceMeters)
	assert.Equal(t, 600.0, routes[0].DurationSeconds)
}

func TestRoutingProvider_ProviderError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "bad key"}`))
	})

	_, err := p.Geocode(context.Background(), "A")
	assert.Error(t, err)
}
