// Package maps resolves addresses and driving routes with the Google Maps APIs.
package maps

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"googlemaps.github.io/maps"

	"cabbooking/internal/domain"
)

// Config configures the routing client.
type Config struct {
	APIKey  string
	BaseURL string // Overrides the Google endpoint, for tests
	Timeout time.Duration
}

// RoutingProvider implements geocoding and routing on top of the Maps client.
type RoutingProvider struct {
	client *maps.Client
}

// NewRoutingProvider creates a new RoutingProvider. An API key is required.
func NewRoutingProvider(cfg Config) (*RoutingProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("maps api key is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	opts := []maps.ClientOption{
		maps.WithAPIKey(cfg.APIKey),
		maps.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &RoutingProvider{client: client}, nil
}

// Geocode returns candidate coordinates for an address, best match first.
func (p *RoutingProvider) Geocode(ctx context.Context, address string) ([]domain.Coordinate, error) {
	results, err := p.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, err
	}

	coords := make([]domain.Coordinate, 0, len(results))
	for _, r := range results {
		coords = append(coords, domain.Coordinate{
			Lon: r.Geometry.Location.Lng,
			Lat: r.Geometry.Location.Lat,
		})
	}
	return coords, nil
}

// Routes returns driving routes between two coordinates, preferred route first.
// Distance and duration are summed over the legs of each route.
func (p *RoutingProvider) Routes(ctx context.Context, origin, destination domain.Coordinate) ([]domain.Route, error) {
	routes, _, err := p.client.Directions(ctx, &maps.DirectionsRequest{
		Origin:      latLng(origin),
		Destination: latLng(destination),
		Mode:        maps.TravelModeDriving,
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Route, 0, len(routes))
	for _, r := range routes {
		var route domain.Route
		for _, leg := range r.Legs {
			route.DistanceMeters += float64(leg.Distance.Meters)
			route.DurationSeconds += leg.Duration.Seconds()
		}
		out = append(out, route)
	}
	return out, nil
}

func latLng(c domain.Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}
