package service

import (
	"context"
	"math/rand"

	"cabbooking/internal/domain"
)

// DistanceProvider reports the distance travelled on a ride.
type DistanceProvider interface {
	Distance(ctx context.Context, ride *domain.Ride) (float64, error)
}

// RandomDistanceProvider stands in for trip telemetry and reports a
// uniformly random distance in [1, 10) km.
type RandomDistanceProvider struct{}

// NewRandomDistanceProvider creates a new RandomDistanceProvider.
func NewRandomDistanceProvider() *RandomDistanceProvider {
	return &RandomDistanceProvider{}
}

// Distance returns a random distance in [1, 10) km.
func (p *RandomDistanceProvider) Distance(ctx context.Context, ride *domain.Ride) (float64, error) {
	return 1 + rand.Float64()*9, nil
}

// FixedDistanceProvider always reports the same distance.
type FixedDistanceProvider float64

// Distance returns the fixed distance.
func (p FixedDistanceProvider) Distance(ctx context.Context, ride *domain.Ride) (float64, error) {
	return float64(p), nil
}
