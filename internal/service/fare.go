package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"cabbooking/internal/domain"
	"cabbooking/internal/observability"
)

// Fare constants. The booking quote, the completion fare and the external
// quote use separate formulas.
const (
	FlatFare = 150.0

	DistanceBaseFare = 50.0
	DistancePerKm    = 20.0

	ExternalBaseFare = 50.0
	ExternalPerKm    = 15.0
	ExternalMinFare  = 80.0

	fareErrorPrefix = "failed to calculate fare: "
)

// RoutingProvider resolves addresses and driving routes.
type RoutingProvider interface {
	Geocode(ctx context.Context, address string) ([]domain.Coordinate, error)
	Routes(ctx context.Context, origin, destination domain.Coordinate) ([]domain.Route, error)
}

// QuoteCache stores successful external quotes.
type QuoteCache interface {
	Get(ctx context.Context, pickup, drop string) (*domain.FareQuote, error)
	Set(ctx context.Context, pickup, drop string, quote *domain.FareQuote) error
}

// FlatEstimate returns the quote issued at booking time, before any route is known.
func FlatEstimate(pickup, drop string) float64 {
	return FlatFare
}

// DistanceEstimate returns the fare for a completed ride of distanceKm.
func DistanceEstimate(distanceKm float64) float64 {
	return DistanceBaseFare + DistancePerKm*distanceKm
}

// FareService computes external fare quotes.
type FareService struct {
	routing RoutingProvider
	cache   QuoteCache
	timeout time.Duration
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewFareService creates a new FareService. routing and cache may be nil.
func NewFareService(routing RoutingProvider, cache QuoteCache, timeout time.Duration, logger *zap.Logger) *FareService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FareService{
		routing: routing,
		cache:   cache,
		timeout: timeout,
		logger:  logger,
		tracer:  otel.Tracer("cabbooking.fare"),
	}
}

// ExternalEstimate quotes a ride between two free-text addresses using the
// routing provider. It never returns an error: failures are reported in the
// quote's Error field, with the cause kept in Err.
func (s *FareService) ExternalEstimate(ctx context.Context, pickup, drop string) *domain.FareQuote {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "fare.external_estimate", trace.WithAttributes(
		attribute.String("fare.pickup", pickup),
		attribute.String("fare.drop", drop),
	))
	defer span.End()
	defer func() { observability.FareQuoteDuration.Observe(time.Since(start).Seconds()) }()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, pickup, drop)
		if err != nil {
			s.logger.Warn("quote cache read failed", zap.Error(err))
		}
		if cached != nil {
			span.SetAttributes(attribute.Bool("fare.cached", true))
			observability.FareQuotes.WithLabelValues("cache_hit").Inc()
			return cached
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	quote, err := s.quote(ctx, pickup, drop)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.FareQuotes.WithLabelValues(failureLabel(err)).Inc()
		s.logger.Info("external fare estimate failed",
			zap.String("pickup", pickup),
			zap.String("drop", drop),
			zap.Error(err),
		)
		return &domain.FareQuote{Error: fareErrorPrefix + err.Error(), Err: err}
	}

	observability.FareQuotes.WithLabelValues("ok").Inc()
	if s.cache != nil {
		if err := s.cache.Set(ctx, pickup, drop, quote); err != nil {
			s.logger.Warn("quote cache write failed", zap.Error(err))
		}
	}
	return quote
}

func (s *FareService) quote(ctx context.Context, pickup, drop string) (*domain.FareQuote, error) {
	if s.routing == nil {
		return nil, fmt.Errorf("%w: routing provider not configured", ErrRouting)
	}

	origin, err := s.geocode(ctx, pickup)
	if err != nil {
		return nil, err
	}
	destination, err := s.geocode(ctx, drop)
	if err != nil {
		return nil, err
	}

	routes, err := s.routing.Routes(ctx, origin, destination)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRouting, err)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("%w: no route found", ErrRouting)
	}

	return QuoteForRoute(routes[0]), nil
}

func (s *FareService) geocode(ctx context.Context, address string) (domain.Coordinate, error) {
	coords, err := s.routing.Geocode(ctx, address)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: %q: %w", ErrGeocode, address, err)
	}
	if len(coords) == 0 {
		return domain.Coordinate{}, fmt.Errorf("%w: no location found for %q", ErrGeocode, address)
	}
	return coords[0], nil
}

// QuoteForRoute prices a route with the external formula.
func QuoteForRoute(route domain.Route) *domain.FareQuote {
	distanceKm := route.DistanceMeters / 1000
	durationMin := route.DurationSeconds / 60
	fare := math.Max(ExternalBaseFare+ExternalPerKm*distanceKm, ExternalMinFare)

	return &domain.FareQuote{
		DistanceKm:  fmt.Sprintf("%.2f", distanceKm),
		DurationMin: int64(math.Round(durationMin)),
		Fare:        int64(math.Round(fare)),
	}
}

func failureLabel(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrGeocode):
		return "geocode_error"
	case errors.Is(err, ErrRouting):
		return "routing_error"
	default:
		return "error"
	}
}
