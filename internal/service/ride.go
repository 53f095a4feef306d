package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cabbooking/internal/domain"
	"cabbooking/internal/observability"
	"cabbooking/internal/repository"
)

// IdentityResolver resolves usernames to identities.
type IdentityResolver interface {
	Resolve(ctx context.Context, username string) (*Identity, error)
}

// RideService runs the ride state machine: REQUESTED -> ACCEPTED -> COMPLETED.
type RideService struct {
	rideRepo            repository.RideRepository
	identities          IdentityResolver
	distance            DistanceProvider
	notificationService *NotificationService
	logger              *zap.Logger
}

// NewRideService creates a new RideService.
func NewRideService(
	rideRepo repository.RideRepository,
	identities IdentityResolver,
	distance DistanceProvider,
	notificationService *NotificationService,
	logger *zap.Logger,
) *RideService {
	if distance == nil {
		distance = NewRandomDistanceProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RideService{
		rideRepo:            rideRepo,
		identities:          identities,
		distance:            distance,
		notificationService: notificationService,
		logger:              logger,
	}
}

// BookRequest contains the parameters for booking a ride.
type BookRequest struct {
	Rider          string
	PickupLocation string
	DropLocation   string
}

// Book creates a REQUESTED ride priced with the flat booking quote.
func (s *RideService) Book(ctx context.Context, req BookRequest) (*domain.Ride, error) {
	pickup := strings.TrimSpace(req.PickupLocation)
	drop := strings.TrimSpace(req.DropLocation)
	if pickup == "" || drop == "" {
		return nil, ErrMissingLocation
	}

	rider, err := s.identities.Resolve(ctx, req.Rider)
	if err != nil {
		return nil, err
	}

	ride := &domain.Ride{
		ID:             uuid.New().String(),
		PickupLocation: pickup,
		DropLocation:   drop,
		Status:         domain.RideStatusRequested,
		RiderUsername:  rider.Username,
		Fare:           domain.Float(FlatEstimate(pickup, drop)),
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	observability.RideTransitions.WithLabelValues("book", "ok").Inc()
	s.notificationService.RideBooked(ctx, ride)
	return ride, nil
}

// ListAvailable returns every open ride request.
func (s *RideService) ListAvailable(ctx context.Context) ([]*domain.Ride, error) {
	return s.rideRepo.ListAvailable(ctx)
}

// Accept assigns driver to an open ride. Exactly one of several concurrent
// callers wins; the others get ErrRideAlreadyAssigned.
func (s *RideService) Accept(ctx context.Context, driver, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}

	identity, err := s.identities.Resolve(ctx, driver)
	if err != nil {
		return nil, err
	}
	if identity.Role != domain.RoleDriver {
		return nil, ErrNotADriver
	}
	if !identity.Approved {
		return nil, ErrDriverNotApproved
	}

	if !ride.IsOpen() {
		observability.RideTransitions.WithLabelValues("accept", "rejected").Inc()
		return nil, ErrRideAlreadyAssigned
	}

	accepted, err := s.rideRepo.Assign(ctx, rideID, identity.Username)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			observability.RideTransitions.WithLabelValues("accept", "conflict").Inc()
			return nil, ErrRideAlreadyAssigned
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrRideNotFound
		}
		return nil, err
	}

	observability.RideTransitions.WithLabelValues("accept", "ok").Inc()
	s.logger.Info("ride accepted", zap.String("ride_id", rideID), zap.String("driver", identity.Username))
	s.notificationService.RideAccepted(ctx, accepted)
	return accepted, nil
}

// Complete finishes an accepted ride and prices it by distance travelled.
// State is checked before ownership, so a ride that is not ACCEPTED yields
// ErrRideNotAccepted whoever the caller is.
func (s *RideService) Complete(ctx context.Context, driver, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if ride.Status != domain.RideStatusAccepted {
		observability.RideTransitions.WithLabelValues("complete", "rejected").Inc()
		return nil, ErrRideNotAccepted
	}
	if ride.DriverUsername != driver {
		observability.RideTransitions.WithLabelValues("complete", "unauthorized").Inc()
		return nil, ErrNotRideDriver
	}

	distanceKm, err := s.distance.Distance(ctx, ride)
	if err != nil {
		return nil, err
	}

	completed, err := s.rideRepo.Complete(ctx, rideID, driver, distanceKm, DistanceEstimate(distanceKm))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			observability.RideTransitions.WithLabelValues("complete", "conflict").Inc()
			return nil, ErrRideNotAccepted
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrRideNotFound
		}
		return nil, err
	}

	observability.RideTransitions.WithLabelValues("complete", "ok").Inc()
	s.logger.Info("ride completed",
		zap.String("ride_id", rideID),
		zap.String("driver", driver),
		zap.Float64("distance_km", distanceKm),
		zap.Float64("fare", *completed.Fare),
	)
	s.notificationService.RideCompleted(ctx, completed)
	return completed, nil
}

// RidesForRider returns the rides booked by rider, newest first.
func (s *RideService) RidesForRider(ctx context.Context, rider string) ([]*domain.Ride, error) {
	return s.rideRepo.ListByRider(ctx, rider)
}

// RidesForDriver returns the rides accepted by driver, newest first.
func (s *RideService) RidesForDriver(ctx context.Context, driver string) ([]*domain.Ride, error) {
	return s.rideRepo.ListByDriver(ctx, driver)
}

// UnpaidRides returns the completed rides of rider that still await payment.
func (s *RideService) UnpaidRides(ctx context.Context, rider string) ([]*domain.Ride, error) {
	rides, err := s.rideRepo.ListByRider(ctx, rider)
	if err != nil {
		return nil, err
	}

	unpaid := make([]*domain.Ride, 0, len(rides))
	for _, ride := range rides {
		if ride.Status == domain.RideStatusCompleted && !ride.FarePaid {
			unpaid = append(unpaid, ride)
		}
	}
	return unpaid, nil
}

// GetRide returns a ride visible to its rider, its driver or an administrator.
func (s *RideService) GetRide(ctx context.Context, actor string, role domain.Role, rideID string) (*domain.Ride, error) {
	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	isDriver := ride.HasDriver() && ride.DriverUsername == actor
	if role != domain.RoleAdmin && ride.RiderUsername != actor && !isDriver {
		return nil, ErrNotRideParticipant
	}
	return ride, nil
}

func (s *RideService) getRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}
	return ride, nil
}
