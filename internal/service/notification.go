package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cabbooking/internal/domain"
)

// EventPublisher delivers ride events to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.RideEvent) error
}

// NotificationService announces lifecycle changes. Delivery failures are
// logged and never fail the operation that triggered them.
type NotificationService struct {
	publisher EventPublisher
	logger    *zap.Logger
}

// NewNotificationService creates a new NotificationService. publisher may be nil.
func NewNotificationService(publisher EventPublisher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{publisher: publisher, logger: logger}
}

// RideBooked tells drivers a new ride is open.
func (s *NotificationService) RideBooked(ctx context.Context, ride *domain.Ride) {
	s.send(ctx, rideEvent(domain.EventRideBooked, ride, ride.RiderUsername))
}

// RideAccepted tells the rider a driver is on the way.
func (s *NotificationService) RideAccepted(ctx context.Context, ride *domain.Ride) {
	s.send(ctx, rideEvent(domain.EventRideAccepted, ride, ride.DriverUsername))
}

// RideCompleted tells the rider the final fare.
func (s *NotificationService) RideCompleted(ctx context.Context, ride *domain.Ride) {
	s.send(ctx, rideEvent(domain.EventRideCompleted, ride, ride.DriverUsername))
}

// PaymentCompleted confirms settlement to rider and driver.
func (s *NotificationService) PaymentCompleted(ctx context.Context, ride *domain.Ride, payment *domain.Payment) {
	event := rideEvent(domain.EventPaymentCompleted, ride, ride.RiderUsername)
	event.PaymentID = payment.ID
	s.send(ctx, event)
}

// PaymentFailed tells the rider the gateway declined the charge.
func (s *NotificationService) PaymentFailed(ctx context.Context, ride *domain.Ride, payment *domain.Payment) {
	event := rideEvent(domain.EventPaymentFailed, ride, ride.RiderUsername)
	event.PaymentID = payment.ID
	s.send(ctx, event)
}

func rideEvent(eventType domain.EventType, ride *domain.Ride, actor string) domain.RideEvent {
	return domain.RideEvent{
		Type:       eventType,
		RideID:     ride.ID,
		Actor:      actor,
		Rider:      ride.RiderUsername,
		Driver:     ride.DriverUsername,
		Status:     ride.Status,
		Fare:       ride.Fare,
		OccurredAt: time.Now().UTC(),
	}
}

func (s *NotificationService) send(ctx context.Context, event domain.RideEvent) {
	if s == nil {
		return
	}

	s.logger.Info("ride event",
		zap.String("type", string(event.Type)),
		zap.String("ride_id", event.RideID),
		zap.String("actor", event.Actor),
	)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish ride event failed",
			zap.String("type", string(event.Type)),
			zap.String("ride_id", event.RideID),
			zap.Error(err),
		)
	}
}
