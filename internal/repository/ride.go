package repository

import (
	"context"

	"cabbooking/internal/domain"
)

// RideRepository defines the persistence operations for rides.
//
// Assign, Complete and MarkPaid are conditional: they apply only while the
// ride is still in the expected state and return ErrConflict otherwise.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetByIDForUpdate retrieves a ride by ID and locks it until the
	// surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Ride, error)

	// ListByRider retrieves the rides booked by a rider, newest first.
	ListByRider(ctx context.Context, rider string) ([]*domain.Ride, error)

	// ListByDriver retrieves the rides accepted by a driver, newest first.
	ListByDriver(ctx context.Context, driver string) ([]*domain.Ride, error)

	// ListAvailable retrieves requested rides without a driver, oldest first.
	ListAvailable(ctx context.Context) ([]*domain.Ride, error)

	// Assign sets the driver of a REQUESTED ride that has none.
	Assign(ctx context.Context, id, driver string) (*domain.Ride, error)

	// Complete moves an ACCEPTED ride owned by driver to COMPLETED.
	Complete(ctx context.Context, id, driver string, distanceKm, fare float64) (*domain.Ride, error)

	// MarkPaid flags an unpaid COMPLETED ride of rider as paid.
	MarkPaid(ctx context.Context, id, rider string) error
}
