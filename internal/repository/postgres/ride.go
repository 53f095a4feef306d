package postgres

import (
	"context"
	"database/sql"
	"errors"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository"
)

const rideColumns = `id, pickup_location, drop_location, status, rider_username, driver_username,
	fare, distance_km, fare_paid, created_at, accepted_at, completed_at`

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (id, pickup_location, drop_location, status, rider_username, driver_username, fare, fare_paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.PickupLocation,
		ride.DropLocation,
		ride.Status,
		ride.RiderUsername,
		nullString(ride.DriverUsername),
		ride.Fare,
		ride.FarePaid,
		ride.CreatedAt,
	)

	return mapError(err)
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`
	return scanRide(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a ride by ID holding a row lock.
func (r *RideRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1 FOR UPDATE`
	return scanRide(r.q.QueryRowContext(ctx, query, id))
}

// ListByRider retrieves the rides booked by a rider.
func (r *RideRepository) ListByRider(ctx context.Context, rider string) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE rider_username = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, rider)
}

// ListByDriver retrieves the rides accepted by a driver.
func (r *RideRepository) ListByDriver(ctx context.Context, driver string) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE driver_username = $1 ORDER BY accepted_at DESC`
	return r.list(ctx, query, driver)
}

// ListAvailable retrieves requested rides that have no driver.
func (r *RideRepository) ListAvailable(ctx context.Context) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE status = $1 AND driver_username IS NULL ORDER BY created_at ASC`
	return r.list(ctx, query, domain.RideStatusRequested)
}

// Assign sets the driver of an open ride.
// The WHERE clause makes the transition atomic across concurrent callers.
func (r *RideRepository) Assign(ctx context.Context, id, driver string) (*domain.Ride, error) {
	query := `
		UPDATE rides
		SET driver_username = $1, status = $2, accepted_at = NOW()
		WHERE id = $3 AND status = $4 AND driver_username IS NULL
		RETURNING ` + rideColumns

	ride, err := scanRide(r.q.QueryRowContext(ctx, query,
		driver, domain.RideStatusAccepted, id, domain.RideStatusRequested))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, r.missingOrConflict(ctx, id)
	}
	return ride, err
}

// Complete finishes an accepted ride owned by driver.
func (r *RideRepository) Complete(ctx context.Context, id, driver string, distanceKm, fare float64) (*domain.Ride, error) {
	query := `
		UPDATE rides
		SET status = $1, distance_km = $2, fare = $3, completed_at = NOW()
		WHERE id = $4 AND status = $5 AND driver_username = $6
		RETURNING ` + rideColumns

	ride, err := scanRide(r.q.QueryRowContext(ctx, query,
		domain.RideStatusCompleted, distanceKm, fare, id, domain.RideStatusAccepted, driver))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, r.missingOrConflict(ctx, id)
	}
	return ride, err
}

// MarkPaid flags a completed, unpaid ride of rider as paid.
func (r *RideRepository) MarkPaid(ctx context.Context, id, rider string) error {
	query := `
		UPDATE rides SET fare_paid = TRUE
		WHERE id = $1 AND status = $2 AND rider_username = $3 AND fare_paid = FALSE
	`

	result, err := r.q.ExecContext(ctx, query, id, domain.RideStatusCompleted, rider)
	if err != nil {
		return mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return r.missingOrConflict(ctx, id)
	}

	return nil
}

// missingOrConflict tells apart a conditional update that lost a race from
// one that targeted an unknown ride.
func (r *RideRepository) missingOrConflict(ctx context.Context, id string) error {
	var exists bool
	err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM rides WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return mapError(err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func (r *RideRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	rides := make([]*domain.Ride, 0)
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, mapError(rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var driver sql.NullString
	var fare, distance sql.NullFloat64
	var acceptedAt, completedAt sql.NullTime

	err := row.Scan(
		&ride.ID,
		&ride.PickupLocation,
		&ride.DropLocation,
		&ride.Status,
		&ride.RiderUsername,
		&driver,
		&fare,
		&distance,
		&ride.FarePaid,
		&ride.CreatedAt,
		&acceptedAt,
		&completedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	ride.DriverUsername = driver.String
	if fare.Valid {
		ride.Fare = domain.Float(fare.Float64)
	}
	if distance.Valid {
		ride.DistanceKm = domain.Float(distance.Float64)
	}
	if acceptedAt.Valid {
		ride.AcceptedAt = acceptedAt.Time
	}
	if completedAt.Valid {
		ride.CompletedAt = completedAt.Time
	}

	return &ride, nil
}
