package memory

import (
	"context"
	"sort"
	"time"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository"
)

type rideRecord struct {
	seq  int64
	ride domain.Ride
}

// RideRepository is an in-memory implementation of repository.RideRepository.
type RideRepository struct {
	s    *Store
	undo *undoLog
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.rides[ride.ID]; ok {
		return repository.ErrDuplicate
	}
	r.s.rides[ride.ID] = &rideRecord{seq: r.s.nextSeq(), ride: copyRide(ride)}
	r.undo.record(func() { delete(r.s.rides, ride.ID) })
	return nil
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	ride := copyRide(&rec.ride)
	return &ride, nil
}

// GetByIDForUpdate retrieves a ride by ID. Transactions on the store are
// serialised, so no additional row lock is taken.
func (r *RideRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ride, error) {
	return r.GetByID(ctx, id)
}

// ListByRider retrieves the rides booked by a rider, newest first.
func (r *RideRepository) ListByRider(ctx context.Context, rider string) ([]*domain.Ride, error) {
	rides := r.filter(func(ride *domain.Ride) bool { return ride.RiderUsername == rider })
	reverse(rides)
	return rides, nil
}

// ListByDriver retrieves the rides accepted by a driver, newest first.
func (r *RideRepository) ListByDriver(ctx context.Context, driver string) ([]*domain.Ride, error) {
	rides := r.filter(func(ride *domain.Ride) bool { return ride.DriverUsername == driver })
	sort.SliceStable(rides, func(i, j int) bool {
		return rides[i].AcceptedAt.After(rides[j].AcceptedAt)
	})
	return rides, nil
}

// ListAvailable retrieves requested rides that have no driver, oldest first.
func (r *RideRepository) ListAvailable(ctx context.Context) ([]*domain.Ride, error) {
	return r.filter(func(ride *domain.Ride) bool { return ride.IsOpen() }), nil
}

// Assign sets the driver of an open ride.
func (r *RideRepository) Assign(ctx context.Context, id, driver string) (*domain.Ride, error) {
	return r.transition(id, func(ride *domain.Ride) bool {
		if !ride.IsOpen() {
			return false
		}
		ride.DriverUsername = driver
		ride.Status = domain.RideStatusAccepted
		ride.AcceptedAt = time.Now()
		return true
	})
}

// Complete finishes an accepted ride owned by driver.
func (r *RideRepository) Complete(ctx context.Context, id, driver string, distanceKm, fare float64) (*domain.Ride, error) {
	return r.transition(id, func(ride *domain.Ride) bool {
		if ride.Status != domain.RideStatusAccepted || ride.DriverUsername != driver {
			return false
		}
		ride.Status = domain.RideStatusCompleted
		ride.DistanceKm = domain.Float(distanceKm)
		ride.Fare = domain.Float(fare)
		ride.CompletedAt = time.Now()
		return true
	})
}

// MarkPaid flags a completed, unpaid ride of rider as paid.
func (r *RideRepository) MarkPaid(ctx context.Context, id, rider string) error {
	_, err := r.transition(id, func(ride *domain.Ride) bool {
		if ride.Status != domain.RideStatusCompleted || ride.RiderUsername != rider || ride.FarePaid {
			return false
		}
		ride.FarePaid = true
		return true
	})
	return err
}

// transition applies mutate under the write lock. A false return from mutate
// leaves the ride untouched and yields ErrConflict.
func (r *RideRepository) transition(id string, mutate func(*domain.Ride) bool) (*domain.Ride, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	before := copyRide(&rec.ride)
	next := copyRide(&rec.ride)
	if !mutate(&next) {
		return nil, repository.ErrConflict
	}
	rec.ride = next
	r.undo.record(func() { rec.ride = before })

	out := copyRide(&next)
	return &out, nil
}

// filter returns copies of matching rides in insertion order.
func (r *RideRepository) filter(match func(*domain.Ride) bool) []*domain.Ride {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	recs := make([]*rideRecord, 0)
	for _, rec := range r.s.rides {
		if match(&rec.ride) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	rides := make([]*domain.Ride, 0, len(recs))
	for _, rec := range recs {
		ride := copyRide(&rec.ride)
		rides = append(rides, &ride)
	}
	return rides
}

func copyRide(ride *domain.Ride) domain.Ride {
	c := *ride
	if ride.Fare != nil {
		c.Fare = domain.Float(*ride.Fare)
	}
	if ride.DistanceKm != nil {
		c.DistanceKm = domain.Float(*ride.DistanceKm)
	}
	return c
}

func reverse(rides []*domain.Ride) {
	for i, j := 0, len(rides)-1; i < j; i, j = i+1, j-1 {
		rides[i], rides[j] = rides[j], rides[i]
	}
}
