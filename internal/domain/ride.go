package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusRequested RideStatus = "REQUESTED"
	RideStatusAccepted  RideStatus = "ACCEPTED"
	RideStatusCompleted RideStatus = "COMPLETED"
)

// Ride represents a ride request through its full lifecycle.
type Ride struct {
	ID             string
	PickupLocation string
	DropLocation   string
	Status         RideStatus
	RiderUsername  string
	DriverUsername string // Empty until a driver accepts the ride
	Fare           *float64
	DistanceKm     *float64
	FarePaid       bool
	CreatedAt      time.Time
	AcceptedAt     time.Time
	CompletedAt    time.Time
}

// HasDriver reports whether a driver has been assigned.
func (r *Ride) HasDriver() bool {
	return r.DriverUsername != ""
}

// IsOpen reports whether the ride is waiting for a driver.
func (r *Ride) IsOpen() bool {
	return r.Status == RideStatusRequested && !r.HasDriver()
}

// Float returns a pointer to v, for the nullable numeric fields of Ride.
func Float(v float64) *float64 {
	return &v
}
