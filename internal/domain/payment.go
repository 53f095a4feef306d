package domain

import "time"

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// PaymentMethod represents how a rider settles a fare.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodOnline PaymentMethod = "ONLINE"
)

// Payment represents the settlement of a completed ride.
type Payment struct {
	ID            string
	RideID        string
	Amount        float64
	Method        PaymentMethod
	Status        PaymentStatus
	TransactionID string
	CreatedAt     time.Time
}

// Receipt is an itemised summary of a paid ride.
type Receipt struct {
	RideID         string
	PaymentID      string
	PickupLocation string
	DropLocation   string
	DistanceKm     float64
	BaseFare       float64
	DistanceCharge float64
	TotalFare      float64
	Method         PaymentMethod
	TransactionID  string
	IssuedAt       time.Time
}
