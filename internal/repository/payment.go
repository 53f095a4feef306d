package repository

import (
	"context"

	"cabbooking/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// ListByRide retrieves every payment attempt for a ride.
	ListByRide(ctx context.Context, rideID string) ([]*domain.Payment, error)

	// Settle stores the final status and transaction reference of a payment.
	// Returns ErrDuplicate if the ride already has a completed payment.
	Settle(ctx context.Context, id string, status domain.PaymentStatus, transactionID string) error
}
