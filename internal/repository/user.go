package repository

import (
	"context"

	"cabbooking/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create persists a new user. Returns ErrDuplicate when the username
	// or email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// ExistsByEmail reports whether the email is registered.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ListPendingDrivers retrieves drivers waiting for approval.
	ListPendingDrivers(ctx context.Context) ([]*domain.User, error)

	// Approve marks a user as approved.
	Approve(ctx context.Context, username string) error
}
