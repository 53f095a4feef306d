package service

import (
	"errors"
	"fmt"
)

// Error categories. Every service error wraps exactly one of these so that
// callers can classify failures with errors.Is.
var (
	// ErrNotFound is returned when a referenced ride, payment or user is absent.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the actor may not act on the resource.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidTransition is returned when a ride cannot move to the requested state.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidState is returned when an operation requires a different ride state.
	ErrInvalidState = errors.New("invalid state")

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a unique identity is already taken.
	ErrConflict = errors.New("conflict")

	// ErrForbidden is returned when an authenticated identity is not yet allowed in.
	ErrForbidden = errors.New("forbidden")

	// ErrGateway is returned when the payment gateway fails to settle.
	ErrGateway = errors.New("payment gateway error")

	// ErrGeocode is returned when an address cannot be geocoded.
	ErrGeocode = errors.New("geocode error")

	// ErrRouting is returned when no route is found between two points.
	ErrRouting = errors.New("routing error")
)

var (
	ErrRideNotFound            = fmt.Errorf("%w: ride not found", ErrNotFound)
	ErrPaymentNotFound         = fmt.Errorf("%w: payment not found", ErrNotFound)
	ErrUserNotFound            = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrRideAlreadyAssigned     = fmt.Errorf("%w: ride already assigned or invalid", ErrInvalidTransition)
	ErrRideNotAccepted         = fmt.Errorf("%w: ride not in accepted state", ErrInvalidState)
	ErrRideNotCompleted        = fmt.Errorf("%w: ride not completed yet", ErrInvalidState)
	ErrRideAlreadyPaid         = fmt.Errorf("%w: ride already paid", ErrInvalidState)
	ErrNotRideDriver           = fmt.Errorf("%w: unauthorized ride completion", ErrUnauthorized)
	ErrNotRideRider            = fmt.Errorf("%w: ride does not belong to payer", ErrUnauthorized)
	ErrNotRideParticipant      = fmt.Errorf("%w: ride not visible to caller", ErrUnauthorized)
	ErrDriverNotApproved       = fmt.Errorf("%w: driver account pending approval", ErrForbidden)
	ErrAdminRegistrationClosed = fmt.Errorf("%w: admin accounts cannot be self-registered", ErrForbidden)
	ErrNotADriver              = fmt.Errorf("%w: only drivers can accept rides", ErrUnauthorized)
	ErrInvalidCredentials      = fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	ErrMissingLocation         = fmt.Errorf("%w: pickup and drop locations are required", ErrValidation)
	ErrInvalidPaymentMethod    = fmt.Errorf("%w: payment method must be CASH, CARD or ONLINE", ErrValidation)
	ErrInvalidRideID           = fmt.Errorf("%w: ride id is required", ErrValidation)
	ErrUsernameTaken           = fmt.Errorf("%w: username already exists", ErrConflict)
	ErrEmailTaken              = fmt.Errorf("%w: email already exists", ErrConflict)
)
