package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository"
	"cabbooking/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID             string   `json:"id"`
	PickupLocation string   `json:"pickup_location"`
	DropLocation   string   `json:"drop_location"`
	Status         string   `json:"status"`
	Rider          string   `json:"rider"`
	Driver         *string  `json:"driver"`
	Fare           *float64 `json:"fare"`
	DistanceKm     *float64 `json:"distance_km"`
	FarePaid       bool     `json:"fare_paid"`
	CreatedAt      string   `json:"created_at"`
	AcceptedAt     string   `json:"accepted_at,omitempty"`
	CompletedAt    string   `json:"completed_at,omitempty"`
}

// respondError records err on the context and sends an error response with
// the matching HTTP status code. Unexpected errors are not exposed.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	code := mapErrorToHTTPStatus(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		message = "internal server error"
	}
	c.JSON(code, ErrorResponse{Error: message})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict

	case errors.Is(err, service.ErrGateway):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

func toRideResponse(ride *domain.Ride) RideResponse {
	resp := RideResponse{
		ID:             ride.ID,
		PickupLocation: ride.PickupLocation,
		DropLocation:   ride.DropLocation,
		Status:         string(ride.Status),
		Rider:          ride.RiderUsername,
		Fare:           ride.Fare,
		DistanceKm:     ride.DistanceKm,
		FarePaid:       ride.FarePaid,
		CreatedAt:      formatTime(ride.CreatedAt),
		AcceptedAt:     formatTime(ride.AcceptedAt),
		CompletedAt:    formatTime(ride.CompletedAt),
	}
	if ride.HasDriver() {
		driver := ride.DriverUsername
		resp.Driver = &driver
	}
	return resp
}

func toRideResponses(rides []*domain.Ride) []RideResponse {
	out := make([]RideResponse, 0, len(rides))
	for _, ride := range rides {
		out = append(out, toRideResponse(ride))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
