package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cabbooking/internal/domain"
	"cabbooking/internal/middleware"
	"cabbooking/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// BookRideRequest is the HTTP request body for booking a ride.
type BookRideRequest struct {
	PickupLocation string `json:"pickup_location"`
	DropLocation   string `json:"drop_location"`
}

// BookRide handles POST /v1/rides
func (h *RideHandler) BookRide(c *gin.Context) {
	var req BookRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	rider, _ := middleware.Actor(c)
	ride, err := h.rideService.Book(c.Request.Context(), service.BookRequest{
		Rider:          rider,
		PickupLocation: req.PickupLocation,
		DropLocation:   req.DropLocation,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// ListAvailable handles GET /v1/rides/available
func (h *RideHandler) ListAvailable(c *gin.Context) {
	rides, err := h.rideService.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponses(rides))
}

// AcceptRide handles POST /v1/rides/:id/accept
func (h *RideHandler) AcceptRide(c *gin.Context) {
	driver, _ := middleware.Actor(c)
	ride, err := h.rideService.Accept(c.Request.Context(), driver, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CompleteRide handles POST /v1/rides/:id/complete
func (h *RideHandler) CompleteRide(c *gin.Context) {
	driver, _ := middleware.Actor(c)
	ride, err := h.rideService.Complete(c.Request.Context(), driver, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// MyRides handles GET /v1/rides/mine. With ?unpaid=true only completed,
// unpaid rides are returned.
func (h *RideHandler) MyRides(c *gin.Context) {
	rider, _ := middleware.Actor(c)

	unpaid, _ := strconv.ParseBool(c.Query("unpaid"))
	var (
		rides []*domain.Ride
		err   error
	)
	if unpaid {
		rides, err = h.rideService.UnpaidRides(c.Request.Context(), rider)
	} else {
		rides, err = h.rideService.RidesForRider(c.Request.Context(), rider)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponses(rides))
}

// DriverRides handles GET /v1/rides/driver
func (h *RideHandler) DriverRides(c *gin.Context) {
	driver, _ := middleware.Actor(c)
	rides, err := h.rideService.RidesForDriver(c.Request.Context(), driver)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponses(rides))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	actor, role := middleware.Actor(c)
	ride, err := h.rideService.GetRide(c.Request.Context(), actor, role, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}
