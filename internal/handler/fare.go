package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cabbooking/internal/service"
)

// FareHandler handles HTTP requests for fare quotes.
type FareHandler struct {
	fareService *service.FareService
}

// NewFareHandler creates a new FareHandler.
func NewFareHandler(fareService *service.FareService) *FareHandler {
	return &FareHandler{fareService: fareService}
}

// EstimateRequest is the HTTP request body for a fare quote.
type EstimateRequest struct {
	PickupLocation string `json:"pickup_location"`
	DropLocation   string `json:"drop_location"`
}

// EstimateResponse carries either a quote or the reason none could be made.
type EstimateResponse struct {
	DistanceKm  string `json:"distance_km,omitempty"`
	DurationMin int64  `json:"duration_min,omitempty"`
	Fare        int64  `json:"fare,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Estimate handles POST /v1/fares/estimate. Provider failures are reported
// in the body with status 200.
func (h *FareHandler) Estimate(c *gin.Context) {
	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.PickupLocation) == "" || strings.TrimSpace(req.DropLocation) == "" {
		respondError(c, service.ErrMissingLocation)
		return
	}

	quote := h.fareService.ExternalEstimate(c.Request.Context(), req.PickupLocation, req.DropLocation)
	if !quote.OK() {
		respondJSON(c, http.StatusOK, EstimateResponse{Error: quote.Error})
		return
	}

	respondJSON(c, http.StatusOK, EstimateResponse{
		DistanceKm:  quote.DistanceKm,
		DurationMin: quote.DurationMin,
		Fare:        quote.Fare,
	})
}
