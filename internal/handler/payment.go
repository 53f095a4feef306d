package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cabbooking/internal/domain"
	"cabbooking/internal/middleware"
	"cabbooking/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
	receiptService *service.ReceiptService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService, receiptService *service.ReceiptService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		receiptService: receiptService,
	}
}

// PayRequest is the HTTP request body for paying a ride.
type PayRequest struct {
	RideID string `json:"ride_id"`
	Method string `json:"method"`
}

// PaymentResponse is the HTTP representation of a payment.
type PaymentResponse struct {
	ID            string  `json:"id"`
	RideID        string  `json:"ride_id"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
	Status        string  `json:"status"`
	TransactionID string  `json:"transaction_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// ReceiptResponse is the HTTP representation of a receipt.
type ReceiptResponse struct {
	RideID         string  `json:"ride_id"`
	PaymentID      string  `json:"payment_id"`
	PickupLocation string  `json:"pickup_location"`
	DropLocation   string  `json:"drop_location"`
	DistanceKm     float64 `json:"distance_km"`
	BaseFare       float64 `json:"base_fare"`
	DistanceCharge float64 `json:"distance_charge"`
	TotalFare      float64 `json:"total_fare"`
	Method         string  `json:"method"`
	TransactionID  string  `json:"transaction_id"`
	IssuedAt       string  `json:"issued_at"`
	Text           string  `json:"text"`
}

// PayResponse is the HTTP response for a successful payment.
type PayResponse struct {
	Payment PaymentResponse `json:"payment"`
	Receipt ReceiptResponse `json:"receipt"`
}

// Pay handles POST /v1/payments
func (h *PaymentHandler) Pay(c *gin.Context) {
	var req PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	payer, _ := middleware.Actor(c)
	result, err := h.paymentService.Pay(c.Request.Context(), service.PayRequest{
		Payer:  payer,
		RideID: req.RideID,
		Method: req.Method,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, PayResponse{
		Payment: toPaymentResponse(result.Payment),
		Receipt: h.toReceiptResponse(result.Receipt),
	})
}

// GetPayment handles GET /v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	actor, role := middleware.Actor(c)
	payment, err := h.paymentService.GetPayment(c.Request.Context(), actor, role, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// RidePayments handles GET /v1/rides/:id/payments
func (h *PaymentHandler) RidePayments(c *gin.Context) {
	rider, _ := middleware.Actor(c)
	payments, err := h.paymentService.PaymentsForRide(c.Request.Context(), rider, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	respondJSON(c, http.StatusOK, out)
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		RideID:        p.RideID,
		Amount:        p.Amount,
		Method:        string(p.Method),
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		CreatedAt:     formatTime(p.CreatedAt),
	}
}

func (h *PaymentHandler) toReceiptResponse(r *domain.Receipt) ReceiptResponse {
	return ReceiptResponse{
		RideID:         r.RideID,
		PaymentID:      r.PaymentID,
		PickupLocation: r.PickupLocation,
		DropLocation:   r.DropLocation,
		DistanceKm:     r.DistanceKm,
		BaseFare:       r.BaseFare,
		DistanceCharge: r.DistanceCharge,
		TotalFare:      r.TotalFare,
		Method:         string(r.Method),
		TransactionID:  r.TransactionID,
		IssuedAt:       formatTime(r.IssuedAt),
		Text:           h.receiptService.FormatReceipt(r),
	}
}
