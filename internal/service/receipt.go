package service

import (
	"fmt"
	"strings"
	"time"

	"cabbooking/internal/domain"
)

// ReceiptService builds receipts for paid rides.
type ReceiptService struct{}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService() *ReceiptService {
	return &ReceiptService{}
}

// GenerateReceipt itemises the fare of a paid ride.
// Rides priced by the flat booking quote carry no distance and are billed as base fare only.
func (s *ReceiptService) GenerateReceipt(ride *domain.Ride, payment *domain.Payment) *domain.Receipt {
	total := payment.Amount
	receipt := &domain.Receipt{
		RideID:         ride.ID,
		PaymentID:      payment.ID,
		PickupLocation: ride.PickupLocation,
		DropLocation:   ride.DropLocation,
		BaseFare:       total,
		TotalFare:      total,
		Method:         payment.Method,
		TransactionID:  payment.TransactionID,
		IssuedAt:       time.Now().UTC(),
	}

	if ride.DistanceKm != nil {
		receipt.DistanceKm = *ride.DistanceKm
		receipt.BaseFare = DistanceBaseFare
		receipt.DistanceCharge = total - DistanceBaseFare
	}

	return receipt
}

// FormatReceipt renders the receipt as plain text.
func (s *ReceiptService) FormatReceipt(receipt *domain.Receipt) string {
	var b strings.Builder
	line := strings.Repeat("=", 37)
	rule := strings.Repeat("-", 37)

	fmt.Fprintln(&b, line)
	fmt.Fprintln(&b, "            RIDE RECEIPT")
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "Ride ID:    %s\n", receipt.RideID)
	fmt.Fprintf(&b, "Payment ID: %s\n", receipt.PaymentID)
	fmt.Fprintf(&b, "Date:       %s\n\n", receipt.IssuedAt.Format("Jan 02, 2006 3:04 PM"))

	fmt.Fprintln(&b, "RIDE DETAILS")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Pickup:     %s\n", receipt.PickupLocation)
	fmt.Fprintf(&b, "Drop:       %s\n", receipt.DropLocation)
	fmt.Fprintf(&b, "Distance:   %.2f km\n\n", receipt.DistanceKm)

	fmt.Fprintln(&b, "FARE BREAKDOWN")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Base fare:        %.2f\n", receipt.BaseFare)
	fmt.Fprintf(&b, "Distance charge:  %.2f\n", receipt.DistanceCharge)
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "TOTAL:            %.2f\n\n", receipt.TotalFare)

	fmt.Fprintln(&b, "PAYMENT")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Method:      %s\n", receipt.Method)
	fmt.Fprintf(&b, "Transaction: %s\n", receipt.TransactionID)
	fmt.Fprintln(&b, line)

	return b.String()
}
