package domain

import "time"

// EventType names a ride lifecycle event.
type EventType string

const (
	EventRideBooked       EventType = "ride.booked"
	EventRideAccepted     EventType = "ride.accepted"
	EventRideCompleted    EventType = "ride.completed"
	EventPaymentCompleted EventType = "payment.completed"
	EventPaymentFailed    EventType = "payment.failed"
)

// RideEvent is published whenever a ride or its payment changes state.
type RideEvent struct {
	Type       EventType  `json:"type"`
	RideID     string     `json:"ride_id"`
	Actor      string     `json:"actor"`
	Rider      string     `json:"rider,omitempty"`
	Driver     string     `json:"driver,omitempty"`
	Status     RideStatus `json:"status,omitempty"`
	Fare       *float64   `json:"fare,omitempty"`
	PaymentID  string     `json:"payment_id,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}
