package models

import "time"

// NATS Event Types
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
)

// BookingConfirmedEvent carries what the notification dispatcher needs to send
// the ticket email; the amount is a string to keep the payload decimal-exact
type BookingConfirmedEvent struct {
	BookingID     int64     `json:"booking_id"`
	EventID       int64     `json:"event_id"`
	UserID        int64     `json:"user_id"`
	Reference     string    `json:"reference"`
	EventTitle    string    `json:"event_title"`
	AttendeeName  string    `json:"attendee_name"`
	AttendeeEmail string    `json:"attendee_email"`
	TotalAmount   string    `json:"total_amount"`
	Currency      string    `json:"currency"`
	Timestamp     time.Time `json:"timestamp"`
}

// BookingCancelledEvent represents a booking cancellation event
type BookingCancelledEvent struct {
	BookingID int64     `json:"booking_id"`
	EventID   int64     `json:"event_id"`
	UserID    int64     `json:"user_id"`
	Reference string    `json:"reference"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
