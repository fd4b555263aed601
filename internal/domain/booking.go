package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Booking is a reservation of Passengers seats on one flight.
// FleetID is copied from the flight at creation and never follows later fleet changes.
type Booking struct {
	ID              string        `json:"id"`
	FlightID        string        `json:"flight_id"`
	UserID          string        `json:"user_id"`
	FleetID         string        `json:"fleet_id"`
	Passengers      int           `json:"passengers"`
	TotalPrice      int64         `json:"total_price"`
	SpecialRequests string        `json:"special_requests,omitempty"`
	Status          BookingStatus `json:"status"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Active reports whether the booking still holds seats.
func (b *Booking) Active() bool {
	return b.Status != BookingStatusCancelled
}
