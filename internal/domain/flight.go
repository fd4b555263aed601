package domain

import "time"

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "scheduled"
	FlightStatusCompleted FlightStatus = "completed"
	FlightStatusCancelled FlightStatus = "cancelled"
	FlightStatusDelayed   FlightStatus = "delayed"
)

func (s FlightStatus) Valid() bool {
	switch s {
	case FlightStatusScheduled, FlightStatusCompleted, FlightStatusCancelled, FlightStatusDelayed:
		return true
	}
	return false
}

// Bookable reports whether new bookings may be admitted.
func (s FlightStatus) Bookable() bool {
	return s == FlightStatusScheduled
}

// Flight is one scheduled departure. ID is the flight number.
type Flight struct {
	ID             string       `json:"id"`
	FleetID        string       `json:"fleet_id"`
	FromAirport    string       `json:"from_airport"`
	ToAirport      string       `json:"to_airport"`
	FromCity       string       `json:"from_city"`
	ToCity         string       `json:"to_city"`
	DepartureTime  time.Time    `json:"departure_time"`
	ArrivalTime    time.Time    `json:"arrival_time"`
	TotalSeats     int          `json:"total_seats"`
	AvailableSeats int          `json:"available_seats"`
	Status         FlightStatus `json:"status"`
	BookingIDs     []string     `json:"booking_ids,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Availability is the contended part of a flight.
type Availability struct {
	Status         FlightStatus
	AvailableSeats int
	TotalSeats     int
}
