package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/charterbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// FlightRepository is the flight inventory store. Seat counts change only
// through TryDecrement and Increment.
type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
	GetAvailability(ctx context.Context, id string) (domain.Availability, error)
	// TryDecrement removes n seats iff at least n are available.
	TryDecrement(ctx context.Context, id string, n int) (bool, error)
	// Increment returns n seats, saturating at the flight's total.
	Increment(ctx context.Context, id string, n int) error
	AppendBooking(ctx context.Context, flightID, bookingID string) error
}

// BookingRepository is the booking ledger.
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	Get(ctx context.Context, id string) (*domain.Booking, error)
	SetStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	ListByFlight(ctx context.Context, flightID string) ([]domain.Booking, error)
	ListPendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
}

// UserRepository is the slice of the user directory the engine needs.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	AppendBooking(ctx context.Context, userID, bookingID string) error
}

// DB is satisfied by *pgxpool.Pool and by pgxmock pools.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type scanner interface {
	Scan(dest ...any) error
}
