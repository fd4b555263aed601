package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/charterbooking/internal/domain"
	"github.com/Domenick1991/charterbooking/internal/telemetry"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const flightColumns = `id, fleet_id, from_airport, to_airport, from_city, to_city, departure_time, arrival_time, total_seats, available_seats, status, booking_ids, created_at, updated_at`

type PGFlightRepository struct {
	db DB
}

func NewFlightRepository(db DB) *PGFlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`)
	if err != nil {
		return nil, fmt.Errorf("list flights: %w", err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flight: %w", err)
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	f, err := scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlightNotFound
		}
		return nil, fmt.Errorf("get flight %s: %w", id, err)
	}
	return f, nil
}

func (r *PGFlightRepository) GetAvailability(ctx context.Context, id string) (domain.Availability, error) {
	var (
		a      domain.Availability
		status string
	)
	err := r.db.QueryRow(ctx, `SELECT status, available_seats, total_seats FROM flights WHERE id=$1`, id).
		Scan(&status, &a.AvailableSeats, &a.TotalSeats)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Availability{}, domain.ErrFlightNotFound
		}
		return domain.Availability{}, fmt.Errorf("get availability %s: %w", id, err)
	}
	a.Status = domain.FlightStatus(status)
	return a, nil
}

// TryDecrement relies on the conditional UPDATE being atomic per row, so it
// is safe even without the engine's admission lock.
func (r *PGFlightRepository) TryDecrement(ctx context.Context, id string, n int) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.pg.flights.try_decrement")
	defer span.End()
	span.SetAttributes(attribute.String("flight_id", id), attribute.Int("seats", n))

	tag, err := r.db.Exec(ctx, `UPDATE flights SET available_seats = available_seats - $2, updated_at = now() WHERE id=$1 AND available_seats >= $2`, id, n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("decrement seats %s: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	exists, err := r.exists(ctx, id)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, domain.ErrFlightNotFound
	}
	span.SetAttributes(attribute.Bool("insufficient", true))
	return false, nil
}

func (r *PGFlightRepository) Increment(ctx context.Context, id string, n int) error {
	tag, err := r.db.Exec(ctx, `UPDATE flights SET available_seats = LEAST(total_seats, available_seats + $2), updated_at = now() WHERE id=$1`, id, n)
	if err != nil {
		return fmt.Errorf("increment seats %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFlightNotFound
	}
	return nil
}

func (r *PGFlightRepository) AppendBooking(ctx context.Context, flightID, bookingID string) error {
	tag, err := r.db.Exec(ctx, `UPDATE flights SET booking_ids = CASE WHEN $2 = ANY(booking_ids) THEN booking_ids ELSE array_append(booking_ids, $2) END WHERE id=$1`, flightID, bookingID)
	if err != nil {
		return fmt.Errorf("link booking %s to flight %s: %w", bookingID, flightID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFlightNotFound
	}
	return nil
}

func (r *PGFlightRepository) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM flights WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check flight %s: %w", id, err)
	}
	return exists, nil
}

func scanFlight(row scanner) (*domain.Flight, error) {
	var (
		f      domain.Flight
		status string
	)
	if err := row.Scan(&f.ID, &f.FleetID, &f.FromAirport, &f.ToAirport, &f.FromCity, &f.ToCity, &f.DepartureTime, &f.ArrivalTime,
		&f.TotalSeats, &f.AvailableSeats, &status, &f.BookingIDs, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.Status = domain.FlightStatus(status)
	return &f, nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
