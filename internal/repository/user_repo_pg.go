package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/charterbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

// PGUserRepository reads accounts owned by the user directory and appends
// booking references to them.
type PGUserRepository struct {
	db DB
}

func NewUserRepository(db DB) *PGUserRepository {
	return &PGUserRepository{db: db}
}

func (r *PGUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `SELECT id, email, name, active, booking_ids FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.Active, &u.BookingIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}

func (r *PGUserRepository) AppendBooking(ctx context.Context, userID, bookingID string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET booking_ids = CASE WHEN $2 = ANY(booking_ids) THEN booking_ids ELSE array_append(booking_ids, $2) END WHERE id=$1`, userID, bookingID)
	if err != nil {
		return fmt.Errorf("link booking %s to user %s: %w", bookingID, userID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

var _ UserRepository = (*PGUserRepository)(nil)
