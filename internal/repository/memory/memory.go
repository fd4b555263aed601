// Package memory holds in-process implementations of the repository
// interfaces. They are selected at startup with storage.driver=memory and
// back the engine tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/charterbooking/internal/domain"
	"github.com/Domenick1991/charterbooking/internal/repository"
)

type Store struct {
	Flights  *FlightStore
	Bookings *BookingStore
	Users    *UserStore
}

func New() *Store {
	return &Store{
		Flights:  NewFlightStore(),
		Bookings: NewBookingStore(),
		Users:    NewUserStore(),
	}
}

type FlightStore struct {
	mu      sync.RWMutex
	flights map[string]*domain.Flight
	now     func() time.Time
}

func NewFlightStore() *FlightStore {
	return &FlightStore{flights: make(map[string]*domain.Flight), now: time.Now}
}

// Put inserts or replaces a flight.
func (s *FlightStore) Put(f domain.Flight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.BookingIDs = slices.Clone(f.BookingIDs)
	s.flights[f.ID] = &f
}

func (s *FlightStore) List(_ context.Context) ([]domain.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flights := make([]domain.Flight, 0, len(s.flights))
	for _, f := range s.flights {
		flights = append(flights, cloneFlight(f))
	}
	sort.Slice(flights, func(i, j int) bool {
		return flights[i].DepartureTime.Before(flights[j].DepartureTime)
	})
	return flights, nil
}

func (s *FlightStore) GetByID(_ context.Context, id string) (*domain.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.flights[id]
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	c := cloneFlight(f)
	return &c, nil
}

func (s *FlightStore) GetAvailability(_ context.Context, id string) (domain.Availability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.flights[id]
	if !ok {
		return domain.Availability{}, domain.ErrFlightNotFound
	}
	return domain.Availability{Status: f.Status, AvailableSeats: f.AvailableSeats, TotalSeats: f.TotalSeats}, nil
}

func (s *FlightStore) TryDecrement(_ context.Context, id string, n int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flights[id]
	if !ok {
		return false, domain.ErrFlightNotFound
	}
	if f.AvailableSeats < n {
		return false, nil
	}
	f.AvailableSeats -= n
	f.UpdatedAt = s.now()
	return true, nil
}

func (s *FlightStore) Increment(_ context.Context, id string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flights[id]
	if !ok {
		return domain.ErrFlightNotFound
	}
	f.AvailableSeats = min(f.TotalSeats, f.AvailableSeats+n)
	f.UpdatedAt = s.now()
	return nil
}

func (s *FlightStore) AppendBooking(_ context.Context, flightID, bookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flights[flightID]
	if !ok {
		return domain.ErrFlightNotFound
	}
	if !slices.Contains(f.BookingIDs, bookingID) {
		f.BookingIDs = append(f.BookingIDs, bookingID)
	}
	return nil
}

func cloneFlight(f *domain.Flight) domain.Flight {
	c := *f
	c.BookingIDs = slices.Clone(f.BookingIDs)
	return c
}

type BookingStore struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking
	now      func() time.Time
}

func NewBookingStore() *BookingStore {
	return &BookingStore{bookings: make(map[string]*domain.Booking), now: time.Now}
}

func (s *BookingStore) Create(_ context.Context, b *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bookings[b.ID]; exists {
		return domain.ErrDuplicateBookingID
	}
	now := s.now()
	b.CreatedAt, b.UpdatedAt = now, now
	c := *b
	s.bookings[b.ID] = &c
	return nil
}

func (s *BookingStore) Get(_ context.Context, id string) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	c := *b
	return &c, nil
}

func (s *BookingStore) SetStatus(_ context.Context, id string, status domain.BookingStatus) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	b.Status = status
	b.UpdatedAt = s.now()
	c := *b
	return &c, nil
}

func (s *BookingStore) ListByUser(_ context.Context, userID string) ([]domain.Booking, error) {
	bookings := s.filter(func(b *domain.Booking) bool { return b.UserID == userID })
	// newest first
	slices.Reverse(bookings)
	return bookings, nil
}

func (s *BookingStore) ListByFlight(_ context.Context, flightID string) ([]domain.Booking, error) {
	return s.filter(func(b *domain.Booking) bool { return b.FlightID == flightID }), nil
}

func (s *BookingStore) ListPendingBefore(_ context.Context, deadline time.Time) ([]domain.Booking, error) {
	return s.filter(func(b *domain.Booking) bool {
		return b.Status == domain.BookingStatusPending && !b.CreatedAt.After(deadline)
	}), nil
}

// filter returns matches ordered by creation time.
func (s *BookingStore) filter(keep func(*domain.Booking) bool) []domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Booking, 0)
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, *b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

type UserStore struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*domain.User)}
}

func (s *UserStore) Put(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.BookingIDs = slices.Clone(u.BookingIDs)
	s.users[u.ID] = &u
}

func (s *UserStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	c.BookingIDs = slices.Clone(u.BookingIDs)
	return &c, nil
}

func (s *UserStore) AppendBooking(_ context.Context, userID, bookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if !slices.Contains(u.BookingIDs, bookingID) {
		u.BookingIDs = append(u.BookingIDs, bookingID)
	}
	return nil
}

var (
	_ repository.FlightRepository  = (*FlightStore)(nil)
	_ repository.BookingRepository = (*BookingStore)(nil)
	_ repository.UserRepository    = (*UserStore)(nil)
)
