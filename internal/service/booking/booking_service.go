package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/charterbooking/internal/domain"
	"github.com/Domenick1991/charterbooking/internal/kafka"
	"github.com/Domenick1991/charterbooking/internal/lock"
	"github.com/Domenick1991/charterbooking/internal/repository"
	"github.com/Domenick1991/charterbooking/internal/retry"
	"github.com/Domenick1991/charterbooking/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	Reserve(ctx context.Context, input ReserveInput) (*Reservation, error)
	Cancel(ctx context.Context, bookingID string) (*domain.Booking, error)
	Confirm(ctx context.Context, bookingID string) (*domain.Booking, error)
	Get(ctx context.Context, bookingID string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	ListByFlight(ctx context.Context, flightID string) ([]domain.Booking, error)
	Relink(ctx context.Context, bookingID string) error
	ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error)
}

// Cache is the part of the flight cache the engine touches: it drops
// snapshots after seat changes.
type Cache interface {
	InvalidateFlight(ctx context.Context, flightID string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
	PublishWithRetry(ctx context.Context, topic, key string, value any, maxRetries int) error
}

type ReserveInput struct {
	UserID          string `json:"user_id"`
	FlightID        string `json:"flight_id"`
	Passengers      int    `json:"passengers"`
	TotalPrice      int64  `json:"total_price"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

// Reservation is a committed booking plus any non-fatal problems hit after
// the seats were taken.
type Reservation struct {
	Booking  *domain.Booking `json:"booking"`
	Warnings []string        `json:"warnings,omitempty"`
}

const (
	maxIDAttempts  = 5
	publishTimeout = 5 * time.Second

	// link_failed drives the worker's relink pass.
	linkEventRetries = 3
	linkEventTimeout = 15 * time.Second
)

type BookingService struct {
	bookings     repository.BookingRepository
	flights      repository.FlightRepository
	users        repository.UserRepository
	locker       lock.Locker
	cache        Cache
	producer     Producer
	bookingTopic string
	pendingTTL   time.Duration
	compensation retry.Policy
	newID        func(time.Time) string
	now          func() time.Time
	logger       *zap.Logger
}

type BookingServiceOption func(*BookingService)

func WithCache(cache Cache) BookingServiceOption {
	return func(s *BookingService) { s.cache = cache }
}

func WithProducer(producer Producer, topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = topic
	}
}

func WithLogger(logger *zap.Logger) BookingServiceOption {
	return func(s *BookingService) { s.logger = logger }
}

// WithPendingTTL sets how long a booking may stay pending before the
// expiry sweep cancels it. Zero disables the sweep.
func WithPendingTTL(ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) { s.pendingTTL = ttl }
}

func WithCompensationRetry(policy retry.Policy) BookingServiceOption {
	return func(s *BookingService) { s.compensation = policy }
}

func WithIDGenerator(fn func(time.Time) string) BookingServiceOption {
	return func(s *BookingService) { s.newID = fn }
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) { s.now = now }
}

func NewBookingService(
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	users repository.UserRepository,
	locker lock.Locker,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		flights:      flights,
		users:        users,
		locker:       locker,
		compensation: retry.DefaultPolicy(),
		newID:        NewBookingNumber,
		now:          time.Now,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Reserve admits passengers onto a flight and records the booking.
//
// Preconditions are checked in order and fail without side effects. The
// seat check and decrement run under the flight's admission lock; everything
// after the decrement runs detached from ctx so that a disconnecting caller
// cannot strand seats between the decrement and the booking record.
func (s *BookingService) Reserve(ctx context.Context, input ReserveInput) (*Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "booking.reserve")
	defer span.End()
	span.SetAttributes(
		attribute.String("flight_id", input.FlightID),
		attribute.String("user_id", input.UserID),
		attribute.Int("passengers", input.Passengers),
	)

	res, err := s.reserve(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("booking_id", res.Booking.ID))
	return res, nil
}

func (s *BookingService) reserve(ctx context.Context, input ReserveInput) (*Reservation, error) {
	if err := validateReserve(input); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, lookupErr(ctx, "get user", err)
	}
	if !user.Active {
		return nil, domain.ErrUserNotFound
	}

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, lookupErr(ctx, "get flight", err)
	}
	if !flight.Status.Bookable() {
		return nil, domain.ErrFlightNotBookable
	}
	if flight.AvailableSeats < input.Passengers {
		return nil, domain.ErrInsufficientInventory
	}

	if err := s.admit(ctx, input.FlightID, input.Passengers); err != nil {
		s.logger.Debug("admission rejected",
			zap.String("flight_id", input.FlightID), zap.Int("passengers", input.Passengers), zap.Error(err))
		return nil, err
	}

	opCtx := context.WithoutCancel(ctx)

	booking, err := s.createBooking(opCtx, input, flight.FleetID)
	if err != nil {
		s.compensate(opCtx, input.FlightID, input.Passengers)
		return nil, domain.Internal("create booking", err)
	}
	s.logger.Debug("booking admitted",
		zap.String("booking_id", booking.ID), zap.String("flight_id", booking.FlightID),
		zap.String("user_id", booking.UserID), zap.Int("passengers", booking.Passengers))

	warnings := s.link(opCtx, booking)
	s.invalidate(opCtx, booking.FlightID)
	s.publish(opCtx, kafka.EventBookingCreated, booking, "")

	return &Reservation{Booking: booking, Warnings: warnings}, nil
}

func validateReserve(input ReserveInput) error {
	switch {
	case input.Passengers < 1:
		return domain.ErrInvalidPassengers
	case input.TotalPrice < 0:
		return domain.ErrInvalidTotalPrice
	case input.UserID == "":
		return domain.ErrInvalidUserID
	case input.FlightID == "":
		return domain.ErrInvalidFlightID
	}
	return nil
}

// admit is the only place seats are taken. The decrement itself is not
// interrupted by ctx once started, so its outcome is always known.
func (s *BookingService) admit(ctx context.Context, flightID string, passengers int) error {
	if err := ctx.Err(); err != nil {
		return cancelledErr(err)
	}

	unlock, err := s.locker.Lock(ctx, flightID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := ctx.Err(); err != nil {
		return cancelledErr(err)
	}

	avail, err := s.flights.GetAvailability(ctx, flightID)
	if err != nil {
		return lookupErr(ctx, "get availability", err)
	}
	if !avail.Status.Bookable() {
		return domain.ErrFlightNotBookable
	}
	if avail.AvailableSeats < passengers {
		return domain.ErrInsufficientInventory
	}

	ok, err := s.flights.TryDecrement(context.WithoutCancel(ctx), flightID, passengers)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return domain.Internal("decrement seats", err)
	}
	if !ok {
		return domain.ErrInsufficientInventory
	}
	return nil
}

func (s *BookingService) createBooking(ctx context.Context, input ReserveInput, fleetID string) (*domain.Booking, error) {
	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		booking := &domain.Booking{
			ID:              s.newID(s.now()),
			FlightID:        input.FlightID,
			UserID:          input.UserID,
			FleetID:         fleetID,
			Passengers:      input.Passengers,
			TotalPrice:      input.TotalPrice,
			SpecialRequests: input.SpecialRequests,
			Status:          domain.BookingStatusPending,
			PaymentStatus:   domain.PaymentStatusUnpaid,
		}
		err = s.bookings.Create(ctx, booking)
		if err == nil {
			return booking, nil
		}
		if !errors.Is(err, domain.ErrDuplicateBookingID) {
			return nil, err
		}
		s.logger.Warn("booking number collision", zap.String("booking_id", booking.ID))
	}
	return nil, err
}

// compensate returns seats taken by a reservation that produced no booking.
func (s *BookingService) compensate(ctx context.Context, flightID string, passengers int) {
	if err := s.restoreSeats(ctx, flightID, passengers); err != nil {
		s.logger.Error("seat compensation failed, inventory needs manual repair",
			zap.String("flight_id", flightID), zap.Int("passengers", passengers), zap.Error(err))
		return
	}
	s.logger.Warn("seats restored after failed booking",
		zap.String("flight_id", flightID), zap.Int("passengers", passengers))
}

func (s *BookingService) restoreSeats(ctx context.Context, flightID string, passengers int) error {
	attempts := 0
	err := retry.Do(ctx, s.compensation, func() error {
		attempts++
		err := s.flights.Increment(ctx, flightID, passengers)
		if errors.Is(err, domain.ErrNotFound) {
			return retry.Permanent(err)
		}
		return err
	}, func(err error, next time.Duration) {
		s.logger.Warn("increment seats failed, retrying",
			zap.String("flight_id", flightID), zap.Int("attempt", attempts),
			zap.Duration("next", next), zap.Error(err))
	})
	if err != nil {
		return fmt.Errorf("increment seats after %d attempts: %w", attempts, err)
	}
	return nil
}

// link appends the booking to its user and flight. Failures leave the
// booking in place and are reported as warnings plus a repair event.
func (s *BookingService) link(ctx context.Context, booking *domain.Booking) []string {
	var warnings []string
	if err := s.users.AppendBooking(ctx, booking.UserID, booking.ID); err != nil {
		warnings = append(warnings, fmt.Sprintf("booking not linked to user: %v", err))
	}
	if err := s.flights.AppendBooking(ctx, booking.FlightID, booking.ID); err != nil {
		warnings = append(warnings, fmt.Sprintf("booking not linked to flight: %v", err))
	}
	if len(warnings) > 0 {
		s.logger.Warn("booking linkage incomplete",
			zap.String("booking_id", booking.ID), zap.Strings("warnings", warnings))
		s.publish(ctx, kafka.EventBookingLinkFailed, booking, warnings[0])
	}
	return warnings
}

// Relink repeats the reference appends for an existing booking. Both appends
// are idempotent.
func (s *BookingService) Relink(ctx context.Context, bookingID string) error {
	booking, err := s.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := s.users.AppendBooking(ctx, booking.UserID, booking.ID); err != nil {
		return lookupErr(ctx, "link user", err)
	}
	if err := s.flights.AppendBooking(ctx, booking.FlightID, booking.ID); err != nil {
		return lookupErr(ctx, "link flight", err)
	}
	return nil
}

// Cancel releases the booking's seats back to its flight under the same
// admission lock used by Reserve.
func (s *BookingService) Cancel(ctx context.Context, bookingID string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "booking.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("booking_id", bookingID))

	booking, err := s.cancel(ctx, bookingID, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) cancel(ctx context.Context, bookingID string, onlyPending bool) (*domain.Booking, error) {
	current, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled {
		return nil, domain.ErrBookingCancelled
	}

	if err := ctx.Err(); err != nil {
		return nil, cancelledErr(err)
	}
	unlock, err := s.locker.Lock(ctx, current.FlightID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	opCtx := context.WithoutCancel(ctx)

	// re-read under the lock: a concurrent Cancel or Confirm may have won
	current, err = s.bookings.Get(opCtx, bookingID)
	if err != nil {
		return nil, lookupErr(opCtx, "get booking", err)
	}
	switch {
	case current.Status == domain.BookingStatusCancelled:
		return nil, domain.ErrBookingCancelled
	case onlyPending && current.Status != domain.BookingStatusPending:
		return nil, domain.ErrBookingNotPending
	}

	updated, err := s.bookings.SetStatus(opCtx, bookingID, domain.BookingStatusCancelled)
	if err != nil {
		return nil, domain.Internal("cancel booking", err)
	}

	if err := s.restoreSeats(opCtx, current.FlightID, current.Passengers); err != nil {
		s.logger.Error("seat release failed, reverting cancellation",
			zap.String("booking_id", bookingID), zap.String("flight_id", current.FlightID), zap.Error(err))
		if _, revertErr := s.bookings.SetStatus(opCtx, bookingID, current.Status); revertErr != nil {
			s.logger.Error("revert cancellation failed, inventory needs manual repair",
				zap.String("booking_id", bookingID), zap.Error(revertErr))
		}
		return nil, domain.Internal("release seats", err)
	}

	s.logger.Info("booking cancelled",
		zap.String("booking_id", bookingID), zap.String("flight_id", current.FlightID),
		zap.Int("passengers", current.Passengers))
	s.invalidate(opCtx, current.FlightID)
	s.publish(opCtx, kafka.EventBookingCancelled, updated, "")
	return updated, nil
}

// Confirm moves a pending booking to confirmed. Seats are unaffected.
func (s *BookingService) Confirm(ctx context.Context, bookingID string) (*domain.Booking, error) {
	current, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.BookingStatusPending {
		return nil, domain.ErrBookingNotPending
	}

	unlock, err := s.locker.Lock(ctx, current.FlightID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	opCtx := context.WithoutCancel(ctx)
	current, err = s.bookings.Get(opCtx, bookingID)
	if err != nil {
		return nil, lookupErr(opCtx, "get booking", err)
	}
	if current.Status != domain.BookingStatusPending {
		return nil, domain.ErrBookingNotPending
	}

	updated, err := s.bookings.SetStatus(opCtx, bookingID, domain.BookingStatusConfirmed)
	if err != nil {
		return nil, domain.Internal("confirm booking", err)
	}
	s.publish(opCtx, kafka.EventBookingConfirmed, updated, "")
	return updated, nil
}

// ExpirePendingBookings cancels bookings that stayed pending longer than the
// configured TTL and returns the ones it cancelled. Bookings confirmed or
// cancelled meanwhile are skipped.
func (s *BookingService) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	if s.pendingTTL <= 0 {
		return nil, nil
	}

	deadline := s.now().Add(-s.pendingTTL)
	candidates, err := s.bookings.ListPendingBefore(ctx, deadline)
	if err != nil {
		return nil, domain.Internal("list pending bookings", err)
	}

	expired := make([]domain.Booking, 0, len(candidates))
	var errs []error
	for _, b := range candidates {
		if ctx.Err() != nil {
			errs = append(errs, cancelledErr(ctx.Err()))
			break
		}
		updated, err := s.cancel(ctx, b.ID, true)
		switch {
		case err == nil:
			expired = append(expired, *updated)
		case errors.Is(err, domain.ErrBookingCancelled), errors.Is(err, domain.ErrBookingNotPending):
		default:
			s.logger.Warn("expire booking", zap.String("booking_id", b.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("expire %s: %w", b.ID, err))
		}
	}
	if len(expired) > 0 {
		s.logger.Info("expired pending bookings", zap.Int("count", len(expired)))
	}
	return expired, errors.Join(errs...)
}

func (s *BookingService) Get(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, domain.ErrInvalidBookingID
	}
	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, lookupErr(ctx, "get booking", err)
	}
	return booking, nil
}

func (s *BookingService) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}
	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, lookupErr(ctx, "list user bookings", err)
	}
	return bookings, nil
}

func (s *BookingService) ListByFlight(ctx context.Context, flightID string) ([]domain.Booking, error) {
	if flightID == "" {
		return nil, domain.ErrInvalidFlightID
	}
	bookings, err := s.bookings.ListByFlight(ctx, flightID)
	if err != nil {
		return nil, lookupErr(ctx, "list flight bookings", err)
	}
	return bookings, nil
}

func (s *BookingService) invalidate(ctx context.Context, flightID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlight(ctx, flightID); err != nil {
		s.logger.Warn("invalidate flight cache", zap.String("flight_id", flightID), zap.Error(err))
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, reason string) {
	if s.producer == nil || booking == nil {
		return
	}
	event := kafka.BookingEvent{
		Type:       eventType,
		BookingID:  booking.ID,
		FlightID:   booking.FlightID,
		UserID:     booking.UserID,
		Passengers: booking.Passengers,
		Status:     string(booking.Status),
		Reason:     reason,
		OccurredAt: s.now(),
	}

	var err error
	if eventType == kafka.EventBookingLinkFailed {
		ctx, cancel := context.WithTimeout(ctx, linkEventTimeout)
		defer cancel()
		err = s.producer.PublishWithRetry(ctx, s.bookingTopic, booking.FlightID, event, linkEventRetries)
	} else {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		err = s.producer.Publish(ctx, s.bookingTopic, booking.FlightID, event)
	}
	if err != nil {
		s.logger.Warn("publish booking event",
			zap.String("type", eventType), zap.String("booking_id", booking.ID), zap.Error(err))
	}
}

// lookupErr keeps NotFound and caller cancellation visible and folds
// everything else into Internal.
func lookupErr(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return err
	case ctx.Err() != nil:
		return cancelledErr(ctx.Err())
	default:
		return domain.Internal(op, err)
	}
}

func cancelledErr(err error) error {
	return fmt.Errorf("%w: request %w", domain.ErrTimeout, err)
}
