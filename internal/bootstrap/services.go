package bootstrap

import (
	"time"

	"github.com/Domenick1991/charterbooking/config"
	"github.com/Domenick1991/charterbooking/internal/cache"
	"github.com/Domenick1991/charterbooking/internal/kafka"
	"github.com/Domenick1991/charterbooking/internal/lock"
	"github.com/Domenick1991/charterbooking/internal/retry"
	"github.com/Domenick1991/charterbooking/internal/service/booking"
	"github.com/Domenick1991/charterbooking/internal/service/flights"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services holds the wired application services and the clients they share.
type Services struct {
	Bookings *booking.BookingService
	Flights  *flights.FlightService
	Producer *kafka.Producer
	Redis    *redis.Client
}

func (s *Services) Close(logger *zap.Logger) {
	if s.Producer != nil {
		if err := s.Producer.Close(); err != nil {
			logger.Warn("close kafka producer", zap.Error(err))
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Warn("close redis client", zap.Error(err))
		}
	}
}

// NewServices wires the reservation engine and flight reads over storage.
// Redis and Kafka are optional: without them the in-process lock is used,
// nothing is cached and no events are published.
func NewServices(cfg *config.Config, storage *Storage, logger *zap.Logger) *Services {
	s := &Services{}

	bookingOpts := []booking.BookingServiceOption{
		booking.WithLogger(logger.Named("booking")),
		booking.WithPendingTTL(time.Duration(cfg.Booking.PendingTTLMinutes) * time.Minute),
		booking.WithCompensationRetry(compensationRetry(cfg.Booking)),
	}

	var flightCache flights.FlightCache
	if cfg.Redis.Enabled {
		s.Redis = cache.NewRedisClient(cfg.Redis)
		redisCache := cache.NewRedisCache(s.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
		flightCache = redisCache
		bookingOpts = append(bookingOpts, booking.WithCache(redisCache))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		s.Producer = kafka.NewProducer(cfg.Kafka.Brokers, logger.Named("kafka"))
		bookingOpts = append(bookingOpts, booking.WithProducer(s.Producer, cfg.Kafka.BookingEventsTopic))
	}

	s.Bookings = booking.NewBookingService(
		storage.Bookings,
		storage.Flights,
		storage.Users,
		newLocker(cfg.Lock, s.Redis, logger),
		bookingOpts...,
	)
	s.Flights = flights.NewFlightService(storage.Flights, flightCache, logger.Named("flights"))
	return s
}

func newLocker(cfg config.LockConfig, client *redis.Client, logger *zap.Logger) lock.Locker {
	if cfg.Driver == config.LockRedis && client != nil {
		return lock.NewRedisLocker(client, cfg.WaitTimeout(), cfg.TTL(),
			lock.WithRetryInterval(cfg.RetryInterval()),
			lock.WithLogger(logger.Named("lock")),
		)
	}
	return lock.NewLocalLocker(cfg.WaitTimeout())
}

func compensationRetry(cfg config.BookingConfig) retry.Policy {
	policy := retry.DefaultPolicy()
	policy.MaxRetries = cfg.CompensationMaxRetries
	if cfg.CompensationInitialBackoffMS > 0 {
		policy.InitialInterval = time.Duration(cfg.CompensationInitialBackoffMS) * time.Millisecond
	}
	return policy
}
