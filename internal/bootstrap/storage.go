package bootstrap

import (
	"context"
	"fmt"

	"github.com/Domenick1991/charterbooking/config"
	"github.com/Domenick1991/charterbooking/internal/repository"
	"github.com/Domenick1991/charterbooking/internal/repository/memory"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Storage is the set of repositories selected by storage.driver.
type Storage struct {
	Flights  repository.FlightRepository
	Bookings repository.BookingRepository
	Users    repository.UserRepository
	close    func()
}

func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		return openPostgres(ctx, cfg.Database, logger)
	case config.StorageMemory:
		return openMemory(cfg.Storage, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Storage, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if cfg.Migrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("database schema applied")
	}

	return &Storage{
		Flights:  repository.NewFlightRepository(pool),
		Bookings: repository.NewBookingRepository(pool),
		Users:    repository.NewUserRepository(pool),
		close:    pool.Close,
	}, nil
}

func openMemory(cfg config.StorageConfig, logger *zap.Logger) (*Storage, error) {
	store := memory.New()
	if cfg.SeedFile != "" {
		seed, err := memory.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		if err := store.Apply(seed); err != nil {
			return nil, fmt.Errorf("apply seed file: %w", err)
		}
		logger.Info("memory store seeded",
			zap.Int("flights", len(seed.Flights)), zap.Int("users", len(seed.Users)))
	}
	logger.Warn("using in-memory storage; data is lost on restart")

	return &Storage{Flights: store.Flights, Bookings: store.Bookings, Users: store.Users}, nil
}
