package flights

import (
	"context"
	"errors"

	"github.com/Domenick1991/charterbooking/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
}

// FlightReader is the read side of the inventory store.
type FlightReader interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
}

// FlightCache returns nil values without error on a miss.
type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	GetFlight(ctx context.Context, id string) (*domain.Flight, error)
	SetFlight(ctx context.Context, f *domain.Flight) error
}

// FlightService serves flight listings for display. Seat counts here may be
// stale by up to the cache TTL; admission never reads through this service.
type FlightService struct {
	repo   FlightReader
	cache  FlightCache
	group  singleflight.Group
	logger *zap.Logger
}

// NewFlightService accepts a nil cache.
func NewFlightService(repo FlightReader, cache FlightCache, logger *zap.Logger) *FlightService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FlightService{repo: repo, cache: cache, logger: logger}
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		cached, err := s.cache.GetFlights(ctx)
		if err != nil {
			s.logger.Warn("read flights cache", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	// the fill is shared by every waiter, so it must outlive the first caller
	fillCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do("flights", func() (any, error) {
		flights, err := s.repo.List(fillCtx)
		if err != nil {
			return nil, domain.Internal("list flights", err)
		}
		if s.cache != nil {
			if err := s.cache.SetFlights(fillCtx, flights); err != nil {
				s.logger.Warn("fill flights cache", zap.Error(err))
			}
		}
		return flights, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Flight), nil
}

func (s *FlightService) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	if id == "" {
		return nil, domain.ErrInvalidFlightID
	}
	if s.cache != nil {
		cached, err := s.cache.GetFlight(ctx, id)
		if err != nil {
			s.logger.Warn("read flight cache", zap.String("flight_id", id), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	fillCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do("flight:"+id, func() (any, error) {
		f, err := s.repo.GetByID(fillCtx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			return nil, domain.Internal("get flight", err)
		}
		if s.cache != nil {
			if err := s.cache.SetFlight(fillCtx, f); err != nil {
				s.logger.Warn("fill flight cache", zap.String("flight_id", id), zap.Error(err))
			}
		}
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Flight), nil
}

var _ FlightUseCase = (*FlightService)(nil)
