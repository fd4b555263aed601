package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/charterbooking/config"
	"github.com/Domenick1991/charterbooking/internal/bootstrap"
	"github.com/Domenick1991/charterbooking/internal/kafka"
	"github.com/Domenick1991/charterbooking/internal/logger"
	"github.com/Domenick1991/charterbooking/internal/service/booking"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("open storage", zap.Error(err))
	}
	defer storage.Close()

	services := bootstrap.NewServices(cfg, storage, lg)
	defer services.Close(lg)

	g, ctx := errgroup.WithContext(ctx)

	if len(cfg.Kafka.Brokers) > 0 {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.BookingEventsTopic, lg.Named("consumer"))
		defer consumer.Close()

		g.Go(func() error {
			return consumer.Consume(ctx, relinkHandler(services.Bookings, lg))
		})
	} else {
		lg.Info("no kafka brokers configured, link repair consumer disabled")
	}

	if cfg.Booking.PendingTTLMinutes > 0 && cfg.Worker.ExpirationSweepMinutes > 0 {
		g.Go(func() error {
			sweepExpired(ctx, services.Bookings, time.Duration(cfg.Worker.ExpirationSweepMinutes)*time.Minute, lg)
			return nil
		})
	} else {
		lg.Info("pending expiry sweep disabled")
	}

	if err := g.Wait(); err != nil {
		lg.Error("worker stopped", zap.Error(err))
		return
	}
	lg.Info("worker stopped")
}

// relinkHandler repairs user and flight references for bookings whose
// linkage failed at reservation time.
func relinkHandler(svc booking.BookingUseCase, lg *zap.Logger) kafka.Handler {
	return func(ctx context.Context, event kafka.BookingEvent) error {
		if event.Type != kafka.EventBookingLinkFailed {
			return nil
		}
		if err := svc.Relink(ctx, event.BookingID); err != nil {
			return err
		}
		lg.Info("booking relinked", zap.String("booking_id", event.BookingID))
		return nil
	}
}

func sweepExpired(ctx context.Context, svc booking.BookingUseCase, every time.Duration, lg *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := svc.ExpirePendingBookings(ctx)
			if err != nil {
				lg.Warn("expire pending bookings", zap.Error(err))
			}
			if len(expired) > 0 {
				lg.Info("expired pending bookings", zap.Int("count", len(expired)))
			}
		}
	}
}
