package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/charterbooking/api"
	"github.com/Domenick1991/charterbooking/config"
	"github.com/Domenick1991/charterbooking/internal/auth"
	"github.com/Domenick1991/charterbooking/internal/bootstrap"
	"github.com/Domenick1991/charterbooking/internal/logger"
	"github.com/Domenick1991/charterbooking/internal/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
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

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:       cfg.Telemetry.Enabled,
		ServiceName:   cfg.Telemetry.ServiceName,
		Environment:   os.Getenv("APP_ENV"),
		CollectorAddr: cfg.Telemetry.CollectorAddr,
	})
	if err != nil {
		lg.Fatal("init tracing", zap.Error(err))
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	storage, err := bootstrap.OpenStorage(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("open storage", zap.Error(err))
	}
	defer storage.Close()

	services := bootstrap.NewServices(cfg, storage, lg)
	defer services.Close(lg)

	if services.Producer != nil {
		if err := services.Producer.CheckConnection(ctx); err != nil {
			lg.Warn("kafka unavailable, booking events will be dropped", zap.Error(err))
		}
	}

	if cfg.Log.Format != "console" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.RouterConfig{
		Bookings:   services.Bookings,
		Flights:    services.Flights,
		Auth:       auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Logger:     lg.Named("http"),
		SwaggerDir: cfg.HTTP.SwaggerDir,
	})

	if err := bootstrap.Run(ctx, cfg.HTTP, router, lg); err != nil {
		lg.Error("server error", zap.Error(err))
	}
}
