package api

import (
	"net/http"

	"github.com/Domenick1991/charterbooking/internal/service/booking"
	"github.com/Domenick1991/charterbooking/internal/service/flights"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Bookings   booking.BookingUseCase
	Flights    flights.FlightUseCase
	Auth       Authenticator
	Logger     *zap.Logger
	SwaggerDir string
}

// NewRouter mounts the public flight reads, the authenticated booking
// routes and, when SwaggerDir is set, the API docs.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(RequestLogger(logger), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	NewFlightHandler(cfg.Flights).Register(router.Group("/flights"))
	NewBookingHandler(cfg.Bookings).Register(router.Group("/bookings", RequireIdentity(cfg.Auth)))

	if cfg.SwaggerDir != "" {
		router.Static("/swagger", cfg.SwaggerDir)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/bookings.swagger.json"),
		)))
	}
	return router
}
