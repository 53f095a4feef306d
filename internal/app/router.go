package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cabbooking/internal/domain"
	"cabbooking/internal/handler"
	"cabbooking/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler    *handler.AuthHandler
	RideHandler    *handler.RideHandler
	PaymentHandler *handler.PaymentHandler
	FareHandler    *handler.FareHandler
	Tokens         middleware.TokenParser
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
	Logger         *zap.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", deps.AuthHandler.Register)
			authRoutes.POST("/login", deps.AuthHandler.Login)
		}
	}

	secured := v1.Group("")
	secured.Use(
		middleware.Authenticate(deps.Tokens),
		middleware.NewRelicActor(),
		middleware.IdempotencyMiddleware(deps.RedisClient),
	)
	{
		// Admin routes.
		admin := secured.Group("/admin", middleware.RequireRole(domain.RoleAdmin))
		{
			admin.GET("/drivers/pending", deps.AuthHandler.PendingDrivers)
			admin.POST("/drivers/:username/approve", deps.AuthHandler.ApproveDriver)
		}

		// Fare routes.
		secured.POST("/fares/estimate", deps.FareHandler.Estimate)

		// Ride routes.
		rides := secured.Group("/rides")
		{
			riderOnly := middleware.RequireRole(domain.RoleRider)
			driverOnly := middleware.RequireRole(domain.RoleDriver)

			rides.POST("", riderOnly, deps.RideHandler.BookRide)
			rides.GET("/mine", riderOnly, deps.RideHandler.MyRides)
			rides.GET("/available", driverOnly, deps.RideHandler.ListAvailable)
			rides.GET("/driver", driverOnly, deps.RideHandler.DriverRides)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.GET("/:id/payments", riderOnly, deps.PaymentHandler.RidePayments)
			rides.POST("/:id/accept", driverOnly, deps.RideHandler.AcceptRide)
			rides.POST("/:id/complete", driverOnly, deps.RideHandler.CompleteRide)
		}

		// Payment routes.
		payments := secured.Group("/payments")
		{
			payments.POST("", middleware.RequireRole(domain.RoleRider), deps.PaymentHandler.Pay)
			payments.GET("/:id", middleware.RequireRole(domain.RoleRider, domain.RoleAdmin), deps.PaymentHandler.GetPayment)
		}
	}

	return router
}
