package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cabbooking/internal/app"
	"cabbooking/internal/auth"
	"cabbooking/internal/config"
	"cabbooking/internal/events"
	"cabbooking/internal/handler"
	"cabbooking/internal/maps"
	"cabbooking/internal/observability"
	internalRedis "cabbooking/internal/redis"
	"cabbooking/internal/service"
)

const serviceName = "cab-booking-service"

func main() {
	cfg := config.Load()

	logger := observability.NewLogger(serviceName, cfg.AppEnv)
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cfg.Tracing.Enabled {
		shutdownTracer, err := observability.SetupTracer(ctx, serviceName)
		if err != nil {
			logger.Warn("tracing disabled", zap.Error(err))
		} else {
			defer func() { _ = shutdownTracer(context.Background()) }()
		}
	}

	// New Relic goes first so the database driver can be instrumented.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		var err error
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	storage, err := app.NewStorage(ctx, cfg, nrApp)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer func() { _ = storage.Close() }()
	logger.Info("storage ready", zap.String("driver", cfg.Storage))

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
		logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		logger.Warn("redis disabled: quote cache and idempotency replay are off")
	}

	var natsConn *nats.Conn
	if cfg.NATS.URL != "" {
		natsConn, err = nats.Connect(cfg.NATS.URL, nats.Name(serviceName))
		if err != nil {
			logger.Warn("nats unavailable, events will not be published", zap.Error(err))
		} else {
			defer natsConn.Drain()
		}
	}

	server := wireServer(cfg, storage, redisClient, natsConn, nrApp, logger)

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	cfg *config.Config,
	storage *app.Storage,
	redisClient *redis.Client,
	natsConn *nats.Conn,
	nrApp *newrelic.Application,
	logger *zap.Logger,
) *http.Server {
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	publisher := events.NewPublisher(natsConn, cfg.NATS.SubjectPrefix)
	quoteCache := internalRedis.NewQuoteCache(redisClient)

	var routing service.RoutingProvider
	if provider, err := maps.NewRoutingProvider(maps.Config{
		APIKey:  cfg.Maps.APIKey,
		BaseURL: cfg.Maps.BaseURL,
		Timeout: cfg.Maps.Timeout,
	}); err != nil {
		logger.Warn("routing provider disabled, fare estimates will fail", zap.Error(err))
	} else {
		routing = provider
	}

	notificationService := service.NewNotificationService(publisher, logger)
	receiptService := service.NewReceiptService()
	userService := service.NewUserService(storage.Users, tokens, service.UserOptions{
		AutoApproveDrivers:     cfg.Auth.AutoApproveDrivers,
		AllowAdminRegistration: cfg.Auth.AllowAdminRegistration,
	}, logger)
	rideService := service.NewRideService(storage.Rides, userService, service.NewRandomDistanceProvider(), notificationService, logger)
	paymentService := service.NewPaymentService(
		storage.Tx, storage.Rides, storage.Payments,
		service.NewMockGateway(), receiptService, notificationService, logger,
	)
	fareService := service.NewFareService(routing, quoteCache, cfg.Maps.Timeout, logger)

	router := app.NewRouter(app.RouterDeps{
		AuthHandler:    handler.NewAuthHandler(userService),
		RideHandler:    handler.NewRideHandler(rideService),
		PaymentHandler: handler.NewPaymentHandler(paymentService, receiptService),
		FareHandler:    handler.NewFareHandler(fareService),
		Tokens:         tokens,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
		Logger:         logger,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
