package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis_rate/v10"

	"github.com/growthdesk/storefront/internal/api"
	"github.com/growthdesk/storefront/internal/api/handler"
	"github.com/growthdesk/storefront/internal/api/middleware"
	"github.com/growthdesk/storefront/internal/core/ports"
	"github.com/growthdesk/storefront/internal/core/service"
	mongodb "github.com/growthdesk/storefront/internal/infrastructure/db/mongo"
	redisstore "github.com/growthdesk/storefront/internal/infrastructure/db/redis"
	kafkapub "github.com/growthdesk/storefront/internal/infrastructure/messaging/kafka"
	"github.com/growthdesk/storefront/internal/infrastructure/queue"
	"github.com/growthdesk/storefront/internal/infrastructure/telemetry"
	"github.com/growthdesk/storefront/internal/pkg/config"
	"github.com/growthdesk/storefront/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log := logger.Get()
		log.Error().Err(err).Msg("application error")
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if err := cfg.ValidateAPI(); err != nil {
		return err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: cfg.Otel.ServiceName,
	})
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("starting storefront api")

	tel, err := telemetry.New(ctx, telemetry.Config{
		Enabled:     cfg.Otel.Enabled,
		Endpoint:    cfg.Otel.Endpoint,
		ServiceName: cfg.Otel.ServiceName,
		SampleRate:  cfg.Otel.SampleRate,
		Insecure:    cfg.Otel.Insecure,
		Environment: cfg.Env,
	})
	if err != nil {
		return err
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect error")
		}
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	log.Info().Str("database", cfg.Mongo.Database).Bool("transactions", cfg.Mongo.Transactions).Msg("mongo connected")

	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close error")
		}
	}()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")

	catalogRepo := mongodb.NewCatalogRepository(db)
	userRepo := mongodb.NewUserRepository(db)
	orderRepo := mongodb.NewOrderRepository(db)

	var (
		events     ports.OrderEventPublisher
		dispatcher *queue.Dispatcher
		publisher  *kafkapub.Publisher
	)
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = kafkapub.NewPublisher(kafkapub.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		dispatcher = queue.NewDispatcher(cfg.DispatchWorkers, publisher, logger.Component("dispatcher"))
		dispatcher.Start(ctx)
		events = dispatcher
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("order events enabled")
	} else {
		log.Warn().Msg("KAFKA_BROKERS not set, order events disabled")
	}

	catalogSvc := service.NewCatalogService(catalogRepo, logger.Component("catalog"))
	userSvc := service.NewUserService(userRepo, logger.Component("users"))
	orderSvc := service.NewOrderService(
		orderRepo,
		userRepo,
		catalogRepo,
		mongodb.NewTransactor(client, cfg.Mongo.Transactions),
		redisstore.NewIdempotencyStore(rdb),
		events,
		logger.Component("orders"),
	)

	e := api.NewRouter(api.Dependencies{
		Catalog: catalogSvc,
		Users:   userSvc,
		Orders:  orderSvc,
		Readiness: map[string]handler.Pinger{
			"mongo": handler.PingFunc(func(ctx context.Context) error { return client.Ping(ctx, nil) }),
			"redis": redisstore.Pinger{Client: rdb},
		},
		OrderLimit: middleware.NewRateLimiter(
			redis_rate.NewLimiter(rdb),
			"orders",
			cfg.RateLimit.OrdersPerMinute,
			cfg.RateLimit.Burst,
			logger.Component("ratelimit"),
		),
		JWTSecret:   cfg.JWTSecret,
		ServiceName: cfg.Otel.ServiceName,
		Logger:      logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	if dispatcher != nil {
		dispatcher.Close()
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("kafka writer close error")
		}
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("telemetry shutdown error")
	}

	log.Info().Msg("application stopped")
	return nil
}
