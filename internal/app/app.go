package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/pishop/storefront/internal/config"
	"github.com/pishop/storefront/internal/event"
	"github.com/pishop/storefront/internal/gateway"
	handler "github.com/pishop/storefront/internal/handler/http"
	"github.com/pishop/storefront/internal/repository"
	memoryrepo "github.com/pishop/storefront/internal/repository/memory"
	postgresrepo "github.com/pishop/storefront/internal/repository/postgres"
	redisrepo "github.com/pishop/storefront/internal/repository/redis"
	"github.com/pishop/storefront/internal/service"
	"github.com/pishop/storefront/migrations"
	"github.com/pishop/storefront/pkg/database"
	"github.com/pishop/storefront/pkg/health"
	pkgkafka "github.com/pishop/storefront/pkg/kafka"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize PostgreSQL and apply migrations.
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres())
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.String("db", cfg.PostgresDB),
	)

	// Cart sessions live in Redis when configured, otherwise in process
	// memory (local development only).
	var (
		rdb      *redis.Client
		cartRepo repository.CartSessionRepository
	)
	if cfg.RedisHost != "" {
		rdb, err = database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		cartRepo = redisrepo.NewCartSessionRepository(rdb, cfg.CartTTL())
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))
	} else {
		cartRepo = memoryrepo.NewCartSessionRepository()
		logger.Warn("REDIS_HOST not set, using in-memory cart store")
	}

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	providerRepo := postgresrepo.NewProviderRepository(pool)
	settingsRepo := postgresrepo.NewSettingsRepository(pool)

	breakerCfg := service.DefaultCarrierBreakerConfig()
	breakerCfg.FailureRatio = cfg.BreakerFailureRatio
	breakerCfg.MinRequests = cfg.BreakerMinRequests
	breakerCfg.Timeout = time.Duration(cfg.BreakerTimeoutSeconds) * time.Second

	carrier := gateway.NewSimulatedCarrier(cfg.CarrierLatency())
	rateService := service.NewRateService(providerRepo, settingsRepo, carrier, breakerCfg, cfg.CarrierTimeout(), logger)

	eventProducer := event.NewProducer(producer, logger)
	checkoutService := service.NewCheckoutService(
		cartRepo, rateService, gateway.NewSimulatedPayment(), eventProducer, cfg.Currency, logger,
	)
	providerService := service.NewProviderService(providerRepo, settingsRepo, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if rdb != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	healthHandler.Register("kafka", producer.Ping)

	// HTTP router.
	router := handler.NewRouter(checkoutService, rateService, providerService, healthHandler, cfg.AdminPassword, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		rdb:        rdb,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return nil
}
