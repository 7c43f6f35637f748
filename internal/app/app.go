package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/checkout"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/event"
	handler "github.com/utafrali/storefront/internal/handler/http"
	"github.com/utafrali/storefront/internal/identity"
	"github.com/utafrali/storefront/internal/migrations"
	"github.com/utafrali/storefront/internal/order"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/repository/memory"
	"github.com/utafrali/storefront/internal/repository/postgres"
	"github.com/utafrali/storefront/internal/repository/rest"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/tracing"
)

const catalogMaxAge = 60

// App wires together all dependencies and runs the storefront.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	if threshold := cfg.SlowQueryThreshold(); threshold > 0 {
		database.SetSlowQueryLogging(threshold, logger)
	}

	healthHandler := health.NewHandler()

	store, err := a.openStore(ctx, healthHandler)
	if err != nil {
		a.closeAll()
		return nil, err
	}

	sessions, err := a.openSessions(ctx, healthHandler)
	if err != nil {
		a.closeAll()
		return nil, err
	}

	publisher := a.openPublisher(healthHandler)

	// Build the dependency graph.
	carts := cart.NewService(store.Carts, store.CartItems, publisher, logger)
	svcs := handler.Services{
		Catalog:  catalog.NewPipeline(store.Products, store.Categories, logger),
		Carts:    carts,
		Checkout: checkout.NewService(carts, store.Orders, publisher, cfg.Shipping(), logger),
		Orders:   order.NewService(store.Orders, logger),
		Identity: identity.NewService(store.Users, identity.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL()), sessions, logger),
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins

	router := handler.NewRouter(svcs, healthHandler, handler.Options{
		Currency:           cfg.Currency,
		CORS:               cors,
		AuthRateLimitRPS:   cfg.AuthRateLimitRPS,
		AuthRateLimitBurst: cfg.AuthRateLimitBurst,
		CatalogMaxAge:      catalogMaxAge,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       time.Duration(cfg.HTTPReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTPWriteTimeoutSec) * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// openStore connects the configured data backend and registers its health check.
func (a *App) openStore(ctx context.Context, hh *health.Handler) (repository.Store, error) {
	switch a.cfg.DataBackend {
	case config.BackendREST:
		breaker := httpclient.NewCircuitBreakerClient(
			httpclient.New(a.cfg.DataServiceClient()), a.cfg.CircuitBreaker(), a.logger,
		).WithFallback(func(_ context.Context, err error) (*http.Response, error) {
			return nil, fmt.Errorf("%w: %v", apperrors.ServiceUnavailable("data service is unavailable"), err)
		})
		client := rest.NewClient(breaker, a.cfg.DataServiceURL)
		hh.Register("data-service", client.Ping)
		a.logger.Info("using remote data service", slog.String("url", a.cfg.DataServiceURL))
		return rest.NewStore(client), nil

	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, a.cfg.Postgres(), a.logger)
		if err != nil {
			return repository.Store{}, fmt.Errorf("connect to postgres: %w", err)
		}
		a.pool = pool
		a.logger.Info("connected to PostgreSQL",
			slog.String("host", a.cfg.PostgresHost),
			slog.Int("port", a.cfg.PostgresPort),
			slog.String("database", a.cfg.PostgresDB),
		)
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, "storefront"); err != nil {
			return repository.Store{}, fmt.Errorf("register pool metrics: %w", err)
		}
		if a.cfg.RunMigrations {
			if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
				return repository.Store{}, fmt.Errorf("run migrations: %w", err)
			}
			a.logger.Info("database migrations completed")
		}
		hh.Register("postgres", func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
		return postgres.NewStore(pool), nil

	default:
		db := memory.New()
		if a.cfg.SeedMemory {
			memory.Seed(db)
		}
		a.logger.Warn("using in-memory data backend; data is lost on restart")
		return db.Store(), nil
	}
}

// openSessions returns the Redis revocation store when Redis is configured.
func (a *App) openSessions(ctx context.Context, hh *health.Handler) (identity.SessionStore, error) {
	if a.cfg.RedisAddr == "" {
		return identity.NewMemorySessionStore(), nil
	}

	rdb, err := database.NewRedisClient(ctx, a.cfg.Redis())
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.rdb = rdb
	a.logger.Info("connected to Redis",
		slog.String("addr", a.cfg.RedisAddr),
		slog.Int("db", a.cfg.RedisDB),
	)
	hh.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	return identity.NewRedisSessionStore(rdb), nil
}

// openPublisher returns the Kafka event producer, or a no-op without brokers.
func (a *App) openPublisher(hh *health.Handler) event.Publisher {
	if len(a.cfg.KafkaBrokers) == 0 {
		return event.Noop{}
	}

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(a.cfg.KafkaBrokers), a.logger)
	a.producer = producer
	a.logger.Info("kafka producer initialized", slog.Any("brokers", a.cfg.KafkaBrokers))
	hh.RegisterOptional("kafka", producer.Ping)
	return event.NewProducer(producer, a.logger)
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("backend", a.cfg.DataBackend),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeAll()
		return err
	}

	return a.Shutdown()
}

// Shutdown drains HTTP requests, then flushes spans and closes the backends.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.closeAll(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeAll releases everything opened so far. It is safe to call after a
// partial NewApp.
func (a *App) closeAll() error {
	var errs []error

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.producer = nil
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.rdb = nil
	}

	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	return errors.Join(errs...)
}
