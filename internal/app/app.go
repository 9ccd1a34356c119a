package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/config"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/event"
	handler "github.com/alleny0o/sr-laserworks-ecommerce/internal/handler/http"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/repository"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/repository/memory"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/repository/postgres"
	redisrepo "github.com/alleny0o/sr-laserworks-ecommerce/internal/repository/redis"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/service"
	"github.com/alleny0o/sr-laserworks-ecommerce/migrations"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/breaker"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/database"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/health"
	pkgkafka "github.com/alleny0o/sr-laserworks-ecommerce/pkg/kafka"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/middleware"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/tracing"
)

// App owns the catalog editor's connections and HTTP server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error

	// stop ends background work started by the router.
	stop context.CancelFunc
}

// NewApp connects to every backing store and builds the HTTP server.
// Connections opened before a failure are closed again.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.closeStores()
		}
	}()

	if a.tracerShutdown, err = tracing.InitTracer(ctx, cfg.Tracing()); err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	if err = a.openPostgres(ctx); err != nil {
		return nil, err
	}
	if cfg.FieldStateStore == config.FieldStateRedis {
		if a.rdb, err = database.NewRedisClient(ctx, cfg.Redis()); err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()), slog.Int("db", cfg.RedisDB))
	}

	a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	if err := retryPing(ctx, "kafka", a.producer.Ping, logger); err != nil {
		logger.Warn("kafka unreachable, events will fail until it recovers", slog.String("error", err.Error()))
	} else {
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	bgCtx, stop := context.WithCancel(context.Background())
	a.stop = stop
	router := handler.NewRouter(bgCtx, a.services(), a.healthChecks(), a.routerConfig(), logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(cfg.RequestTimeoutSecs+5) * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return a, nil
}

func (a *App) openPostgres(ctx context.Context) error {
	pgCfg := a.cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, a.logger)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.String("database", pgCfg.DBName),
	)

	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, config.ServiceName); err != nil {
		a.logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}
	if a.cfg.RunMigrations {
		if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		a.logger.Info("database migrations completed")
	}
	if a.cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(a.cfg.SlowQueryThresholdMs)*time.Millisecond, a.logger)
	}
	return nil
}

func (a *App) services() handler.Services {
	products := postgres.NewProductRepository(a.pool)
	events := event.NewProducer(a.producer, a.logger)

	validator := service.NewSKUValidator(
		products,
		postgres.NewSKURepository(a.pool),
		breaker.New[int64](a.cfg.Breaker(), a.logger),
		service.SKUValidatorConfig{
			LookupTimeout: time.Duration(a.cfg.SKULookupTimeoutMs) * time.Millisecond,
			Concurrency:   a.cfg.SKULookupConcurrency,
		},
		a.logger,
	)

	return handler.Services{
		Products:  service.NewProductService(products, validator, events, a.logger),
		Variants:  service.NewVariantService(products, events, a.logger),
		SKUs:      validator,
		SKUChecks: service.NewFieldChecks(validator, a.fieldStates(), a.logger),
	}
}

// fieldStates returns the Redis store when Redis is connected. The in-memory
// store only orders checks within this process.
func (a *App) fieldStates() repository.FieldStateStore {
	if a.rdb == nil {
		a.logger.Warn("field check state kept in memory, run a single instance")
		return memory.NewFieldStateStore()
	}
	return redisrepo.NewFieldStateStore(a.rdb, time.Duration(a.cfg.FieldStateTTL)*time.Minute)
}

// healthChecks marks only PostgreSQL critical. Without Redis field checks
// fail, and without Kafka events fail, but documents stay editable.
func (a *App) healthChecks() *health.Handler {
	h := health.NewHandler()
	h.RegisterCritical("postgres", a.pool.Ping)
	if a.rdb != nil {
		h.RegisterNonCritical("redis", func(ctx context.Context) error { return a.rdb.Ping(ctx).Err() })
	}
	h.RegisterNonCritical("kafka", a.producer.Ping)
	return h
}

func (a *App) routerConfig() handler.RouterConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = a.cfg.CORSAllowedOrigins
	cors.Environment = a.cfg.Environment

	return handler.RouterConfig{
		ServiceName:    config.ServiceName,
		CORS:           cors,
		SKUCheckLimit:  middleware.RateLimitConfig{RPS: a.cfg.SKUCheckRPS, Burst: a.cfg.SKUCheckBurst},
		RequestTimeout: time.Duration(a.cfg.RequestTimeoutSecs) * time.Second,
		PprofCIDRs:     a.cfg.PprofAllowedCIDRs,
	}
}

// Run serves HTTP until ctx is canceled or the listener fails, then shuts
// everything down.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		return a.Shutdown()
	case err := <-errCh:
		return errors.Join(err, a.Shutdown())
	}
}

// Shutdown drains in-flight requests, then releases the stores.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.stop()
	errs = append(errs, a.closeStores()...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeStores flushes spans and closes the producer, Redis and the pool.
// It skips whatever was never opened.
func (a *App) closeStores() []error {
	var errs []error
	record := func(what string, err error) {
		if err != nil {
			a.logger.Error(what+" close error", slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("close %s: %w", what, err))
		}
	}

	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		record("tracer", a.tracerShutdown(ctx))
		cancel()
	}
	if a.producer != nil {
		record("kafka producer", a.producer.Close())
	}
	if a.rdb != nil {
		record("redis", a.rdb.Close())
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errs
}

// retryPing calls ping up to three times, waiting 1s then 2s (25% jitter)
// between attempts.
func retryPing(ctx context.Context, name string, ping func(context.Context) error, logger *slog.Logger) error {
	const attempts = 3
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = ping(ctx); err == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}

		base := time.Second << attempt
		wait := base + time.Duration(float64(base)*0.25*(2*rand.Float64()-1)) // #nosec G404
		logger.Warn(name+" ping failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()),
		)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%s ping: %w", name, ctx.Err())
		case <-t.C:
		}
	}
	return fmt.Errorf("%s ping failed after %d attempts: %w", name, attempts, err)
}
