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

	"github.com/utafrali/ReviewInsights/pkg/database"
	"github.com/utafrali/ReviewInsights/pkg/health"
	pkgkafka "github.com/utafrali/ReviewInsights/pkg/kafka"
	"github.com/utafrali/ReviewInsights/pkg/middleware"
	"github.com/utafrali/ReviewInsights/pkg/tracing"
	"github.com/utafrali/ReviewInsights/services/review/internal/config"
	"github.com/utafrali/ReviewInsights/services/review/internal/event"
	handler "github.com/utafrali/ReviewInsights/services/review/internal/handler/http"
	"github.com/utafrali/ReviewInsights/services/review/internal/repository"
	"github.com/utafrali/ReviewInsights/services/review/internal/repository/memory"
	"github.com/utafrali/ReviewInsights/services/review/internal/repository/postgres"
	redisrepo "github.com/utafrali/ReviewInsights/services/review/internal/repository/redis"
	"github.com/utafrali/ReviewInsights/services/review/internal/repository/sqlite"
	"github.com/utafrali/ReviewInsights/services/review/internal/sentiment"
	"github.com/utafrali/ReviewInsights/services/review/internal/service"
)

// ServiceName identifies the review service in logs, traces and metrics.
const ServiceName = "review-service"

// App wires together all dependencies and runs the review service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	store          *store
	events         event.Publisher
	tracerShutdown tracing.ShutdownFunc
	httpServer     *http.Server
}

// store is the selected review repository plus whatever releases it.
type store struct {
	repo  repository.ReviewRepository
	close func() error
}

// NewApp creates a new application instance, initializing all dependencies.
// Nothing here dials PostgreSQL; the pool connects on the first request.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)

	// Review store.
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		_ = tracerShutdown(ctx)
		return nil, err
	}

	// Sentiment API client.
	analyzer := sentiment.New(sentiment.Config{
		BaseURL:        cfg.SentimentAPIURL,
		Timeout:        cfg.SentimentTimeout(),
		BreakerEnabled: cfg.SentimentBreakerEnabled,
	}, logger)
	logger.Info("sentiment client initialized",
		slog.String("base_url", cfg.SentimentAPIURL),
		slog.Duration("timeout", cfg.SentimentTimeout()),
	)

	// Domain events.
	var publisher event.Publisher = event.NoopPublisher{}
	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	reviewService := service.NewReviewService(st.repo, analyzer, publisher, logger)
	reviewService.SetPublishTimeout(cfg.KafkaPublishTimeout())

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("store", st.repo.Ping)
	healthHandler.RegisterNonCritical("sentiment_api", analyzer.Ping)
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
	}

	// HTTP router.
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	router := handler.NewRouter(reviewService, healthHandler, handler.RouterOptions{
		ServiceName: ServiceName,
		CORS:        cors,
		EnableDebug: cfg.IsDevelopment(),
		DebugCIDRs:  cfg.DebugAllowedCIDRs,
	}, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		store:          st,
		events:         publisher,
		tracerShutdown: tracerShutdown,
		httpServer:     httpServer,
	}, nil
}

// openStore builds the repository selected by STORE_BACKEND.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn("using in-memory review store; reviews are lost on restart")
		return &store{repo: memory.NewReviewRepository(), close: func() error { return nil }}, nil

	case config.BackendPostgres:
		pgCfg := cfg.Postgres()
		pool := database.NewPostgresLazyPool(pgCfg, logger,
			database.WithSetup(func(ctx context.Context, p *pgxpool.Pool) error {
				return database.RunMigrations(ctx, p, postgres.Migrations(), logger)
			}),
		)
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, ServiceName); err != nil {
			pool.Close()
			return nil, fmt.Errorf("register pool metrics: %w", err)
		}
		logger.Info("PostgreSQL review store configured",
			slog.String("host", pgCfg.Host),
			slog.Int("port", pgCfg.Port),
			slog.String("database", pgCfg.DBName),
			slog.String("sslmode", pgCfg.SSLMode),
		)
		return &store{
			repo:  postgres.NewReviewRepository(pool),
			close: func() error { pool.Close(); return nil },
		}, nil

	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		repo, err := sqlite.NewReviewRepository(db)
		if err != nil {
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
			return nil, fmt.Errorf("migrate sqlite store: %w", err)
		}
		logger.Info("SQLite review store opened", slog.String("path", cfg.SQLitePath))
		return &store{repo: repo, close: repo.Close}, nil

	case config.BackendRedis:
		redisCfg := cfg.Redis()
		client, err := database.NewRedisClient(ctx, redisCfg)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis", slog.String("addr", redisCfg.Addr()))
		return &store{repo: redisrepo.NewReviewRepository(client), close: client.Close}, nil

	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("store_backend", a.cfg.StoreBackend),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
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

	if err := a.events.Close(); err != nil {
		a.logger.Error("event publisher close error", slog.String("error", err.Error()))
	}

	if err := a.store.close(); err != nil {
		a.logger.Error("review store close error", slog.String("error", err.Error()))
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
