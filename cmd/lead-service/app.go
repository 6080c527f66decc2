package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"

	"leadhook/internal/config"
	"leadhook/internal/constants"
	"leadhook/internal/dedup"
	"leadhook/internal/logger"
	"leadhook/internal/partner"
	"leadhook/internal/webhook"
	"leadhook/pkg/bootstrap"
	"leadhook/pkg/health"
	"leadhook/pkg/logging"
	"leadhook/pkg/metrics"
	"leadhook/pkg/middleware"
	"leadhook/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	dbConnector *bootstrap.DatabaseConnector
	db          *sql.DB
	redis       *redis.Client
	partners    *partner.Registry
	dedup       *dedup.Service
	engine      *gin.Engine
	server      *http.Server

	tracerProvider *tracing.TracerProvider
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(constants.ServiceName)
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	tp, err := tracing.Init(a.Config.Tracing, constants.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	registry, err := partner.Build(a.Config.Partners, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize partners: %w", err)
	}
	a.partners = registry

	a.initDedup()

	if err := a.InitSink(ctx, a.db); err != nil {
		return err
	}

	metrics.RegisterLeadMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	a.initHTTPServer()

	a.Logger.InfowCtx(ctx, "Application initialized",
		"partners", a.partners.Names(),
		"sink", a.Config.Sink.Type,
		"dedup_enabled", a.Config.Dedup.Enabled,
	)
	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	a.db = db

	if a.Config.Dedup.Enabled {
		rdb, err := a.dbConnector.InitRedis(ctx)
		if err != nil {
			return err
		}
		a.redis = rdb
	}
	return nil
}

func (a *App) initDedup() {
	var repo dedup.Repository
	if a.redis != nil {
		repo = dedup.NewCircuitBreakerRepository(dedup.NewRepository(a.redis), a.Config.CircuitBreaker)
	}
	a.dedup = dedup.NewService(repo, a.Config.Dedup, a.Logger)
}

func (a *App) initHTTPServer() {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	if a.Config.Tracing.Enabled {
		engine.Use(tracing.GinMiddleware(constants.ServiceName))
	}
	engine.Use(
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(a.Logger),
		middleware.RecoveryMiddleware(a.Logger),
	)

	healthRegistry := health.NewCheckerRegistry()
	if a.db != nil {
		healthRegistry.Register(health.NewPostgreSQLChecker(a.db))
	}
	if a.redis != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redis))
	}
	engine.GET("/health", healthRegistry.Handler())
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	webhook.NewHandler(a.partners, a.dedup, a.Sink, a.Logger).RegisterRoutes(engine)

	a.engine = engine
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(a.Config.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(a.Config.Server.WriteTimeoutSeconds) * time.Second,
	}
}

// Run serves HTTP until ctx is cancelled, then shuts the server down.
func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		return a.Shutdown(context.Background())
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, constants.ServiceName)
	a.Logger.InfowCtx(shutdownCtx, "Shutting down lead service")

	var errs []error
	if a.server != nil {
		serverCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(serverCtx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown error: %w", err))
		}
	}

	// the sink is closed by Base before the connections it may write through
	additionalShutdown := func(ctx context.Context) []error {
		errs = append(errs, a.dbConnector.ShutdownDatabases(a.redis, a.db)...)
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
		}
		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
