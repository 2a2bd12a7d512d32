package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asso7/concert_ledger/internal/core/services"
	"github.com/asso7/concert_ledger/internal/handlers"
	"github.com/asso7/concert_ledger/internal/middleware"
	"github.com/asso7/concert_ledger/internal/platform/analytics"
	"github.com/asso7/concert_ledger/internal/platform/auditlog"
	"github.com/asso7/concert_ledger/internal/platform/cache"
	"github.com/asso7/concert_ledger/internal/platform/config"
	"github.com/asso7/concert_ledger/internal/platform/scheduler"
	"github.com/asso7/concert_ledger/internal/repositories/database/pgsql"
	"github.com/asso7/concert_ledger/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 15 * time.Second

// @title Concert Ledger API
// @version 1.0
// @description Shares booking proceeds among the members who played and keeps their accounts.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.ClosePgxPool(dbPool)

	logger.Info("Running database migrations...")
	if _, err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		return err
	}

	statementCache, closeCache := buildCache(ctx, cfg, logger)
	defer closeCache()

	repos := pgsql.NewRepositoryProvider(dbPool)

	auditWorker := auditlog.NewWorker(repos.AuditRepo, cfg.AuditBufferSize, logger.With(slog.String("component", "audit")))
	auditWorker.Start()
	defer auditWorker.Shutdown()

	tracker := analytics.NewTracker(cfg.PostHogAPIKey, cfg.PostHogEndpoint, logger)
	defer tracker.Close()

	serviceContainer := services.NewServiceContainer(cfg, repos,
		services.WithCache(statementCache),
		services.WithAuditSink(auditWorker),
	)

	jobs := scheduler.New(logger.With(slog.String("component", "scheduler")))
	if cfg.RecomputeSchedule != "" {
		rule, err := scheduler.ParseRule(cfg.RecomputeSchedule)
		if err != nil {
			return err
		}
		jobs.Register("recompute-all", rule, func(ctx context.Context) error {
			result, err := serviceContainer.Booking.RecomputeAll(middleware.WithLogger(ctx, logger))
			if err != nil {
				return err
			}
			logger.Info("Recomputed all bookings", slog.Int("processed", result.Processed), slog.Int("failed", result.Failed))
			return nil
		})
	}
	jobs.Start(ctx)
	defer func() {
		stop()
		jobs.Wait()
	}()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.AnalyticsMiddleware(tracker),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}

	if err := handlers.RegisterRoutes(r, cfg, serviceContainer); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildCache connects to redis when configured. A broken redis disables caching rather than the server.
func buildCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.Cache, func()) {
	if cfg.RedisURL == "" {
		logger.Info("REDIS_URL not set, statement cache disabled")
		return cache.Noop{}, func() {}
	}
	redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("Failed to connect to redis, statement cache disabled", slog.String("error", err.Error()))
		return cache.Noop{}, func() {}
	}
	logger.Info("Statement cache connected to redis")
	return redisCache, func() {
		if err := redisCache.Close(); err != nil {
			logger.Warn("Failed to close redis client", slog.String("error", err.Error()))
		}
	}
}
