package cli

import (
	"context"
	"fmt"
	"log/slog"

	portssvc "github.com/asso7/concert_ledger/internal/core/ports/services"
	"github.com/asso7/concert_ledger/internal/core/services"
	"github.com/asso7/concert_ledger/internal/middleware"
	"github.com/asso7/concert_ledger/internal/platform/auditlog"
	"github.com/asso7/concert_ledger/internal/platform/cache"
	"github.com/asso7/concert_ledger/internal/platform/config"
	"github.com/asso7/concert_ledger/internal/repositories/database/pgsql"
	"github.com/asso7/concert_ledger/pkg/database"
	"github.com/spf13/cobra"
)

// Runtime is what a command needs to reach the ledger.
type Runtime struct {
	Services *portssvc.ServiceContainer
	Close    func()
}

// Connector builds a Runtime for one command invocation.
type Connector func(ctx context.Context, databaseURL string, cfg *config.Config, logger *slog.Logger) (*Runtime, error)

// DefaultConnector wires the services over PostgreSQL. Transitions are audited like the server's,
// and when redis is configured the server's statement cache is invalidated too.
func DefaultConnector(ctx context.Context, databaseURL string, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("no database URL: pass --database-url or set PGSQL_URL")
	}
	pool, err := database.NewPgxPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	var statementCache cache.Cache = cache.Noop{}
	closeCache := func() {}
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("Failed to connect to redis, cache invalidation skipped", slog.String("error", err.Error()))
		} else {
			statementCache = redisCache
			closeCache = func() { _ = redisCache.Close() }
		}
	}

	repos := pgsql.NewRepositoryProvider(pool)
	worker := auditlog.NewWorker(repos.AuditRepo, cfg.AuditBufferSize, logger)
	worker.Start()

	container := services.NewServiceContainer(cfg, repos,
		services.WithCache(statementCache),
		services.WithAuditSink(worker),
	)
	return &Runtime{
		Services: container,
		Close: func() {
			worker.Shutdown()
			closeCache()
			database.ClosePgxPool(pool)
		},
	}, nil
}

// withRuntime connects, runs fn with a logger-carrying context and always closes the runtime.
func (o *RootOptions) withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *Runtime) error) error {
	ctx := middleware.WithLogger(cmd.Context(), o.logger)
	rt, err := o.connect(ctx, o.DatabaseURL, o.cfg, o.logger)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}
