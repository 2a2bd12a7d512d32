package handlers

import (
	"fmt"
	"net/http"

	"github.com/asso7/concert_ledger/cmd/docs"
	portssvc "github.com/asso7/concert_ledger/internal/core/ports/services"
	"github.com/asso7/concert_ledger/internal/middleware"
	"github.com/asso7/concert_ledger/internal/platform/config"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) error {
	if err := registerValidators(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	if err := registerAuthRoutes(r, services); err != nil {
		return err
	}

	if err := setupAPIV1Routes(r, cfg, services); err != nil {
		return err
	}

	setupSwaggerRoutes(r, cfg)
	return nil
}

// setupAPIV1Routes configures the authenticated /api/v1 group.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) error {
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	if cfg.RateLimit != "" {
		apiLimiter, err := middleware.NewMemoryLimiter(cfg.RateLimit)
		if err != nil {
			return err
		}
		v1.Use(middleware.RateLimit(apiLimiter))
	}

	registerMemberRoutes(v1, services.Member)
	registerBookingRoutes(v1, services.Booking, services.Lifecycle)
	registerEntryRoutes(v1, services.Entry)
	registerStatementRoutes(v1, services.Statement)
	return nil
}

// setupSwaggerRoutes serves the API documentation outside production.
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
