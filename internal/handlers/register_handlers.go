package handlers

import (
	portssvc "github.com/bizlink/walletd/internal/core/ports/services"
	"github.com/bizlink/walletd/internal/middleware"
	"github.com/bizlink/walletd/pkg/config"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	walletLimiter *limiter.Limiter,
) {
	// Health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	r.GET("/", getHome)

	setupAPIV1Routes(r, cfg, services, walletLimiter)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to the
// per-surface route registrations. The user and agent wallets share handler
// code; each group is bound to its own engine instance.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	walletLimiter *limiter.Limiter,
) {
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))
	rateLimit := middleware.RateLimit(walletLimiter)

	wallet := v1.Group("/wallet")
	registerWalletRoutes(wallet, services.UserWallet, rateLimit)
	registerWithdrawalRoutes(wallet, services.UserWithdrawals, rateLimit)

	agentWallet := v1.Group("/agent-wallet")
	registerWalletRoutes(agentWallet, services.AgentWallet, rateLimit)
	registerWithdrawalRoutes(agentWallet, services.AgentWithdrawals, rateLimit)

	admin := v1.Group("/admin", middleware.RequireAdmin())
	registerAdminRoutes(admin, services)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
