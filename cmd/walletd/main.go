package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/bizlink/walletd/internal/core/domain"
	portssvc "github.com/bizlink/walletd/internal/core/ports/services"
	"github.com/bizlink/walletd/internal/core/services"
	"github.com/bizlink/walletd/internal/handlers"
	"github.com/bizlink/walletd/internal/middleware"
	"github.com/bizlink/walletd/internal/repositories/database/pgsql"
	"github.com/bizlink/walletd/pkg/config"
	"github.com/bizlink/walletd/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ulule/limiter/v3"
	limitermem "github.com/ulule/limiter/v3/drivers/store/memory"
)

// @title Wallet Ledger API
// @version 1.0
// @description Wallet and agent commission ledger service.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rate, err := limiter.NewRateFromFormatted(cfg.WalletRateLimit)
	if err != nil {
		logger.Error("Invalid wallet rate limit", slog.String("value", cfg.WalletRateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}
	walletLimiter := limiter.New(limitermem.NewStore(), rate)

	serviceContainer := buildServices(dbPool)
	handlers.RegisterRoutes(r, cfg, serviceContainer, walletLimiter)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// buildServices wires the repositories into the two wallet engine instances
// and the admin facades.
func buildServices(dbPool *pgxpool.Pool) *portssvc.ServiceContainer {
	repos := pgsql.NewRepositoryContainer(dbPool)

	return &portssvc.ServiceContainer{
		UserWallet:       services.NewWalletService(domain.KindUser, repos.Accounts, repos.Transactions, repos.Withdrawals, repos.Directory),
		AgentWallet:      services.NewWalletService(domain.KindAgent, repos.Accounts, repos.Transactions, repos.Withdrawals, repos.Directory),
		UserWithdrawals:  services.NewWithdrawalService(domain.KindUser, repos.Accounts, repos.Transactions, repos.Withdrawals, repos.Directory),
		AgentWithdrawals: services.NewWithdrawalService(domain.KindAgent, repos.Accounts, repos.Transactions, repos.Withdrawals, repos.Directory),
		Reporting:        services.NewReportingService(repos.Reporting),
		Directory:        repos.Directory,
	}
}

// runMigrations applies all pending schema migrations before the server
// accepts traffic. It opens a short-lived database/sql connection via the
// pgx stdlib driver, separate from the application pool.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationsDir, "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
