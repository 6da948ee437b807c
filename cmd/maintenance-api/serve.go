package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/maintenance-service/internal/api/http"
	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/observability"
	"github.com/spec-kit/maintenance-service/internal/persistence"
	"github.com/spec-kit/maintenance-service/internal/ratelimit"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	if pool == nil {
		return fmt.Errorf("POSTGRES_DSN is required to serve")
	}

	if cfg.Postgres.RunMigrations {
		if err := pg.Migrate(ctx, ""); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	metrics.SubscribeEvents(dispatcher)

	userRepo := repository.NewUserRepository(pool)
	membershipRepo := repository.NewTeamMembershipRepository(pool)
	requestRepo := repository.NewMaintenanceRequestRepository(pool)

	maintenanceService := service.NewMaintenanceService(service.MaintenanceDependencies{
		RequestRepo:    requestRepo,
		MembershipRepo: membershipRepo,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
	})
	teamService := service.NewTeamService(service.TeamDependencies{
		MembershipRepo: membershipRepo,
		UserRepo:       userRepo,
		Dispatcher:     dispatcher,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	limiter := ratelimit.NewLimiter(
		redis.RateLimitStore(),
		cfg.RateLimit.PerWindow,
		cfg.RateLimit.Window(),
		logger,
	)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Requests:       handlers.NewMaintenanceRequestsHandler(maintenanceService),
		Teams:          handlers.NewTeamMembersHandler(teamService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, userRepo),
		RateLimiter:    limiter,
		Metrics:        metrics,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("fiber listen: %w", err)
		}
	}
	return app.Shutdown()
}
