package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/leadflow/internal/api/http"
	"github.com/spec-kit/leadflow/internal/api/http/handlers"
	"github.com/spec-kit/leadflow/internal/auth"
	"github.com/spec-kit/leadflow/internal/config"
	"github.com/spec-kit/leadflow/internal/events"
	"github.com/spec-kit/leadflow/internal/notify"
	"github.com/spec-kit/leadflow/internal/observability"
	"github.com/spec-kit/leadflow/internal/persistence"
	"github.com/spec-kit/leadflow/internal/repository"
	"github.com/spec-kit/leadflow/internal/seed"
	"github.com/spec-kit/leadflow/internal/service"
	"github.com/spec-kit/leadflow/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := persistence.OpenStore(ctx, *cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics()
	}

	leadRepo := repository.NewLeadRepository(store, time.Now)
	historyRepo := repository.NewLeadHistoryRepository(store, time.Now)
	userRepo := repository.NewUserRepository(store, time.Now)
	credentialRepo := repository.NewCredentialRepository(store)
	settingsRepo := repository.NewSettingsRepository(store)

	if cfg.Store.SeedDefaults {
		seeder := seed.NewSeeder(leadRepo, userRepo, credentialRepo, cfg.Auth.BcryptCost, logger)
		if err := seeder.Run(ctx); err != nil {
			logger.Fatal("failed to seed defaults", zap.Error(err))
		}
	}

	dispatcher := events.NewInMemoryDispatcher(logger)

	var mailer notify.Mailer
	if cfg.Notification.SMTPEnabled() {
		mailer = notify.NewSMTPMailer(cfg.Notification)
	}
	notificationService := service.NewNotificationService(dispatcher, logger, userRepo, leadRepo, mailer)

	var forward events.EventHandler
	if cfg.Events.AMQPURL != "" {
		publisher, err := events.DialAMQP(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			logger.Fatal("failed to connect amqp", zap.Error(err))
		}
		defer publisher.Close() //nolint:errcheck
		forward = publisher.Handle
		logger.Info("forwarding lead events", zap.String("exchange", cfg.Events.Exchange))
	}
	worker.StartNotificationWorker(notificationService, dispatcher, forward)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL())
	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:       userRepo,
		CredentialRepo: credentialRepo,
		Tokens:         tokens,
		BcryptCost:     cfg.Auth.BcryptCost,
	})
	leadService := service.NewLeadService(service.LeadDependencies{
		LeadRepo:    leadRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
		Transitions: metrics,
		Logger:      logger,
		Now:         time.Now,
	})
	assignmentService := service.NewAssignmentService(leadService, userRepo)
	userService := service.NewUserService(userRepo, credentialRepo, cfg.Auth.BcryptCost)
	settingsService := service.NewSettingsService(settingsRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, cfg.Store.Backend, store),
		Auth:           handlers.NewAuthHandler(authService),
		Leads:          handlers.NewLeadsHandler(leadService, assignmentService),
		Board:          handlers.NewBoardHandler(leadService, assignmentService),
		Admin:          handlers.NewAdminHandler(userService, settingsService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), userRepo),
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
