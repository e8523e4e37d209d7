package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/triage-service/internal/api/http"
	"github.com/spec-kit/triage-service/internal/api/http/handlers"
	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/observability"
	"github.com/spec-kit/triage-service/internal/persistence"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/service"
	"github.com/spec-kit/triage-service/internal/supervisor"
	"github.com/spec-kit/triage-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Error("failed to run migrations; continuing on fallback data", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	notifications, err := worker.StartNotificationWorker(*cfg, redis, dispatcher, logger)
	if err != nil {
		logger.Fatal("failed to start notification worker", zap.Error(err))
	}
	defer notifications.Close()

	// a nil pool must reach the gateway as a nil interface
	var db repository.DB
	if pool := pg.PoolHandle(); pool != nil {
		db = pool
	}
	gateway := repository.NewTicketGateway(db, logger, repository.WithMetrics(metrics))

	controller := service.NewTicketController(service.ControllerDependencies{
		Gateway:     gateway,
		Dispatcher:  dispatcher,
		Logger:      logger,
		NoteAuthor:  cfg.Triage.NoteAuthor,
		AllowReopen: cfg.Triage.AllowReopen,
	})
	loadSupervisor := supervisor.New(supervisor.Dependencies{
		Refresher:   controller,
		Timeout:     cfg.Load.Timeout(),
		SettleDelay: cfg.Load.SettleDelay(),
		Logger:      logger,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
	})
	defer loadSupervisor.Close()
	applier := service.NewSuggestionApplier(service.ApplierDependencies{
		Tickets:    controller,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Tickets:     handlers.NewTicketsHandler(controller),
		Load:        handlers.NewLoadHandler(loadSupervisor),
		Suggestions: handlers.NewSuggestionsHandler(applier),
	})

	loadSupervisor.Start(ctx)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
