package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/utilityops/records-service/internal/api/http"
	"github.com/utilityops/records-service/internal/api/http/handlers"
	"github.com/utilityops/records-service/internal/auth"
	"github.com/utilityops/records-service/internal/config"
	"github.com/utilityops/records-service/internal/events"
	"github.com/utilityops/records-service/internal/observability"
	"github.com/utilityops/records-service/internal/persistence"
	"github.com/utilityops/records-service/internal/repository"
	"github.com/utilityops/records-service/internal/service"
	"github.com/utilityops/records-service/internal/storage"
	"github.com/utilityops/records-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redis.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pool := pg.PoolHandle()
	txManager := repository.NewTxManager(pool)
	userRepo := repository.NewUserRepository(pool)
	connectionRepo := repository.NewConnectionRepository(pool)
	documentRepo := repository.NewDocumentRepository(pool)
	nameChangeRepo := repository.NewNameChangeRepository(pool)

	sessions := auth.NewRedisSessionStore(redis.Client, cfg.Auth.SessionTTL())
	signer := auth.NewCookieSigner(cfg.Auth.SessionSecret)
	uploads := storage.NewUploads(cfg.Uploads.Root)

	dispatcher := events.NewInMemoryDispatcher()
	notifier := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	delivery := worker.NewDeliveryWorker(notifier.Deliver, cfg.Notification.QueueSize, logger)
	delivery.Start(ctx)
	notifier.RegisterHandlers(delivery)

	authService := service.NewAuthService(*cfg, userRepo, sessions)
	userService := service.NewUserService(*cfg, userRepo)
	connectionService := service.NewConnectionService(service.ConnectionDependencies{
		TxManager:      txManager,
		ConnectionRepo: connectionRepo,
		DocumentRepo:   documentRepo,
		Uploads:        uploads,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	documentService := service.NewDocumentService(connectionRepo, documentRepo, uploads, logger)
	nameChangeService := service.NewNameChangeService(service.NameChangeDependencies{
		NameChangeRepo: nameChangeRepo,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
	})

	app := httptransport.NewApp(*cfg, logger, metrics)
	httptransport.RegisterMiddlewares(app, *cfg, logger, metrics)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:              handlers.NewAuthHandler(authService, signer, cfg.Auth),
		Users:             handlers.NewUsersHandler(userService),
		Connections:       handlers.NewConnectionsHandler(connectionService),
		Documents:         handlers.NewDocumentsHandler(documentService, logger),
		NameChanges:       handlers.NewNameChangeHandler(nameChangeService),
		SessionMiddleware: auth.NewSessionMiddleware(cfg.Auth.SessionCookieName, signer, sessions, userRepo),
		MetricsGatherer:   registry,
		UploadsRoot:       cfg.Uploads.Root,
		OpenRegistration:  cfg.HTTP.OpenUserRegistration,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
	delivery.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
