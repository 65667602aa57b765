package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/helpdesk-sync/internal/api/http"
	"github.com/spec-kit/helpdesk-sync/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-sync/internal/auth"
	"github.com/spec-kit/helpdesk-sync/internal/config"
	"github.com/spec-kit/helpdesk-sync/internal/events"
	"github.com/spec-kit/helpdesk-sync/internal/identity"
	"github.com/spec-kit/helpdesk-sync/internal/observability"
	"github.com/spec-kit/helpdesk-sync/internal/persistence"
	"github.com/spec-kit/helpdesk-sync/internal/repository"
	"github.com/spec-kit/helpdesk-sync/internal/service"
	"github.com/spec-kit/helpdesk-sync/internal/session"
	"github.com/spec-kit/helpdesk-sync/internal/store"
	"github.com/spec-kit/helpdesk-sync/internal/worker"
)

const shutdownTimeout = 5 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("helpdesk-sync stopped", zap.Error(err))
	}
	logger.Info("shut down cleanly")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	metrics := observability.NewMetrics()
	checks := map[string]handlers.Pinger{}

	repo, closeRepo, err := openRepository(ctx, cfg, logger, checks)
	if err != nil {
		return err
	}
	defer closeRepo()

	dispatcher, closeDispatcher := newDispatcher(ctx, cfg, logger, checks)
	defer closeDispatcher()

	docStore, err := store.New(store.Dependencies{
		Repository:   repo,
		Dispatcher:   dispatcher,
		Logger:       logger.Named("store"),
		Metrics:      metrics,
		WriteTimeout: cfg.Store.WriteTimeout(),
		ReadTimeout:  cfg.Store.ReadTimeout(),
	})
	if err != nil {
		return err
	}
	checks["store"] = docStore

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTLMinutes)
	gate := identity.NewGate(auth.NewIdentityProvider(tokens), cfg.Auth.InitialAuthToken, logger.Named("identity"))

	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      docStore,
		Gate:       gate,
		Dispatcher: dispatcher,
		TenantID:   cfg.Store.TenantID,
		Logger:     logger,
	})
	profileService := service.NewProfileService(service.ProfileDependencies{
		Store:      docStore,
		Gate:       gate,
		Dispatcher: dispatcher,
		TenantID:   cfg.Store.TenantID,
		Logger:     logger,
	})

	stopNotifications, err := worker.StartNotificationWorker(ctx, service.NewNotificationService(dispatcher, logger.Named("notifications")))
	if err != nil {
		return fmt.Errorf("start notification worker: %w", err)
	}
	defer stopNotifications()

	sess := session.New(session.Dependencies{
		Gate:           gate,
		Store:          docStore,
		TicketService:  ticketService,
		ProfileService: profileService,
		TenantID:       cfg.Store.TenantID,
		Logger:         logger.Named("session"),
	})
	defer sess.Close()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:             handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, gate, checks, metrics),
		Tickets:            handlers.NewTicketsHandler(sess, cfg.View.DefaultPageSize),
		Users:              handlers.NewUsersHandler(sess),
		IdentityMiddleware: auth.NewIdentityMiddleware(gate),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if _, err := gate.Resolve(gctx); err != nil {
			logger.Error("no identity available; user routes will report not ready", zap.Error(err))
			return nil
		}
		if err := sess.Start(gctx); err != nil {
			if gctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("start session: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("store", cfg.Store.Backend))
		return app.Listen(cfg.App.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger, checks map[string]handlers.Pinger) (repository.DocumentRepository, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Postgres.RunMigrations {
			if err := pg.Migrate(ctx, cfg.Postgres.MigrationsDir); err != nil {
				pg.Close()
				return nil, nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		checks["postgres"] = pg
		return pg.Documents(), pg.Close, nil
	case config.BackendSQLite:
		db, err := persistence.NewSQLite(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		checks["sqlite"] = db
		return repository.NewSQLiteDocumentRepository(db.DB), db.Close, nil
	default:
		logger.Warn("using in-memory document store; data is lost on exit")
		return repository.NewMemoryDocumentRepository(), func() {}, nil
	}
}

func newDispatcher(ctx context.Context, cfg *config.Config, logger *zap.Logger, checks map[string]handlers.Pinger) (events.Dispatcher, func()) {
	if !cfg.Redis.Enabled {
		return events.NewInMemoryDispatcher(), func() {}
	}
	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	checks["redis"] = redis
	return redis.ChangeFeed(cfg.Redis.ChannelPrefix), redis.Close
}
