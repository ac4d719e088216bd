package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"outreach_backend/internal/enrichment"
	"outreach_backend/internal/events"
	apphttp "outreach_backend/internal/http"
	"outreach_backend/internal/http/router"
	"outreach_backend/internal/inbound"
	"outreach_backend/internal/leads"
	leadrepo "outreach_backend/internal/leads/repository"
	"outreach_backend/internal/outreach"
	"outreach_backend/internal/prospect"
	"outreach_backend/internal/scheduler"
	"outreach_backend/platform/config"
	"outreach_backend/platform/db"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "store", cfg.StoreBackend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	store, health, closeStore := initStore(ctx, cfg, log)
	defer closeStore()

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	followUpClient, closeFollowUp := initFollowUpScheduler(cfg, log)
	if closeFollowUp != nil {
		defer closeFollowUp()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule, err := leads.NewModule(store, cfg, eventBus, log)
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	enrichmentModule := enrichment.NewModule(leadsModule.Service(), cfg, val, log)
	prospectModule := prospect.NewModule(cfg, log)

	outreachModule, err := outreach.NewModule(ctx, cfg, cfg, leadsModule.Service(), eventBus, log)
	if err != nil {
		log.Error("failed to initialize outreach module", "error", err)
		panic("failed to initialize outreach module: " + err.Error())
	}

	inboundModule, err := inbound.NewModule(leadsModule.Service(), cfg, log)
	if err != nil {
		log.Error("failed to initialize inbound module", "error", err)
		panic("failed to initialize inbound module: " + err.Error())
	}

	// Status writes that leave a follow-up timer set get a reminder enqueued.
	if followUpClient != nil {
		scheduler.NewDispatcher(eventBus, followUpClient, log)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: health,
		Modules: []apphttp.Module{
			leadsModule,
			enrichmentModule,
			outreachModule,
			prospectModule,
			inboundModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: engine}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

// initStore builds the lead store for the configured backend and returns
// it together with a health checker and a close function.
func initStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (leadrepo.Store, apphttp.HealthChecker, func()) {
	switch cfg.StoreBackend {
	case "redis":
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("invalid REDIS_URL", "error", err)
			panic("invalid REDIS_URL: " + err.Error())
		}
		client := redis.NewClient(opt)
		store := leadrepo.NewRedisStore(client)
		log.Info("redis lead store initialized")
		return store, store, func() { _ = client.Close() }

	default: // postgres, enforced by config.Load
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, cfg)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")

		var pool *pgxpool.Pool
		if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
			p, err := db.NewPool(ctx, cfg)
			if err != nil {
				return err
			}
			pool = p
			return nil
		}); err != nil {
			log.Error("failed to connect to database", "error", err)
			panic("failed to connect to database: " + err.Error())
		}
		log.Info("database connection established")

		store := leadrepo.NewPostgresStore(pool, cfg.StoreConditionalWrites)
		return store, db.NewPoolAdapter(pool), pool.Close
	}
}

func initFollowUpScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.FollowUpScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; follow-up scheduling disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize follow-up scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
