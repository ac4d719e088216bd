package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"outreach_backend/internal/events"
	"outreach_backend/internal/leads"
	leadrepo "outreach_backend/internal/leads/repository"
	"outreach_backend/internal/scheduler"
	"outreach_backend/platform/config"
	"outreach_backend/platform/db"
	"outreach_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting follow-up worker", "env", cfg.Env, "queue", cfg.FollowUpQueue)

	if cfg.RedisURL == "" {
		panic("REDIS_URL is required for the follow-up worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := initStore(ctx, cfg, log)
	defer closeStore()

	eventBus := events.NewInMemoryBus(log)

	leadsModule, err := leads.NewModule(store, cfg, eventBus, log)
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}

	worker, err := scheduler.NewWorker(cfg, leadsModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize follow-up worker", "error", err)
		panic("failed to initialize follow-up worker: " + err.Error())
	}

	worker.Run(ctx)
}

func initStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (leadrepo.Store, func()) {
	switch cfg.StoreBackend {
	case "redis":
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("invalid REDIS_URL", "error", err)
			panic("invalid REDIS_URL: " + err.Error())
		}
		client := redis.NewClient(opt)
		return leadrepo.NewRedisStore(client), func() { _ = client.Close() }

	default:
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
		return leadrepo.NewPostgresStore(pool, cfg.StoreConditionalWrites), pool.Close
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
