package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/console/internal/app"
	"github.com/odyssey-erp/console/internal/events"
	"github.com/odyssey-erp/console/internal/observability"
	"github.com/odyssey-erp/console/internal/platform/cache"
	"github.com/odyssey-erp/console/internal/platform/db"
	"github.com/odyssey-erp/console/internal/platform/migrate"
	"github.com/odyssey-erp/console/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	policy, err := app.LoadPolicy(cfg.PolicyFile, cfg.Currency)
	if err != nil {
		logger.Error("load policy", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	metrics.SetVersion(cfg.AppVersion)
	infra := app.Infra{Metrics: metrics}

	if !cfg.UsesMemory() {
		if err := checkSchema(cfg.PGDSN, logger); err != nil {
			logger.Error("check schema", slog.Any("error", err))
			os.Exit(1)
		}
		pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		infra.Pool = pool
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("redis unavailable, dashboard cache disabled", slog.Any("error", err))
	} else {
		infra.Redis = redisClient
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	if cfg.AMQPURL != "" {
		broker, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			logger.Warn("amqp unavailable, events stay local", slog.Any("error", err))
		} else {
			infra.Broker = broker
			defer func() {
				if err := broker.Close(); err != nil {
					logger.Warn("amqp close", slog.Any("error", err))
				}
			}()
		}
	}

	services := app.BuildServices(cfg, policy, infra, logger)
	if infra.Redis != nil {
		listenForInvalidation(ctx, infra.Redis, logger)
	}

	var jobHandler *jobs.Handler
	if infra.Redis != nil {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:     logger,
		Config:     cfg,
		Services:   services,
		JobHandler: jobHandler,
		Metrics:    metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("backend", cfg.DataBackend),
			slog.String("budget_usage_formula", string(policy.Dashboard.BudgetFormula)),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// checkSchema refuses to serve against a dirty or outdated schema.
func checkSchema(dsn string, logger *slog.Logger) error {
	m, err := migrate.New(dsn)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Warn("close migrator", slog.Any("error", err))
		}
	}()
	status, err := m.Status()
	if err != nil {
		return err
	}
	if status.Dirty {
		return errors.New("schema is dirty, run opsctl migrate")
	}
	if status.Pending {
		logger.Warn("schema migrations pending", slog.Uint64("current", uint64(status.CurrentVersion)), slog.Uint64("latest", uint64(status.LatestVersion)))
	}
	return nil
}

// listenForInvalidation logs cache bumps made by any console instance.
func listenForInvalidation(ctx context.Context, client *redis.Client, logger *slog.Logger) {
	versioned := cache.NewVersioned(client, app.DashboardCacheNamespace, 0)
	err := versioned.ListenForInvalidation(ctx, func(version int64) {
		logger.Debug("dashboard cache invalidated", slog.Int64("version", version))
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}
}
