// Command dialectic-worker runs the dialectic job-processing worker: it
// claims execute and render jobs from PostgreSQL and drives them to their
// terminal states.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dialecticlabs/dialectic-worker/config"
	"github.com/dialecticlabs/dialectic-worker/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}

	logger := bootstrap.InitLogger(cfg.IsDev)
	if err := run(ctx, logger, &cfg); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) error {
	logger.InfoContext(ctx, "starting dialectic worker",
		"db_host", cfg.Postgres.Host,
		"db_name", cfg.Postgres.Name,
		"concurrency", cfg.Worker.Concurrency,
		"max_continuation_depth", cfg.Worker.MaxContinuationDepth)

	db, err := bootstrap.ConnectDB(cfg.Postgres)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}()

	redisClient, err := bootstrap.ConnectRedis(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	} else {
		logger.InfoContext(ctx, "redis notifier disabled, lifecycle events will be dropped")
	}

	metrics, closeMetrics, err := bootstrap.NewMetrics(cfg.Observability.Metrics, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeMetrics(); cerr != nil {
			logger.ErrorContext(ctx, "close metrics failed", "error", cerr)
		}
	}()

	deps := &bootstrap.ServiceDeps{
		Config:      cfg,
		DB:          db,
		RedisClient: redisClient,
		Metrics:     metrics,
		Logger:      logger,
	}
	dispatcher, err := bootstrap.BuildDispatcher(deps)
	if err != nil {
		return err
	}
	reaper, err := bootstrap.BuildReaper(deps)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return dispatcher.Run(gctx) })
	g.Go(func() error { return reaper.Run(gctx) })
	err = g.Wait()
	logger.InfoContext(ctx, "dialectic worker stopped")
	return err
}
