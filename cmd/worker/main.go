package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/feedlot-ap/feedlot-ap/internal/app"
	"github.com/feedlot-ap/feedlot-ap/internal/observability"
	"github.com/feedlot-ap/feedlot-ap/internal/pipeline"
	"github.com/feedlot-ap/feedlot-ap/internal/platform/db"
	"github.com/feedlot-ap/feedlot-ap/internal/refdata"
	"github.com/feedlot-ap/feedlot-ap/internal/shared"
	"github.com/feedlot-ap/feedlot-ap/internal/vendor"
	"github.com/feedlot-ap/feedlot-ap/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	bundle, err := refdata.Load(cfg.RefDataPath)
	if err != nil {
		logger.Error("load reference data", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	metrics := observability.NewMetrics()
	vendorStore := vendor.NewPGStore(dbpool)
	pipelineStore := pipeline.NewPGStore(dbpool)

	service, err := pipeline.NewService(logger, bundle, vendorStore, vendorStore, metrics, cfg.PipelineWorkers)
	if err != nil {
		logger.Error("build pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	idempotency := shared.NewIdempotencyStore(dbpool)
	processor := jobs.NewPackageProcessor(logger, service, pipelineStore, pipelineStore, idempotency)
	cleanup := jobs.NewIdempotencyCleanupJob(logger, idempotency, jobs.DefaultIdempotencyRetention)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.PipelineWorkers,
		Handlers: []jobs.TaskHandler{
			{Type: pipeline.TaskTypePackageProcess, Handler: processor.Handle},
			{Type: jobs.TaskTypeIdempotencyCleanup, Handler: cleanup.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 2 * * *", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("queue", jobs.QueueDefault))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
