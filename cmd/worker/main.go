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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/finstat/internal/accounting"
	"github.com/odyssey-erp/finstat/internal/accounting/reports"
	"github.com/odyssey-erp/finstat/internal/analytics"
	"github.com/odyssey-erp/finstat/internal/app"
	"github.com/odyssey-erp/finstat/internal/ar"
	jobmetrics "github.com/odyssey-erp/finstat/internal/jobs"
	"github.com/odyssey-erp/finstat/internal/observability"
	"github.com/odyssey-erp/finstat/internal/platform/cache"
	"github.com/odyssey-erp/finstat/internal/platform/db"
	"github.com/odyssey-erp/finstat/jobs"
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
	slog.SetDefault(logger)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	opsMetrics := observability.NewMetrics()
	if err := analytics.SetupCacheMetrics(opsMetrics.Registerer()); err != nil {
		logger.Error("register cache metrics", slog.Any("error", err))
		os.Exit(1)
	}
	metrics := jobmetrics.NewMetrics(opsMetrics.Registerer())

	ledgerRepo := accounting.NewRepository(pool)
	invoiceRepo := ar.NewRepository(pool)
	reportService := reports.NewService(ledgerRepo, invoiceRepo, logger)
	reportCache := analytics.NewCache(redisClient, cfg.LedgerTenant, cfg.ReportCacheTTL)
	analyticsService := analytics.NewService(cfg.LedgerTenant, reportService, invoiceRepo, reportCache, logger)

	if err := reportCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}

	warmupJob := jobs.NewReportsWarmupJob(analyticsService, logger, metrics)
	integrityJob := jobs.NewGLIntegrityJob(reportService, cfg.LedgerTenant, logger, metrics)

	warmupTask, err := jobs.NewReportsWarmupTask(jobs.ReportsWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	integrityTask, err := jobs.NewGLIntegrityTask(jobs.GLIntegrityPayload{})
	if err != nil {
		logger.Error("build integrity task", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Concurrency: cfg.WorkerConcurrency,
		Logger:      logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReportsWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskGLIntegrity, Handler: integrityJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.IntegrityCron, Task: integrityTask, Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	inspector := asynq.NewInspector(redisOpts)
	defer inspector.Close()

	client, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer client.Close()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	opsMetrics.Mount(router)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Route("/jobs", jobs.NewHandler(inspector, client, logger).MountRoutes)

	server := &http.Server{
		Addr:              cfg.OpsAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("starting ops server", slog.String("addr", cfg.OpsAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server", slog.Any("error", err))
			stop()
		}
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
