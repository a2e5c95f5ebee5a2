package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/testboard/engine/internal/queue/tasks"
	"github.com/testboard/engine/internal/repository"
	"github.com/testboard/engine/internal/services"
	"github.com/testboard/engine/pkg/config"
	"github.com/testboard/engine/pkg/database"
	"github.com/testboard/engine/pkg/logger"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if !cfg.HasRedis() {
		log.Fatal("REDIS_ADDR is required for the worker")
	}

	rdb := redis.NewClient(cfg.RedisOptions())
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}

	redisOpt := cfg.AsynqRedis()
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.AsynqConcurrency,
		Queues:      tasks.Queues(),
		Logger:      log.Sugar(),
	})

	// Initialize DB and repositories for task handlers
	ctx := context.Background()
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL, database.Options{Verbose: cfg.IsDev()})
	if err != nil {
		logger.L().Fatal("failed to open database", zap.Error(err))
	}

	projectRepo := repository.NewProjectRepository(db)
	featureRepo := repository.NewFeatureRepository(db)
	caseRepo := repository.NewTestCaseRepository(db)

	// worker never mutates collections, so no realtime notifier
	caseSvc := services.NewTestCaseService(featureRepo, caseRepo, nil)
	statsSvc := services.NewStatsService(projectRepo, featureRepo, caseRepo)

	if err := os.MkdirAll(cfg.ReportsDir, 0o755); err != nil {
		logger.L().Fatal("failed to create reports dir", zap.Error(err))
	}

	mux := asynq.NewServeMux()
	tasks.Register(mux,
		tasks.NewReportTaskHandler(caseSvc, cfg.ReportsDir),
		tasks.NewDigestTaskHandler(statsSvc, tasks.NewRedisDigestStore(rdb, 7*24*time.Hour)),
	)

	var scheduler *asynq.Scheduler
	if cfg.DigestCron != "" {
		scheduler = asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: log.Sugar()})
		entryID, err := scheduler.Register(cfg.DigestCron, tasks.NewDigestTask())
		if err != nil {
			logger.L().Fatal("invalid DIGEST_CRON", zap.String("cron", cfg.DigestCron), zap.Error(err))
		}
		logger.L().Info("digest scheduled", zap.String("cron", cfg.DigestCron), zap.String("entry_id", entryID))
	}

	logger.L().Info("asynq worker starting", zap.Int("concurrency", cfg.AsynqConcurrency))
	if err := srv.Start(mux); err != nil {
		logger.L().Fatal("worker start failed", zap.Error(err))
	}
	if scheduler != nil {
		if err := scheduler.Start(); err != nil {
			logger.L().Fatal("scheduler start failed", zap.Error(err))
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.L().Info("shutdown signal received", zap.String("signal", sig.String()))

	if scheduler != nil {
		scheduler.Shutdown()
	}
	// Allow in-flight tasks to finish gracefully
	srv.Shutdown()
}
