package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/testboard/engine/internal/api"
	"github.com/testboard/engine/internal/queue/tasks"
	"github.com/testboard/engine/internal/realtime"
	"github.com/testboard/engine/internal/repository"
	"github.com/testboard/engine/internal/services"
	"github.com/testboard/engine/pkg/config"
	"github.com/testboard/engine/pkg/database"
	"github.com/testboard/engine/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	// Initialize logger
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("Starting testboard engine",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL, database.Options{Verbose: cfg.IsDev()})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Initialize repositories
	projectRepo := repository.NewProjectRepository(db)
	featureRepo := repository.NewFeatureRepository(db)
	caseRepo := repository.NewTestCaseRepository(db)

	hub := realtime.NewHub()
	notifier := services.NewHubNotifier(hub, projectRepo, featureRepo, caseRepo)

	// Background reports are optional
	var queue tasks.Enqueuer
	if cfg.HasRedis() {
		client := asynq.NewClient(cfg.AsynqRedis())
		defer client.Close()
		queue = client
	} else {
		log.Warn("REDIS_ADDR not set, background reports disabled")
	}

	router := api.NewRouter(ctx, api.Dependencies{
		Projects:       services.NewProjectService(db, projectRepo, featureRepo, caseRepo, notifier),
		Features:       services.NewFeatureService(db, projectRepo, featureRepo, caseRepo, notifier),
		TestCases:      services.NewTestCaseService(featureRepo, caseRepo, notifier),
		Imports:        services.NewImportService(db, projectRepo, featureRepo, caseRepo, notifier),
		Stats:          services.NewStatsService(projectRepo, featureRepo, caseRepo),
		Hub:            hub,
		Initial:        notifier.Initial,
		Reports:        queue,
		Ready:          func(ctx context.Context) error { return database.Ping(ctx, db) },
		CORSOrigin:     cfg.CORSOrigin,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	// Create HTTP server. No WriteTimeout: realtime streams are long-lived
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	// Shutdown does not touch hijacked connections; closing the hub ends the
	// realtime streams.
	srv.RegisterOnShutdown(hub.Shutdown)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}
