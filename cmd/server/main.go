package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"tle_zone_studio/internal/api"
	"tle_zone_studio/internal/app/authoring"
	"tle_zone_studio/internal/app/service"
	"tle_zone_studio/internal/app/store"
	"tle_zone_studio/internal/app/worker"
	"tle_zone_studio/internal/common/security"
	"tle_zone_studio/internal/domain/model"
	"tle_zone_studio/internal/domain/repository"
	"tle_zone_studio/internal/platform/config"
	"tle_zone_studio/internal/platform/database"
	"tle_zone_studio/internal/platform/logger"
	"tle_zone_studio/internal/platform/markdown"
	"tle_zone_studio/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	config.Load()
	cfg := config.AppConfig

	// 2. Initialize Logger
	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatalf("Could not initialise logger: %v", err)
	}
	defer logger.Sync()
	logger.Log.Info("configuration loaded")

	// 3. Initialize draft tokens
	security.InitDraftTokens(cfg.DraftTokenKey, cfg.DraftTokenExp)

	// 4. Initialize Database
	if err := database.Connect(); err != nil {
		logger.Log.Fatalw("database unavailable", "error", err)
	}
	defer database.Close()
	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx); err != nil {
		migrateCancel()
		logger.Log.Fatalw("schema migration failed", "error", err)
	}
	migrateCancel()

	// 5. Initialize Redis
	if err := queue.ConnectRedis(); err != nil {
		logger.Log.Fatalw("redis unavailable", "error", err)
	}
	defer queue.CloseRedis()

	// 6. Initialize Repositories and Services
	problemRepo := repository.NewPgProblemRepository(database.DB)
	transactor := repository.NewTransactor(database.DB)
	problemCache := repository.NewRedisProblemCache(queue.RDB, cfg.ProblemCacheTTL)
	problemService := service.NewProblemService(problemRepo, transactor, problemCache, cfg)
	renderer := markdown.NewRenderer()

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	// 7. Choose the submission path
	var submitter store.Submitter = problemService
	if cfg.SubmissionMode == config.SubmissionModeQueue {
		submitter = service.NewQueuedSubmitter(queue.RDB, cfg.SubmissionQueueName, cfg.SubmissionTimeout)
		lockTTL := time.Duration(cfg.SubmissionLockTTLSeconds) * time.Second
		submissionWorker := worker.NewSubmissionWorker(queue.RDB, problemService, cfg.SubmissionQueueName, lockTTL)
		go submissionWorker.Start(workerCtx)
	}
	logger.Log.Infow("submission path selected", "mode", cfg.SubmissionMode)

	// 8. Authoring sessions and their reaper
	meta := problemService.Meta()
	sessions := authoring.NewSessionManager(submitter, renderer, authoring.Props{
		Theme:      cfg.DefaultTheme,
		Height:     cfg.EditorHeight,
		Levels:     meta.Levels,
		Categories: cfg.ProblemCategories,
		Languages:  model.SupportedLanguages(),
	}, cfg.DraftIdleTimeout)
	reaper, err := sessions.StartReaper(cfg.DraftReapSchedule)
	if err != nil {
		logger.Log.Fatalw("could not start session reaper", "error", err)
	}

	// 9. Initialize Router & HTTP Server
	router := api.NewRouter(problemService, renderer, sessions)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Unmounting sessions ends their event streams; pending submissions still need the worker.
	drained := make(chan struct{})
	server.RegisterOnShutdown(func() {
		sessions.Drain()
		close(drained)
	})

	// 10. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Log.Infow("server starting", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalw("could not listen", "port", cfg.APIPort, "error", err)
		}
	}()

	<-stop // Wait for interrupt signal

	logger.Log.Info("shutting down server")
	<-reaper.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("server shutdown failed", "error", err)
	}
	<-drained
	workerCancel() // Signal worker to stop

	logger.Log.Info("server and worker stopped gracefully")
}
