// Command worker runs extra submission workers outside the API process.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	"tle_zone_studio/internal/app/service"
	"tle_zone_studio/internal/app/worker"
	"tle_zone_studio/internal/domain/repository"
	"tle_zone_studio/internal/platform/config"
	"tle_zone_studio/internal/platform/database"
	"tle_zone_studio/internal/platform/logger"
	"tle_zone_studio/internal/platform/queue"
)

func main() {
	config.Load()
	cfg := config.AppConfig

	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatalf("Could not initialise logger: %v", err)
	}
	defer logger.Sync()

	if err := database.Connect(); err != nil {
		logger.Log.Fatalw("database unavailable", "error", err)
	}
	defer database.Close()

	if err := queue.ConnectRedis(); err != nil {
		logger.Log.Fatalw("redis unavailable", "error", err)
	}
	defer queue.CloseRedis()

	problemService := service.NewProblemService(
		repository.NewPgProblemRepository(database.DB),
		repository.NewTransactor(database.DB),
		repository.NewRedisProblemCache(queue.RDB, cfg.ProblemCacheTTL),
		cfg,
	)
	lockTTL := time.Duration(cfg.SubmissionLockTTLSeconds) * time.Second
	submissionWorker := worker.NewSubmissionWorker(queue.RDB, problemService, cfg.SubmissionQueueName, lockTTL)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	// Graceful shutdown on SIGINT or SIGTERM
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	wg.Add(1)
	go func() {
		defer wg.Done()
		submissionWorker.Start(ctx)
	}()

	<-sigs
	logger.Log.Info("shutdown signal received")
	cancel()

	// Let the job in hand finish.
	wg.Wait()
	logger.Log.Info("worker exited cleanly")
}
