package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"trading-journal-go/internal/api"
	"trading-journal-go/internal/auth"
	"trading-journal-go/internal/config"
	"trading-journal-go/internal/database"
	"trading-journal-go/internal/journal"
	"trading-journal-go/internal/lock"
	"trading-journal-go/internal/logger"
	"trading-journal-go/internal/syncer"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.", zap.String("type", cfg.Database.Type))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	accountLock, err := lock.New(ctx, &cfg.Lock)
	if err != nil {
		log.Fatal("Failed to create sync lock", zap.Error(err))
	}
	defer accountLock.Close()
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	queue := syncer.NewQueue(db, &cfg.Sync)
	requeued, failed, err := queue.Recover(ctx)
	if err != nil {
		log.Fatal("Failed to recover interrupted synchronizations", zap.Error(err))
	}
	if requeued+failed > 0 {
		log.Info("Recovered interrupted synchronizations", zap.Int("requeued", requeued), zap.Int("failed", failed))
	}

	worker := syncer.NewWorker(log, queue, syncer.NewSimulatedImporter(), accountLock, &cfg.Sync, cfg.Lock.TTL)
	scheduler := syncer.NewScheduler(log)
	if err := syncer.Schedule(scheduler, log, queue, &cfg.Sync); err != nil {
		log.Fatal("Failed to schedule sync jobs", zap.Error(err))
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpire)
	router := api.NewRouter(log, api.Deps{
		Auth:           auth.NewService(log, db, tokens),
		Trades:         journal.NewTradeService(log, db),
		MissedTrades:   journal.NewMissedTradeService(log, db),
		BrokerAccounts: journal.NewBrokerAccountService(log, db, queue),
		TokenTTL:       cfg.Auth.JWTExpire,
		CORSOrigins:    cfg.Server.CORSOrigins,
	})
	server := api.NewServer(&cfg.Server, router, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()
	scheduler.Start()

	select {
	case err := <-server.Start():
		log.Error("API server stopped unexpectedly", zap.Error(err))
		cancel()
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop API server", zap.Error(err))
	}
	scheduler.Stop()
	wg.Wait()

	log.Info("Journal server has been shut down.")
}
