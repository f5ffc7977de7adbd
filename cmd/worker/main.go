// Package main is the entry point for the retailpos background worker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"retailpos/internal/config"
	"retailpos/internal/infrastructure/storage/postgres"
	"retailpos/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting retailpos worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DB.DSN))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)
	worker := NewMaintenanceWorker(pool, postgres.NewIdempotencyStore(txm, cfg.Server.IdempotencyTTL), log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// MaintenanceWorker runs periodic housekeeping against the database.
type MaintenanceWorker struct {
	pool        *postgres.Pool
	idempotency *postgres.IdempotencyStore
	log         *logger.Logger

	cleanupInterval time.Duration
	statsInterval   time.Duration
}

// NewMaintenanceWorker creates a worker with hourly cleanup.
func NewMaintenanceWorker(pool *postgres.Pool, idempotency *postgres.IdempotencyStore, log *logger.Logger) *MaintenanceWorker {
	return &MaintenanceWorker{
		pool:            pool,
		idempotency:     idempotency,
		log:             log.WithComponent("worker"),
		cleanupInterval: time.Hour,
		statsInterval:   5 * time.Minute,
	}
}

// Run blocks until ctx is cancelled.
func (w *MaintenanceWorker) Run(ctx context.Context) {
	cleanupTicker := time.NewTicker(w.cleanupInterval)
	defer cleanupTicker.Stop()

	statsTicker := time.NewTicker(w.statsInterval)
	defer statsTicker.Stop()

	w.cleanupIdempotency(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-cleanupTicker.C:
			w.cleanupIdempotency(ctx)
		case <-statsTicker.C:
			postgres.LogPoolStats(ctx, w.pool)
		}
	}
}

func (w *MaintenanceWorker) cleanupIdempotency(ctx context.Context) {
	removed, err := w.idempotency.CleanupExpired(ctx)
	if err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
		return
	}
	if removed > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", removed)
	}
}
