package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trading-journal-go/internal/config"
	"trading-journal-go/internal/lock"
	"trading-journal-go/internal/metrics"
	"trading-journal-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Worker drains the sync queue on a fixed interval.
type Worker struct {
	logger   *zap.Logger
	queue    *Queue
	importer Importer
	lock     lock.DistributedLock
	interval time.Duration
	batch    int
	lockTTL  time.Duration
}

func NewWorker(logger *zap.Logger, queue *Queue, importer Importer, l lock.DistributedLock, cfg *config.Sync, lockTTL time.Duration) *Worker {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 10
	}
	return &Worker{
		logger:   logger.Named("sync-worker"),
		queue:    queue,
		importer: importer,
		lock:     l,
		interval: interval,
		batch:    batch,
		lockTTL:  lockTTL,
	}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("Starting sync worker", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping sync worker...")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("Sync poll failed", zap.Error(err))
			}
		}
	}
}

// RunOnce claims the due jobs and processes them in order. It returns how many were claimed.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	jobs, err := w.queue.Claim(ctx, w.batch)
	if err != nil {
		return 0, fmt.Errorf("claim jobs: %w", err)
	}
	for i := range jobs {
		if err := w.process(ctx, &jobs[i]); err != nil {
			w.logger.Error("Failed to record sync outcome", zap.String("job", jobs[i].ID), zap.Error(err))
		}
	}
	return len(jobs), nil
}

func (w *Worker) process(ctx context.Context, job *models.SyncJob) error {
	l := w.logger.With(zap.String("job", job.ID), zap.String("broker_account", job.BrokerAccountID))
	start := time.Now()

	ok, err := w.lock.TryLock(ctx, job.BrokerAccountID, w.lockTTL)
	if err != nil {
		return fmt.Errorf("lock account: %w", err)
	}
	if !ok {
		l.Debug("Account is syncing elsewhere, releasing job")
		return w.queue.Release(ctx, job, w.interval)
	}
	defer func() {
		if err := w.lock.Unlock(context.WithoutCancel(ctx), job.BrokerAccountID); err != nil {
			l.Warn("Failed to release account lock", zap.Error(err))
		}
	}()

	account, err := w.queue.account(ctx, job.BrokerAccountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l.Warn("Broker account no longer exists")
		return w.fail(ctx, l, job, errors.New("broker account not found"), start)
	}
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	l = l.With(zap.String("account_number", account.AccountNumber))
	l.Info("Synchronizing broker account")

	imported, err := w.importer.Import(ctx, account)
	if err != nil {
		return w.fail(ctx, l, job, err, start)
	}

	if err := w.queue.Complete(context.WithoutCancel(ctx), job, imported); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	metrics.RecordSyncJob(string(models.SyncSuccess), time.Since(start))
	l.Info("Sync completed", zap.Int("trades_imported", imported))
	return nil
}

func (w *Worker) fail(ctx context.Context, l *zap.Logger, job *models.SyncJob, cause error, start time.Time) error {
	l.Error("Sync failed", zap.Error(cause))
	if err := w.queue.Fail(context.WithoutCancel(ctx), job, cause); err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	metrics.RecordSyncJob(string(models.SyncError), time.Since(start))
	return nil
}
