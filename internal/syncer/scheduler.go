package syncer

import (
	"context"

	"trading-journal-go/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a periodic maintenance task.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler runs maintenance jobs on cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(),
		logger: logger.Named("scheduler"),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// AddJob registers job on schedule, e.g. "@every 1m" or "0 * * * *".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.logger.Debug("Running job", zap.String("job", job.Name()))
		if err := job.Run(s.ctx); err != nil {
			s.logger.Error("Job failed", zap.String("job", job.Name()), zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	s.logger.Info("Job registered", zap.String("job", job.Name()), zap.String("schedule", schedule))
	return nil
}

// RecoveryJob requeues jobs whose worker died and fails history rows nothing will finish.
type RecoveryJob struct {
	queue  *Queue
	logger *zap.Logger
}

func NewRecoveryJob(logger *zap.Logger, queue *Queue) *RecoveryJob {
	return &RecoveryJob{queue: queue, logger: logger}
}

func (j *RecoveryJob) Name() string { return "sync-recovery" }

func (j *RecoveryJob) Run(ctx context.Context) error {
	requeued, failed, err := j.queue.Recover(ctx)
	if err != nil {
		return err
	}
	if requeued > 0 || failed > 0 {
		j.logger.Info("Recovered stale syncs", zap.Int("requeued", requeued), zap.Int("failed", failed))
	}
	return nil
}

// AutoSyncJob queues a sync for every account with autoSync enabled.
type AutoSyncJob struct {
	queue  *Queue
	logger *zap.Logger
}

func NewAutoSyncJob(logger *zap.Logger, queue *Queue) *AutoSyncJob {
	return &AutoSyncJob{queue: queue, logger: logger}
}

func (j *AutoSyncJob) Name() string { return "auto-sync" }

func (j *AutoSyncJob) Run(ctx context.Context) error {
	n, err := j.queue.EnqueueAutoSync(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		j.logger.Info("Queued automatic syncs", zap.Int("accounts", n))
	}
	return nil
}

// Schedule registers the recovery and auto-sync jobs from cfg. An empty spec disables that job.
func Schedule(s *Scheduler, logger *zap.Logger, queue *Queue, cfg *config.Sync) error {
	if cfg.RecoverySpec != "" {
		if err := s.AddJob(cfg.RecoverySpec, NewRecoveryJob(logger, queue)); err != nil {
			return err
		}
	}
	if cfg.AutoSyncSpec != "" {
		if err := s.AddJob(cfg.AutoSyncSpec, NewAutoSyncJob(logger, queue)); err != nil {
			return err
		}
	}
	return nil
}
