// Package syncer runs broker account synchronizations from a durable job table.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trading-journal-go/internal/config"
	"trading-journal-go/internal/models"

	"gorm.io/gorm"
)

const (
	startedMessage     = "Synchronization started"
	interruptedMessage = "synchronization was interrupted"
)

func successMessage(n int) string {
	return fmt.Sprintf("Successfully synchronized %d trades", n)
}

func failureMessage(err error) string {
	return "Synchronization failed: " + err.Error()
}

// Queue stores sync jobs next to their history rows so a restart never strands one.
type Queue struct {
	db          *gorm.DB
	delay       time.Duration
	lease       time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewQueue(db *gorm.DB, cfg *config.Sync) *Queue {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Queue{
		db:          db,
		delay:       cfg.Delay,
		lease:       cfg.StaleAfter,
		maxAttempts: maxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Enqueue records an in-progress history entry for account and schedules its job after the configured delay.
func (q *Queue) Enqueue(ctx context.Context, account *models.BrokerAccount) (*models.SyncHistory, error) {
	now := q.now()
	h := &models.SyncHistory{
		UserID:          account.UserID,
		BrokerAccountID: account.ID,
		AccountNumber:   account.AccountNumber,
		Timestamp:       now,
		Status:          models.SyncInProgress,
		Message:         startedMessage,
	}

	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(h).Error; err != nil {
			return fmt.Errorf("create sync history: %w", err)
		}
		job := &models.SyncJob{
			SyncHistoryID:   h.ID,
			BrokerAccountID: account.ID,
			UserID:          account.UserID,
			Status:          models.JobPending,
			AvailableAt:     now.Add(q.delay),
		}
		if err := tx.Create(job).Error; err != nil {
			return fmt.Errorf("create sync job: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Claim leases up to limit due jobs to the caller. A job is claimed by at most one caller.
func (q *Queue) Claim(ctx context.Context, limit int) ([]models.SyncJob, error) {
	now := q.now()
	leaseUntil := now.Add(q.lease)

	var claimed []models.SyncJob
	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var due []models.SyncJob
		if err := tx.Where("status = ? AND available_at <= ?", models.JobPending, now).
			Order("available_at").Limit(limit).Find(&due).Error; err != nil {
			return fmt.Errorf("find due jobs: %w", err)
		}

		for i := range due {
			job := due[i]
			res := tx.Model(&models.SyncJob{}).
				Where("id = ? AND status = ?", job.ID, models.JobPending).
				Updates(map[string]any{
					"status":       models.JobRunning,
					"attempts":     gorm.Expr("attempts + 1"),
					"locked_until": leaseUntil,
				})
			if res.Error != nil {
				return fmt.Errorf("claim job %s: %w", job.ID, res.Error)
			}
			if res.RowsAffected == 1 {
				job.Status = models.JobRunning
				job.Attempts++
				job.LockedUntil = &leaseUntil
				claimed = append(claimed, job)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Release hands a claimed job back without counting the attempt.
func (q *Queue) Release(ctx context.Context, job *models.SyncJob, after time.Duration) error {
	return q.db.WithContext(ctx).Model(&models.SyncJob{}).
		Where("id = ? AND status = ?", job.ID, models.JobRunning).
		Updates(map[string]any{
			"status":       models.JobPending,
			"attempts":     gorm.Expr("attempts - 1"),
			"locked_until": nil,
			"available_at": q.now().Add(after),
		}).Error
}

// Complete marks the account connected and the history successful in one transaction.
func (q *Queue) Complete(ctx context.Context, job *models.SyncJob, imported int) error {
	now := q.now()
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.BrokerAccount{}).Where("id = ?", job.BrokerAccountID).
			Updates(map[string]any{"status": models.AccountConnected, "last_sync": now}).Error; err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		if err := tx.Model(&models.SyncHistory{}).Where("id = ?", job.SyncHistoryID).
			Updates(map[string]any{
				"status":          models.SyncSuccess,
				"trades_imported": imported,
				"message":         successMessage(imported),
			}).Error; err != nil {
			return fmt.Errorf("update history: %w", err)
		}
		return finishJob(tx, job, models.JobDone, "")
	})
}

// Fail records cause on the history, flags the account, and closes the job.
func (q *Queue) Fail(ctx context.Context, job *models.SyncJob, cause error) error {
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return failJob(tx, job, cause)
	})
}

func failJob(tx *gorm.DB, job *models.SyncJob, cause error) error {
	if err := tx.Model(&models.BrokerAccount{}).Where("id = ?", job.BrokerAccountID).
		Update("status", models.AccountError).Error; err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if err := tx.Model(&models.SyncHistory{}).Where("id = ?", job.SyncHistoryID).
		Updates(map[string]any{
			"status":  models.SyncError,
			"message": failureMessage(cause),
		}).Error; err != nil {
		return fmt.Errorf("update history: %w", err)
	}
	return finishJob(tx, job, models.JobFailed, cause.Error())
}

func finishJob(tx *gorm.DB, job *models.SyncJob, status models.JobStatus, lastError string) error {
	if err := tx.Model(&models.SyncJob{}).Where("id = ?", job.ID).
		Updates(map[string]any{
			"status":       status,
			"locked_until": nil,
			"last_error":   lastError,
		}).Error; err != nil {
		return fmt.Errorf("finish job %s: %w", job.ID, err)
	}
	job.Status = status
	job.LockedUntil = nil
	job.LastError = lastError
	return nil
}

// Recover returns running jobs whose lease expired to the queue, or fails them
// once they have used every attempt. It returns how many were requeued and failed.
func (q *Queue) Recover(ctx context.Context) (requeued, failed int, err error) {
	now := q.now()
	err = q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var expired []models.SyncJob
		if err := tx.Where("status = ? AND locked_until < ?", models.JobRunning, now).Find(&expired).Error; err != nil {
			return fmt.Errorf("find expired jobs: %w", err)
		}

		for i := range expired {
			job := &expired[i]
			if job.Attempts >= q.maxAttempts {
				if err := failJob(tx, job, errors.New(interruptedMessage)); err != nil {
					return err
				}
				failed++
				continue
			}
			if err := tx.Model(&models.SyncJob{}).Where("id = ?", job.ID).
				Updates(map[string]any{
					"status":       models.JobPending,
					"locked_until": nil,
					"available_at": now,
				}).Error; err != nil {
				return fmt.Errorf("requeue job %s: %w", job.ID, err)
			}
			requeued++
		}

		// History rows left in progress with no live job behind them.
		live := tx.Model(&models.SyncJob{}).Select("sync_history_id").
			Where("status IN ?", []models.JobStatus{models.JobPending, models.JobRunning})
		res := tx.Model(&models.SyncHistory{}).
			Where("status = ? AND timestamp < ? AND id NOT IN (?)", models.SyncInProgress, now.Add(-q.lease), live).
			Updates(map[string]any{
				"status":  models.SyncError,
				"message": failureMessage(errors.New(interruptedMessage)),
			})
		if res.Error != nil {
			return fmt.Errorf("fail stranded history: %w", res.Error)
		}
		failed += int(res.RowsAffected)
		return nil
	})
	return requeued, failed, err
}

// EnqueueAutoSync queues a sync for every auto-sync account without one pending or running.
func (q *Queue) EnqueueAutoSync(ctx context.Context) (int, error) {
	busy := q.db.Model(&models.SyncJob{}).Select("broker_account_id").
		Where("status IN ?", []models.JobStatus{models.JobPending, models.JobRunning})

	var accounts []models.BrokerAccount
	if err := q.db.WithContext(ctx).Where("auto_sync = ? AND id NOT IN (?)", true, busy).Find(&accounts).Error; err != nil {
		return 0, fmt.Errorf("find auto-sync accounts: %w", err)
	}

	for i := range accounts {
		if _, err := q.Enqueue(ctx, &accounts[i]); err != nil {
			return i, err
		}
	}
	return len(accounts), nil
}

func (q *Queue) account(ctx context.Context, id string) (*models.BrokerAccount, error) {
	var account models.BrokerAccount
	if err := q.db.WithContext(ctx).Where("id = ?", id).Take(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}
