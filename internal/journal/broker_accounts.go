package journal

import (
	"context"
	"fmt"

	"trading-journal-go/internal/models"
	"trading-journal-go/internal/validate"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const brokerAccountResource = "Broker account"

// SyncQueue schedules a synchronization and records its in-progress history entry.
type SyncQueue interface {
	Enqueue(ctx context.Context, account *models.BrokerAccount) (*models.SyncHistory, error)
}

// SyncStarted is the immediate answer to a sync request.
type SyncStarted struct {
	Message       string            `json:"message"`
	SyncHistoryID string            `json:"syncHistoryId"`
	Status        models.SyncStatus `json:"status"`
}

type BrokerAccountService struct {
	log   *zap.Logger
	db    *gorm.DB
	queue SyncQueue
}

func NewBrokerAccountService(log *zap.Logger, db *gorm.DB, queue SyncQueue) *BrokerAccountService {
	return &BrokerAccountService{log: log.Named("broker-accounts"), db: db, queue: queue}
}

// List returns every account of the caller, newest first.
func (s *BrokerAccountService) List(ctx context.Context, userID string) ([]models.BrokerAccount, error) {
	accounts := make([]models.BrokerAccount, 0)
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("load broker accounts: %w", err)
	}
	return accounts, nil
}

func (s *BrokerAccountService) Get(ctx context.Context, userID, id string) (*models.BrokerAccount, error) {
	return loadOwned[models.BrokerAccount](ctx, s.db, brokerAccountResource, ActionAccess, id, userID)
}

func (s *BrokerAccountService) Create(ctx context.Context, userID string, in validate.BrokerAccountInput) (*models.BrokerAccount, error) {
	if err := validate.Struct(&in); err != nil {
		return nil, Invalid(err)
	}

	b := &models.BrokerAccount{UserID: userID}
	in.Apply(b)
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return nil, fmt.Errorf("create broker account: %w", err)
	}
	s.log.Info("Broker account added", zap.String("id", b.ID), zap.String("account", b.AccountNumber))
	return b, nil
}

// Update merges patch over the stored account. An omitted password keeps the stored one.
func (s *BrokerAccountService) Update(ctx context.Context, userID, id string, patch []byte) (*models.BrokerAccount, error) {
	b, err := loadOwned[models.BrokerAccount](ctx, s.db, brokerAccountResource, ActionUpdate, id, userID)
	if err != nil {
		return nil, err
	}

	in := validate.BrokerAccountInputFrom(b)
	if err := decodePatch(patch, &in); err != nil {
		return nil, err
	}
	if err := validate.Struct(&in); err != nil {
		return nil, Invalid(err)
	}

	in.Apply(b)
	if err := s.db.WithContext(ctx).Save(b).Error; err != nil {
		return nil, fmt.Errorf("update broker account %s: %w", id, err)
	}
	return b, nil
}

// Delete removes the account only. Its trades and sync history are left in place.
func (s *BrokerAccountService) Delete(ctx context.Context, userID, id string) error {
	b, err := loadOwned[models.BrokerAccount](ctx, s.db, brokerAccountResource, ActionDelete, id, userID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(b).Error; err != nil {
		return fmt.Errorf("delete broker account %s: %w", id, err)
	}
	s.log.Info("Broker account removed", zap.String("id", b.ID), zap.String("account", b.AccountNumber))
	return nil
}

// Sync queues a synchronization and returns before it runs.
// Poll SyncHistory to observe the outcome.
func (s *BrokerAccountService) Sync(ctx context.Context, userID, id string) (*SyncStarted, error) {
	b, err := loadOwned[models.BrokerAccount](ctx, s.db, brokerAccountResource, ActionSync, id, userID)
	if err != nil {
		return nil, err
	}

	h, err := s.queue.Enqueue(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("enqueue sync for %s: %w", id, err)
	}
	return &SyncStarted{Message: h.Message, SyncHistoryID: h.ID, Status: h.Status}, nil
}

// SyncHistory returns the account's sync log, newest first.
func (s *BrokerAccountService) SyncHistory(ctx context.Context, userID, id string) ([]models.SyncHistory, error) {
	b, err := loadOwned[models.BrokerAccount](ctx, s.db, brokerAccountResource, ActionAccess, id, userID)
	if err != nil {
		return nil, err
	}

	history := make([]models.SyncHistory, 0)
	if err := s.db.WithContext(ctx).Where("broker_account_id = ?", b.ID).Order("timestamp desc").Find(&history).Error; err != nil {
		return nil, fmt.Errorf("load sync history for %s: %w", id, err)
	}
	return history, nil
}
