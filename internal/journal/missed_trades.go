package journal

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"trading-journal-go/internal/models"
	"trading-journal-go/internal/stats"
	"trading-journal-go/internal/validate"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const missedTradeResource = "Missed trade"

type MissedTradeService struct {
	log *zap.Logger
	db  *gorm.DB
	now func() time.Time
}

func NewMissedTradeService(log *zap.Logger, db *gorm.DB) *MissedTradeService {
	return &MissedTradeService{log: log.Named("missed-trades"), db: db, now: time.Now}
}

func (s *MissedTradeService) List(ctx context.Context, userID string, values url.Values) (*Page[models.MissedTrade], error) {
	return list[models.MissedTrade](ctx, s.db, MissedTradeSchema, userID, values)
}

func (s *MissedTradeService) Get(ctx context.Context, userID, id string) (*models.MissedTrade, error) {
	return loadOwned[models.MissedTrade](ctx, s.db, missedTradeResource, ActionAccess, id, userID)
}

// Create stores a missed trade. The estimated profit is derived from the potential prices when not given.
func (s *MissedTradeService) Create(ctx context.Context, userID string, in validate.MissedTradeInput) (*models.MissedTrade, error) {
	if err := validate.Struct(&in); err != nil {
		return nil, Invalid(err)
	}

	m := &models.MissedTrade{UserID: userID}
	in.Apply(m, s.now())
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("create missed trade: %w", err)
	}
	s.log.Debug("Missed trade created", zap.String("id", m.ID), zap.String("reason", m.Reason))
	return m, nil
}

func (s *MissedTradeService) Update(ctx context.Context, userID, id string, patch []byte) (*models.MissedTrade, error) {
	m, err := loadOwned[models.MissedTrade](ctx, s.db, missedTradeResource, ActionUpdate, id, userID)
	if err != nil {
		return nil, err
	}

	in := validate.MissedTradeInputFrom(m)
	if err := decodePatch(patch, &in); err != nil {
		return nil, err
	}
	if err := validate.Struct(&in); err != nil {
		return nil, Invalid(err)
	}

	in.Apply(m, s.now())
	if err := s.db.WithContext(ctx).Save(m).Error; err != nil {
		return nil, fmt.Errorf("update missed trade %s: %w", id, err)
	}
	return m, nil
}

func (s *MissedTradeService) Delete(ctx context.Context, userID, id string) error {
	m, err := loadOwned[models.MissedTrade](ctx, s.db, missedTradeResource, ActionDelete, id, userID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(m).Error; err != nil {
		return fmt.Errorf("delete missed trade %s: %w", id, err)
	}
	return nil
}

func (s *MissedTradeService) Stats(ctx context.Context, userID string) (stats.MissedTradeStats, error) {
	var missed []models.MissedTrade
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&missed).Error; err != nil {
		return stats.MissedTradeStats{}, fmt.Errorf("load missed trades: %w", err)
	}
	return stats.MissedTrades(missed), nil
}
