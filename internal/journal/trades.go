// Package journal implements the trade, missed-trade and broker-account resources.
// Every operation takes the authenticated caller's id explicitly.
package journal

import (
	"context"
	"fmt"
	"net/url"

	"trading-journal-go/internal/models"
	"trading-journal-go/internal/stats"
	"trading-journal-go/internal/validate"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tradeResource = "Trade"

type TradeService struct {
	log *zap.Logger
	db  *gorm.DB
}

func NewTradeService(log *zap.Logger, db *gorm.DB) *TradeService {
	return &TradeService{log: log.Named("trades"), db: db}
}

func (s *TradeService) List(ctx context.Context, userID string, values url.Values) (*Page[models.Trade], error) {
	return list[models.Trade](ctx, s.db, TradeSchema, userID, values)
}

func (s *TradeService) Get(ctx context.Context, userID, id string) (*models.Trade, error) {
	return loadOwned[models.Trade](ctx, s.db, tradeResource, ActionAccess, id, userID)
}

// Create stores a new trade owned by userID. Pips are derived from the prices when not given.
func (s *TradeService) Create(ctx context.Context, userID string, in validate.TradeInput) (*models.Trade, error) {
	if err := validate.Struct(&in); err != nil {
		return nil, Invalid(err)
	}
	if err := s.checkAccount(ctx, userID, in.BrokerAccount); err != nil {
		return nil, err
	}

	t := &models.Trade{UserID: userID}
	in.Apply(t)
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, fmt.Errorf("create trade: %w", err)
	}
	s.log.Debug("Trade created", zap.String("id", t.ID), zap.String("symbol", t.Symbol))
	return t, nil
}

// Update merges patch over the stored trade and re-validates the result.
func (s *TradeService) Update(ctx context.Context, userID, id string, patch []byte) (*models.Trade, error) {
	t, err := loadOwned[models.Trade](ctx, s.db, tradeResource, ActionUpdate, id, userID)
	if err != nil {
		return nil, err
	}

	in := validate.TradeInputFrom(t)
	if err := decodePatch(patch, &in); err != nil {
		return nil, err
	}
	if err := validate.Struct(&in); err != nil {
		return nil, Invalid(err)
	}
	if err := s.checkAccount(ctx, userID, in.BrokerAccount); err != nil {
		return nil, err
	}

	in.Apply(t)
	if err := s.db.WithContext(ctx).Save(t).Error; err != nil {
		return nil, fmt.Errorf("update trade %s: %w", id, err)
	}
	return t, nil
}

func (s *TradeService) Delete(ctx context.Context, userID, id string) error {
	t, err := loadOwned[models.Trade](ctx, s.db, tradeResource, ActionDelete, id, userID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(t).Error; err != nil {
		return fmt.Errorf("delete trade %s: %w", id, err)
	}
	return nil
}

func (s *TradeService) Stats(ctx context.Context, userID string) (stats.TradeStats, error) {
	trades, err := s.all(ctx, userID)
	if err != nil {
		return stats.TradeStats{}, err
	}
	return stats.Trades(trades), nil
}

// Breakdown groups the caller's trades with key.
func (s *TradeService) Breakdown(ctx context.Context, userID string, key stats.KeyFunc) ([]stats.Group, error) {
	trades, err := s.all(ctx, userID)
	if err != nil {
		return nil, err
	}
	return stats.Breakdown(trades, key), nil
}

func (s *TradeService) all(ctx context.Context, userID string) ([]models.Trade, error) {
	var trades []models.Trade
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	return trades, nil
}

// checkAccount rejects links to broker accounts the caller does not own.
func (s *TradeService) checkAccount(ctx context.Context, userID string, accountID *string) error {
	if accountID == nil || *accountID == "" {
		return nil
	}
	_, err := loadOwned[models.BrokerAccount](ctx, s.db, brokerAccountResource, ActionAccess, *accountID, userID)
	return err
}
