package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ksalling/tradefly/internal/models"
	"github.com/ksalling/tradefly/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetStrategyByName(ctx context.Context, name string) (*models.Strategy, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var item models.Strategy
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetStrategyByTrigger(ctx context.Context, channel string) (*models.Strategy, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return nil, nil
	}
	var item models.Strategy
	err := s.db.WithContext(ctx).Where("trigger_channel = ?", channel).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SignalExists(ctx context.Context, key repository.SignalKey) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Signal{}).
		Where("strategy_id = ?", key.StrategyID).
		Where("symbol = ?", key.Symbol).
		Where("side = ?", key.Side).
		Where("trade_side = ?", key.TradeSide).
		Where("price = ?", key.Price).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) InsertSignal(ctx context.Context, item *models.Signal) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	err := s.db.WithContext(ctx).Create(item).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrDuplicateSignal
	}
	return err
}

func (s *Store) FindLatestOpenSignal(ctx context.Context, strategyID uint64, symbol, side string) (*models.Signal, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Signal
	err := s.db.WithContext(ctx).
		Where("strategy_id = ?", strategyID).
		Where("symbol = ?", symbol).
		Where("side = ?", side).
		Where("trade_side = ?", "OPEN").
		Order("id DESC").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListActiveSubscriptions(ctx context.Context, strategyID uint64) ([]models.Subscription, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Subscription
	err := s.db.WithContext(ctx).
		Preload("Credential").
		Preload("Credential.Exchange").
		Where("strategy_id = ?", strategyID).
		Where("status = ?", models.SubscriptionActive).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListUserTradesBySignal(ctx context.Context, signalID uint64) ([]models.UserTrade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.UserTrade
	err := s.db.WithContext(ctx).
		Where("signal_id = ?", signalID).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) InsertRelayMessage(ctx context.Context, item *models.RelayMessage) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) DeleteRelayMessagesBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if before.IsZero() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&models.RelayMessage{})
	return res.RowsAffected, res.Error
}
