package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/ksalling/tradefly/internal/models"
	"github.com/ksalling/tradefly/internal/repository"
)

// stubRepo is an in-memory Repository for pipeline tests. It enforces the
// same dedup-tuple uniqueness the real store's index does.
type stubRepo struct {
	strategies []models.Strategy
	signals    []models.Signal
	subs       map[uint64][]models.Subscription
	trades     map[uint64][]models.UserTrade

	// skipExistsCheck makes SignalExists report false regardless of state,
	// simulating an alert that slips past the fast path and loses the
	// insert race.
	skipExistsCheck bool

	nextSignalID uint64
	listErr      error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		subs:   map[uint64][]models.Subscription{},
		trades: map[uint64][]models.UserTrade{},
	}
}

func (s *stubRepo) GetStrategyByName(_ context.Context, name string) (*models.Strategy, error) {
	for i := range s.strategies {
		if s.strategies[i].Name == name {
			item := s.strategies[i]
			return &item, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) GetStrategyByTrigger(_ context.Context, channel string) (*models.Strategy, error) {
	for i := range s.strategies {
		if s.strategies[i].TriggerChannel != nil && strings.EqualFold(*s.strategies[i].TriggerChannel, channel) {
			item := s.strategies[i]
			return &item, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) SignalExists(_ context.Context, key repository.SignalKey) (bool, error) {
	if s.skipExistsCheck {
		return false, nil
	}
	return s.lookup(key) != nil, nil
}

func (s *stubRepo) InsertSignal(_ context.Context, item *models.Signal) error {
	key := repository.SignalKey{
		StrategyID: item.StrategyID,
		Symbol:     item.Symbol,
		Side:       item.Side,
		TradeSide:  item.TradeSide,
		Price:      item.Price,
	}
	if s.lookup(key) != nil {
		return repository.ErrDuplicateSignal
	}
	s.nextSignalID++
	item.ID = s.nextSignalID
	s.signals = append(s.signals, *item)
	return nil
}

func (s *stubRepo) FindLatestOpenSignal(_ context.Context, strategyID uint64, symbol, side string) (*models.Signal, error) {
	var latest *models.Signal
	for i := range s.signals {
		sig := s.signals[i]
		if sig.StrategyID != strategyID || sig.Symbol != symbol || sig.Side != side || sig.TradeSide != TradeSideOpen {
			continue
		}
		if latest == nil || sig.ID > latest.ID {
			item := sig
			latest = &item
		}
	}
	return latest, nil
}

func (s *stubRepo) ListActiveSubscriptions(_ context.Context, strategyID uint64) ([]models.Subscription, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Subscription
	for _, sub := range s.subs[strategyID] {
		if sub.Status == models.SubscriptionActive {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *stubRepo) ListUserTradesBySignal(_ context.Context, signalID uint64) ([]models.UserTrade, error) {
	return s.trades[signalID], nil
}

func (s *stubRepo) InsertRelayMessage(_ context.Context, item *models.RelayMessage) error {
	return nil
}

func (s *stubRepo) DeleteRelayMessagesBefore(_ context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRepo) lookup(key repository.SignalKey) *models.Signal {
	for i := range s.signals {
		sig := s.signals[i]
		if sig.StrategyID == key.StrategyID &&
			sig.Symbol == key.Symbol &&
			sig.Side == key.Side &&
			sig.TradeSide == key.TradeSide &&
			sig.Price == key.Price {
			return &s.signals[i]
		}
	}
	return nil
}
