package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ksalling/tradefly/internal/models"
)

// ErrDuplicateSignal is returned by InsertSignal when the store's unique
// index on the dedup tuple rejects the row. The pre-insert existence check
// is only a fast path; this error is the authoritative duplicate verdict.
var ErrDuplicateSignal = errors.New("duplicate signal")

// SignalKey is the identity tuple for idempotency: two signals with an
// equal key inside the dedup window are the same event.
type SignalKey struct {
	StrategyID uint64
	Symbol     string
	Side       string
	TradeSide  string
	Price      string
}

// Repository is the narrow storage surface the pipeline runs against.
// Signals are append-only: nothing here mutates or deletes one.
type Repository interface {
	GetStrategyByName(ctx context.Context, name string) (*models.Strategy, error)
	GetStrategyByTrigger(ctx context.Context, channel string) (*models.Strategy, error)

	SignalExists(ctx context.Context, key SignalKey) (bool, error)
	InsertSignal(ctx context.Context, item *models.Signal) error
	FindLatestOpenSignal(ctx context.Context, strategyID uint64, symbol, side string) (*models.Signal, error)

	ListActiveSubscriptions(ctx context.Context, strategyID uint64) ([]models.Subscription, error)
	ListUserTradesBySignal(ctx context.Context, signalID uint64) ([]models.UserTrade, error)

	InsertRelayMessage(ctx context.Context, item *models.RelayMessage) error
	DeleteRelayMessagesBefore(ctx context.Context, before time.Time) (int64, error)
}
