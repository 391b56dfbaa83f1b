package order

import (
	"errors"
	"fmt"

	"gorm.io/datatypes"

	"github.com/ksalling/tradefly/internal/models"
)

// ErrUnsupportedExchange marks a subscriber whose exchange has no builder
// registered. The pipeline logs and skips that subscriber; it is never a
// silent drop.
var ErrUnsupportedExchange = errors.New("no order builder for exchange")

// Subscriber is the per-user context a builder maps a signal against.
// PositionID and TradeQty are filled only when Closing is true; they come
// from the correlated UserTrade.
type Subscriber struct {
	UserID     uint64
	Exchange   string
	Credential datatypes.JSON

	PortfolioPercentage int
	LeverageAmount      int
	MaxTPLegs           int
	TrailingStop        bool
	RequireConfirm      bool

	Closing    bool
	PositionID string
	TradeQty   string
}

// Builder maps (signal, subscriber) to an exchange-native order payload.
// Implementations must be pure: no I/O, no clock, no mutation of inputs.
type Builder interface {
	Exchange() string
	Build(sig models.Signal, sub Subscriber) (any, error)
}

// Registry holds one builder per exchange name, populated at startup.
type Registry struct {
	builders map[string]Builder
}

func NewRegistry(builders ...Builder) *Registry {
	r := &Registry{builders: make(map[string]Builder, len(builders))}
	for _, b := range builders {
		if b == nil {
			continue
		}
		r.builders[b.Exchange()] = b
	}
	return r
}

func (r *Registry) Build(exchange string, sig models.Signal, sub Subscriber) (any, error) {
	if r == nil {
		return nil, ErrUnsupportedExchange
	}
	b, ok := r.builders[exchange]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExchange, exchange)
	}
	return b.Build(sig, sub)
}

func (r *Registry) Exchanges() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.builders))
	for name := range r.builders {
		out = append(out, name)
	}
	return out
}
