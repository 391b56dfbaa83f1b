package order

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ksalling/tradefly/internal/models"
)

// QuantitySizer decides the quantity of an opening order. Closing orders
// never consult a sizer; their quantity comes from the correlated trade.
type QuantitySizer interface {
	OpenQuantity(sig models.Signal, sub Subscriber) (*string, error)
}

// UnsizedQuantity leaves the opening quantity unset, deferring sizing to
// the execution worker. This matches the historical behavior.
type UnsizedQuantity struct{}

func (UnsizedQuantity) OpenQuantity(models.Signal, Subscriber) (*string, error) {
	return nil, nil
}

// PercentOfBalanceSizer allocates PortfolioPercentage percent of a fixed
// account balance, scaled by leverage, at the signal price.
type PercentOfBalanceSizer struct {
	Balance decimal.Decimal
}

func (s PercentOfBalanceSizer) OpenQuantity(sig models.Signal, sub Subscriber) (*string, error) {
	price, err := decimal.NewFromString(sig.Price)
	if err != nil {
		return nil, fmt.Errorf("parse signal price %q: %w", sig.Price, err)
	}
	if price.IsZero() {
		return nil, fmt.Errorf("signal price is zero")
	}

	pct := decimal.NewFromInt(int64(sub.PortfolioPercentage))
	leverage := decimal.NewFromInt(int64(sub.LeverageAmount))
	if leverage.IsZero() {
		leverage = decimal.NewFromInt(1)
	}

	notional := s.Balance.Mul(pct).Div(decimal.NewFromInt(100)).Mul(leverage)
	qty := notional.DivRound(price, 8).String()
	return &qty, nil
}
