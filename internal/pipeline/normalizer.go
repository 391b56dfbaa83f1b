package pipeline

import (
	"github.com/ksalling/tradefly/internal/models"
)

// Normalize builds the canonical signal draft from a raw alert. Pure; the
// draft is not persisted here.
//
// Two legacy rules are kept verbatim rather than corrected: the stop-loss
// block takes precedence whenever slPrice is present, so a signal never
// persists both a TP and an SL block; and a LIMIT stop-loss order forces
// the literal order price "MARKET".
func Normalize(alert RawAlert, strategyID uint64) models.Signal {
	sig := models.Signal{
		StrategyID: strategyID,
		Symbol:     alert.Symbol,
		Side:       alert.Side,
		Price:      alert.Price,
		TradeSide:  alert.TradeSide,
		OrderType:  "MARKET",
	}

	if alert.OrderType != nil && *alert.OrderType != "" {
		sig.OrderType = *alert.OrderType
	}

	switch {
	case alert.SLPrice != nil:
		sig.SLPrice = alert.SLPrice
		sig.SLStopType = alert.SLStopType
		sig.SLOrderType = alert.SLOrderType
		if alert.SLOrderType != nil && *alert.SLOrderType == "LIMIT" {
			market := "MARKET"
			sig.SLOrderPrice = &market
		}
	case alert.TPPrice != nil:
		sig.TPPrice = alert.TPPrice
		sig.TPStopType = alert.TPStopType
		sig.TPOrderType = alert.TPOrderType
		sig.TPOrderPrice = alert.TPOrderPrice
	}

	return sig
}
