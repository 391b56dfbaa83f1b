package order

import (
	"github.com/ksalling/tradefly/internal/models"
)

const ExchangeBitunix = "Bitunix"

// BitunixOrder is the wire shape the Bitunix execution worker consumes.
// Boolean-ish fields are strings because that is what the venue's batch
// order endpoint expects.
type BitunixOrder struct {
	Symbol    string             `json:"symbol"`
	OrderList []BitunixOrderItem `json:"orderList"`
}

type BitunixOrderItem struct {
	Side       string  `json:"side"`
	Price      string  `json:"price"`
	Qty        *string `json:"qty"`
	OrderType  string  `json:"orderType"`
	ReduceOnly string  `json:"reduceOnly"`
	Effect     string  `json:"effect"`
	ClientID   string  `json:"clientId"`
	PositionID *string `json:"positionId"`

	TPPrice      *string `json:"tpPrice,omitempty"`
	TPStopType   *string `json:"tpStopType,omitempty"`
	TPOrderType  *string `json:"tpOrderType,omitempty"`
	TPOrderPrice *string `json:"tpOrderPrice,omitempty"`

	SLPrice      *string `json:"slPrice,omitempty"`
	SLStopType   *string `json:"slStopType,omitempty"`
	SLOrderType  *string `json:"slOrderType,omitempty"`
	SLOrderPrice *string `json:"slOrderPrice,omitempty"`
}

// BitunixBuilder builds futures batch orders for Bitunix. Time-in-force and
// the client tag are fixed by venue convention.
type BitunixBuilder struct {
	Sizer QuantitySizer
}

func (BitunixBuilder) Exchange() string {
	return ExchangeBitunix
}

func (b BitunixBuilder) Build(sig models.Signal, sub Subscriber) (any, error) {
	var qty *string
	var positionID *string
	reduceOnly := "false"

	if sub.Closing {
		reduceOnly = "true"
		if sub.PositionID != "" {
			pid := sub.PositionID
			positionID = &pid
		}
		if sub.TradeQty != "" {
			q := sub.TradeQty
			qty = &q
		}
	} else if b.Sizer != nil {
		sized, err := b.Sizer.OpenQuantity(sig, sub)
		if err != nil {
			return nil, err
		}
		qty = sized
	}

	item := BitunixOrderItem{
		Side:       sig.Side,
		Price:      sig.Price,
		Qty:        qty,
		OrderType:  sig.OrderType,
		ReduceOnly: reduceOnly,
		Effect:     "GTC",
		ClientID:   "tradeFlyBot",
		PositionID: positionID,
	}

	// At most one of the two blocks survives normalization; attach whichever
	// the persisted signal kept.
	if sig.SLPrice != nil {
		item.SLPrice = sig.SLPrice
		item.SLStopType = sig.SLStopType
		item.SLOrderType = sig.SLOrderType
		item.SLOrderPrice = sig.SLOrderPrice
	} else if sig.TPPrice != nil {
		item.TPPrice = sig.TPPrice
		item.TPStopType = sig.TPStopType
		item.TPOrderType = sig.TPOrderType
		item.TPOrderPrice = sig.TPOrderPrice
	}

	return BitunixOrder{
		Symbol:    sig.Symbol,
		OrderList: []BitunixOrderItem{item},
	}, nil
}
