package models

import (
	"time"
)

// Signal is an accepted trading alert. Rows are immutable once created and
// are never deleted by the pipeline.
//
// All prices are exact decimal text; they are compared and forwarded as
// strings and never parsed into floats. The composite unique index is the
// authoritative idempotency guard: two alerts with the same
// (strategy, symbol, side, trade_side, price) are the same event, and the
// second insert fails with a duplicate-key error.
type Signal struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	StrategyID uint64 `gorm:"not null;index;uniqueIndex:idx_signals_dedupe"`

	Symbol string `gorm:"type:varchar(50);not null;uniqueIndex:idx_signals_dedupe"`
	Side   string `gorm:"type:varchar(10);not null;uniqueIndex:idx_signals_dedupe"`
	Price  string `gorm:"type:varchar(40);not null;uniqueIndex:idx_signals_dedupe"`

	OrderType string `gorm:"type:varchar(20);not null;default:'MARKET'"`

	TPPrice      *string `gorm:"column:tp_price;type:varchar(40)"`
	TPStopType   *string `gorm:"column:tp_stop_type;type:varchar(20)"`
	TPOrderType  *string `gorm:"column:tp_order_type;type:varchar(20)"`
	TPOrderPrice *string `gorm:"column:tp_order_price;type:varchar(40)"`

	SLPrice      *string `gorm:"column:sl_price;type:varchar(40)"`
	SLStopType   *string `gorm:"column:sl_stop_type;type:varchar(20)"`
	SLOrderType  *string `gorm:"column:sl_order_type;type:varchar(20)"`
	SLOrderPrice *string `gorm:"column:sl_order_price;type:varchar(40)"`

	TradeSide string `gorm:"type:varchar(10);not null;uniqueIndex:idx_signals_dedupe"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (Signal) TableName() string {
	return "signals"
}
