package models

// UserTrade records the position a user actually opened against an OPEN
// signal. Execution workers write these after a fill; the pipeline only
// reads them to correlate a later CLOSE back to the position and quantity.
type UserTrade struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	UserID   uint64 `gorm:"not null;index"`
	SignalID uint64 `gorm:"not null;index"`

	PositionID string `gorm:"type:varchar(20)"`
	MarkPrice  string `gorm:"type:varchar(20)"`
	TradeValue string `gorm:"type:varchar(20)"`
	TradeQty   string `gorm:"type:varchar(20)"`
}

func (UserTrade) TableName() string {
	return "user_trades"
}
