package models

// Exchange is a venue the execution workers know how to trade on. The
// dispatch topic for an order is derived from Name.
type Exchange struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"type:varchar(50);uniqueIndex;not null"`
}

func (Exchange) TableName() string {
	return "supported_exchanges"
}
