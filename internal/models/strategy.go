package models

import (
	"time"
)

// Strategy is a named signal source users can subscribe to. Secret is the
// shared webhook secret compared on intake; TriggerChannel links a chat
// relay channel to this strategy for extracted signals.
type Strategy struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"type:varchar(50);uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	Secret      string `gorm:"type:varchar(50)"`

	TriggerChannel *string `gorm:"type:varchar(50);index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Strategy) TableName() string {
	return "strategies"
}
