package models

import (
	"time"
)

// RelayMessage is a raw chat message forwarded by the relay bot. Messages
// from trigger channels are additionally run through the text-to-signal
// extractor; everything is kept for audit until the retention sweep.
type RelayMessage struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	ChannelID   string `gorm:"type:varchar(255);index"`
	ChannelName string `gorm:"type:varchar(255);index"`
	Message     string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (RelayMessage) TableName() string {
	return "relay_messages"
}
