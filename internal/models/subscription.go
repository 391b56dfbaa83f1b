package models

import (
	"time"
)

const (
	SubscriptionActive   = "Active"
	SubscriptionDisabled = "Disabled"
)

// Subscription is a user's opt-in to a strategy. Only Active subscriptions
// participate in fan-out.
type Subscription struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	UserID       uint64 `gorm:"not null;index"`
	StrategyID   uint64 `gorm:"not null;index"`
	CredentialID uint64 `gorm:"not null"`

	PortfolioPercentage int `gorm:"not null;default:0;check:portfolio_percentage >= 0 AND portfolio_percentage <= 100"`
	LeverageAmount      int `gorm:"not null;default:1"`
	MaxTPLegs           int `gorm:"column:max_tp_legs;not null;default:1"`

	TrailingStop   bool `gorm:"default:true"`
	RequireConfirm bool `gorm:"default:true"`

	Status string `gorm:"type:varchar(10);not null;default:'Active';index"`

	Credential *Credential `gorm:"foreignKey:CredentialID"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Subscription) TableName() string {
	return "strategy_subscriptions"
}
