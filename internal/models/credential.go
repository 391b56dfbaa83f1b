package models

import (
	"gorm.io/datatypes"
)

// Credential is a user's API secret material for one exchange. Material is
// an opaque blob: the pipeline never inspects it, it is carried through to
// the dispatched order envelope for the execution worker.
type Credential struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	UserID     uint64 `gorm:"not null;index"`
	ExchangeID uint64 `gorm:"not null;index"`

	Material datatypes.JSON `gorm:"type:jsonb"`

	Exchange *Exchange `gorm:"foreignKey:ExchangeID"`
}

func (Credential) TableName() string {
	return "user_credentials"
}
