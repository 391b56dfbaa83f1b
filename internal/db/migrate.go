package db

import (
	"github.com/ksalling/tradefly/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Exchange{},
		&models.Strategy{},
		&models.Credential{},
		&models.Subscription{},
		&models.Signal{},
		&models.UserTrade{},
		&models.RelayMessage{},
	)
}
