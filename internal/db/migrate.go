package db

import (
	"fmt"

	"github.com/OzzaAI/ozzastart-sub001/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema for all persisted models.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errMigrate := conn.AutoMigrate(
		&models.Admin{},
		&models.APIKey{},
		&models.Setting{},
		&models.Subscription{},
		&models.UsageRecord{},
		&models.Invoice{},
	); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}
	return nil
}
