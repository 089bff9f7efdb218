package db

import (
	"fmt"

	"github.com/zulandar/launchpad/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model managed by Launchpad.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.FeedbackSource{},
		&models.AnalysisResult{},
		&models.TaskCandidate{},
		&models.PRDDraft{},
		&models.ContentAsset{},
		&models.ServiceLaunch{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// DropTables removes all Launchpad tables. Used to reset SQLite stores,
// where there is no server-level database to drop.
func DropTables(db *gorm.DB) error {
	if err := db.Migrator().DropTable(AllModels()...); err != nil {
		return fmt.Errorf("db: drop tables: %w", err)
	}
	return nil
}
