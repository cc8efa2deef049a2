package db

import (
	"fmt"

	"github.com/zulandar/chargeyard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns every GORM model for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Profile{},
		&models.RevokedToken{},
		&models.Project{},
		&models.BudgetItem{},
		&models.Note{},
		&models.Permit{},
		&models.Utility{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedProfile upserts a profile keyed by email, refreshing its name, role
// and password hash.
func SeedProfile(db *gorm.DB, p models.Profile) error {
	if p.Email == "" || p.ID == "" {
		return fmt.Errorf("db: seed profile: id and email are required")
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_name", "role", "password_hash"}),
	}).Create(&p)
	if result.Error != nil {
		return fmt.Errorf("db: seed profile %q: %w", p.Email, result.Error)
	}
	return nil
}
