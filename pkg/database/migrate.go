package database

import (
	"fmt"

	"github.com/testboard/engine/internal/models"
	"gorm.io/gorm"
)

// registerModels returns all models that need migration.
func registerModels() []interface{} {
	return []interface{}{
		&models.Project{},
		&models.Feature{},
		&models.TestCase{},
	}
}

// Migrate creates or updates the schema and applies custom indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(registerModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return runCustomMigrations(db)
}

// runCustomMigrations handles schema changes AutoMigrate can't handle.
func runCustomMigrations(db *gorm.DB) error {
	migrations := []func(*gorm.DB) error{
		addTestCaseScopeIndex,
		addFeatureProjectIndex,
	}
	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}
	return nil
}

// addTestCaseScopeIndex backs per-feature status counting.
func addTestCaseScopeIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_test_cases_feature_status
		ON test_cases(feature_id, status)
	`).Error
}

func addFeatureProjectIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_features_project_name
		ON features(project_id, name)
	`).Error
}
