package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/dishcraft/backend/internal/model"
)

// RunMigrations brings the schema up to date. Postgres gets the pgvector
// extension first so the embedding column can be created.
func RunMigrations(db *gorm.DB) error {
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return fmt.Errorf("failed to install pgvector extension: %w", err)
		}
	}

	if err := db.AutoMigrate(&model.Recipe{}); err != nil {
		return fmt.Errorf("failed to migrate recipes: %w", err)
	}
	return nil
}
