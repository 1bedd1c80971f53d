package database

import (
	"fmt"

	"tradehub/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Session{},
		&models.Trade{},
		&models.ForumPost{},
		&models.WishlistItem{},
		&models.Event{},
		&models.Comment{},
		&models.Reaction{},
		&models.Report{},
		&models.Vouch{},
	}
}

// Migrate brings the schema up to date with PersistentModels.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	// Usernames keep their display case but must be unique ignoring it.
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))").Error; err != nil {
		return fmt.Errorf("failed to create username index: %w", err)
	}
	return nil
}
