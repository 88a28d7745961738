// database/seed.go
package database

import (
	"fmt"

	"skillsprint/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedBadges upserts the built-in badge catalog by code, so edits to the catalog
// reach existing databases on the next start.
func SeedBadges(db *gorm.DB) error {
	catalog := models.DefaultBadges()
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "icon_url", "rarity", "threshold"}),
	}).Create(&catalog).Error; err != nil {
		return fmt.Errorf("failed to seed badges: %w", err)
	}
	return nil
}
