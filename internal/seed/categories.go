package seed

import (
	"fmt"

	"usof/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BuiltInCategories are created on startup when SEED_CATEGORIES is on.
var BuiltInCategories = []string{
	"General",
	"Announcements",
	"Help",
	"Go",
	"JavaScript",
	"Python",
	"Databases",
	"DevOps",
	"Linux",
	"Security",
	"Career",
	"Off-topic",
}

// Categories upserts the built-in categories and returns every category in
// the table, ordered by title.
func Categories(db *gorm.DB) ([]models.Category, error) {
	for _, title := range BuiltInCategories {
		c := models.Category{Title: title}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "title"}},
			DoNothing: true,
		}).Create(&c).Error; err != nil {
			return nil, fmt.Errorf("seed category %s: %w", title, err)
		}
	}

	var all []models.Category
	if err := db.Order("title").Find(&all).Error; err != nil {
		return nil, err
	}
	return all, nil
}
