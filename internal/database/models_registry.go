package database

import "usof/internal/models"

// PersistentModels lists the schema-managed models with referenced tables
// ahead of the tables holding their foreign keys.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Category{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
	}
}
