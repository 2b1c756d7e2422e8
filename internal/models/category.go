package models

import (
	"time"

	"gorm.io/gorm"
)

// Category is a topic a post can be filed under.
type Category struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"size:100;uniqueIndex;not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Category) BeforeCreate(_ *gorm.DB) error {
	assignID(&c.ID)
	return nil
}
