package models

import (
	"time"

	"gorm.io/gorm"
)

// PostStatus controls whether a post shows up in public listings.
type PostStatus string

const (
	PostStatusActive   PostStatus = "ACTIVE"
	PostStatusInactive PostStatus = "INACTIVE"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	return s == PostStatusActive || s == PostStatusInactive
}

// Post represents a forum post. Reaction and comment totals are never
// stored; they are filled from correlated subqueries when a query selects them.
type Post struct {
	ID         string     `gorm:"type:uuid;primaryKey" json:"id"`
	Title      string     `gorm:"size:300;not null" json:"title"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	Status     PostStatus `gorm:"size:16;not null;default:ACTIVE;index" json:"status"`
	AuthorID   string     `gorm:"type:uuid;not null;index" json:"author_id"`
	Author     User       `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Categories []Category `gorm:"many2many:post_categories;constraint:OnDelete:CASCADE" json:"categories"`
	// LikesCount is not persisted; computed at query time
	LikesCount int64 `gorm:"->;-:migration" json:"likes_count"`
	// DislikesCount is not persisted; computed at query time
	DislikesCount int64 `gorm:"->;-:migration" json:"dislikes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int64     `gorm:"->;-:migration" json:"comments_count"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (p *Post) BeforeCreate(_ *gorm.DB) error {
	assignID(&p.ID)
	if p.Status == "" {
		p.Status = PostStatusActive
	}
	return nil
}

// CategoryTitles returns the titles of the loaded categories in load order.
func (p *Post) CategoryTitles() []string {
	titles := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		titles = append(titles, c.Title)
	}
	return titles
}
