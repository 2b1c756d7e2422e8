package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxReplyDepth is the deepest a comment may sit below its root. A comment
// at this depth cannot receive replies.
const MaxReplyDepth = 3

// Comment is a remark on a post, optionally replying to another comment on
// the same post. Removing a parent removes its whole reply subtree.
type Comment struct {
	ID              string    `gorm:"type:uuid;primaryKey" json:"id"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	AuthorID        string    `gorm:"type:uuid;not null;index" json:"author_id"`
	Author          User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	PostID          string    `gorm:"type:uuid;not null;index" json:"post_id"`
	Post            *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"post,omitempty"`
	ParentCommentID *string   `gorm:"type:uuid;index" json:"parent_comment_id"`
	Parent          *Comment  `gorm:"foreignKey:ParentCommentID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// IsRoot reports whether the comment replies directly to the post.
func (c *Comment) IsRoot() bool {
	return c.ParentCommentID == nil
}
