package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// LikeType is the polarity of a reaction.
type LikeType string

const (
	LikeTypeLike    LikeType = "LIKE"
	LikeTypeDislike LikeType = "DISLIKE"
)

func (t LikeType) Valid() bool {
	return t == LikeTypeLike || t == LikeTypeDislike
}

// ParseLikeType accepts "like"/"dislike" in any case.
func ParseLikeType(s string) (LikeType, error) {
	switch LikeType(strings.ToUpper(strings.TrimSpace(s))) {
	case LikeTypeLike:
		return LikeTypeLike, nil
	case LikeTypeDislike:
		return LikeTypeDislike, nil
	}
	return "", NewValidationError("type must be 'like' or 'dislike'")
}

// TargetKind names what a reaction points at.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// ParseTargetKind accepts exactly "post" or "comment".
func ParseTargetKind(s string) (TargetKind, error) {
	switch TargetKind(s) {
	case TargetPost, TargetComment:
		return TargetKind(s), nil
	}
	return "", ErrInvalidTargetKind
}

// ReactionTarget is either a post or a comment, never both. Build it with
// PostTarget or CommentTarget.
type ReactionTarget struct {
	Kind TargetKind
	ID   string
}

func PostTarget(id string) ReactionTarget {
	return ReactionTarget{Kind: TargetPost, ID: id}
}

func CommentTarget(id string) ReactionTarget {
	return ReactionTarget{Kind: TargetComment, ID: id}
}

// NewReactionTarget builds a target from a raw kind string.
func NewReactionTarget(kind, id string) (ReactionTarget, error) {
	k, err := ParseTargetKind(kind)
	if err != nil {
		return ReactionTarget{}, err
	}
	return ReactionTarget{Kind: k, ID: id}, nil
}

// Column returns the likes column that references this target.
func (t ReactionTarget) Column() string {
	if t.Kind == TargetComment {
		return "comment_id"
	}
	return "post_id"
}

func (t ReactionTarget) String() string {
	return fmt.Sprintf("%s:%s", t.Kind, t.ID)
}

// Validate rejects zero-valued or unknown targets.
func (t ReactionTarget) Validate() error {
	if t.Kind != TargetPost && t.Kind != TargetComment {
		return ErrInvalidTargetKind
	}
	if t.ID == "" {
		return NewValidationError("reaction target id is required")
	}
	return nil
}

var errLikeTarget = errors.New("like must reference exactly one of post or comment")

// Like is one user's reaction to one post or comment. The storage layer
// keeps one row per (author, target) through the two unique indexes and
// rejects rows that point at both or neither target.
type Like struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_likes_author_post;uniqueIndex:idx_likes_author_comment" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	PostID    *string   `gorm:"type:uuid;uniqueIndex:idx_likes_author_post;index;check:chk_likes_single_target,(post_id IS NULL) <> (comment_id IS NULL)" json:"post_id,omitempty"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	CommentID *string   `gorm:"type:uuid;uniqueIndex:idx_likes_author_comment;index" json:"comment_id,omitempty"`
	Comment   *Comment  `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"-"`
	Type      LikeType  `gorm:"size:16;not null" json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetTarget writes t into the nullable target columns.
func (l *Like) SetTarget(t ReactionTarget) {
	id := t.ID
	l.PostID, l.CommentID = nil, nil
	if t.Kind == TargetComment {
		l.CommentID = &id
		return
	}
	l.PostID = &id
}

// Target reads the target back from the nullable columns.
func (l *Like) Target() (ReactionTarget, error) {
	switch {
	case l.PostID != nil && l.CommentID == nil:
		return PostTarget(*l.PostID), nil
	case l.CommentID != nil && l.PostID == nil:
		return CommentTarget(*l.CommentID), nil
	}
	return ReactionTarget{}, errLikeTarget
}

func (l *Like) BeforeCreate(_ *gorm.DB) error {
	assignID(&l.ID)
	if _, err := l.Target(); err != nil {
		return err
	}
	return nil
}
