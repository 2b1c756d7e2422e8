package repository

import (
	"context"
	"errors"
	"fmt"

	"usof/internal/models"

	"gorm.io/gorm"
)

// CommentField is a column a comment can be looked up by.
type CommentField string

const (
	CommentFieldID              CommentField = "id"
	CommentFieldPostID          CommentField = "postId"
	CommentFieldAuthorID        CommentField = "authorId"
	CommentFieldParentCommentID CommentField = "parentCommentId"
)

var commentFieldColumns = map[CommentField]string{
	CommentFieldID:              "id",
	CommentFieldPostID:          "post_id",
	CommentFieldAuthorID:        "author_id",
	CommentFieldParentCommentID: "parent_comment_id",
}

// Column maps the field to its column, rejecting unknown fields.
func (f CommentField) Column() (string, error) {
	col, ok := commentFieldColumns[f]
	if !ok {
		return "", models.NewValidationError(fmt.Sprintf("unsupported comment field %q", string(f)))
	}
	return col, nil
}

// CommentFilter narrows FindAll. A zero Field matches every comment.
type CommentFilter struct {
	Field     CommentField
	Value     string
	RootsOnly bool
}

// CommentStats are the derived totals of a single comment.
type CommentStats struct {
	LikeCount    int64
	DislikeCount int64
	ReplyCount   int64
	ReplyIDs     []string
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	FindOne(ctx context.Context, field CommentField, value string) (*models.Comment, error)
	FindAll(ctx context.Context, filter CommentFilter) ([]*models.Comment, error)
	ParentOf(ctx context.Context, id string) (*string, error)
	Stats(ctx context.Context, ids []string) (map[string]*CommentStats, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Post", "Parent").Create(comment).Error; err != nil {
		if isForeignKeyViolation(err) {
			if missing := r.missingReference(ctx, comment); missing != nil {
				return missing
			}
		}
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// missingReference names the referenced row a failed insert could not find.
// The FK error itself does not say which of the three it was on sqlite.
func (r *commentRepository) missingReference(ctx context.Context, c *models.Comment) error {
	type ref struct {
		table, id string
		err       error
	}
	refs := []ref{
		{"users", c.AuthorID, models.ErrAuthorNotFound},
		{"posts", c.PostID, models.ErrPostNotFound},
	}
	if c.ParentCommentID != nil {
		refs = append(refs, ref{"comments", *c.ParentCommentID, models.ErrParentNotFound})
	}
	for _, rf := range refs {
		if !isUUID(rf.id) {
			return rf.err
		}
		var n int64
		if err := r.db.WithContext(ctx).Table(rf.table).Where("id = ?", rf.id).Count(&n).Error; err != nil {
			return fmt.Errorf("check %s: %w", rf.table, err)
		}
		if n == 0 {
			return rf.err
		}
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	return r.FindOne(ctx, CommentFieldID, id)
}

func (r *commentRepository) FindOne(ctx context.Context, field CommentField, value string) (*models.Comment, error) {
	col, err := field.Column()
	if err != nil {
		return nil, err
	}
	if !isUUID(value) {
		return nil, models.ErrCommentNotFound
	}
	var comment models.Comment
	err = r.db.WithContext(ctx).
		Preload("Author").
		Where(col+" = ?", value).
		Order("created_at asc").
		First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrCommentNotFound
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

func (r *commentRepository) FindAll(ctx context.Context, filter CommentFilter) ([]*models.Comment, error) {
	db := r.db.WithContext(ctx).Preload("Author")
	if filter.Field != "" {
		col, err := filter.Field.Column()
		if err != nil {
			return nil, err
		}
		if !isUUID(filter.Value) {
			return []*models.Comment{}, nil
		}
		db = db.Where(col+" = ?", filter.Value)
	}
	if filter.RootsOnly {
		db = db.Where("parent_comment_id IS NULL")
	}

	var comments []*models.Comment
	if err := db.Order("created_at asc").Order("id asc").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// ParentOf returns the parent id of a comment, nil for a root.
func (r *commentRepository) ParentOf(ctx context.Context, id string) (*string, error) {
	if !isUUID(id) {
		return nil, models.ErrCommentNotFound
	}
	var row struct {
		ParentCommentID *string
	}
	res := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("parent_comment_id").
		Where("id = ?", id).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("get comment parent: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.ErrCommentNotFound
	}
	return row.ParentCommentID, nil
}

// Stats loads reaction totals and direct replies for every id in two grouped
// queries. Ids without likes or replies still get a zeroed entry.
func (r *commentRepository) Stats(ctx context.Context, ids []string) (map[string]*CommentStats, error) {
	stats := make(map[string]*CommentStats, len(ids))
	if len(ids) == 0 {
		return stats, nil
	}
	for _, id := range ids {
		stats[id] = &CommentStats{ReplyIDs: []string{}}
	}

	var reactions []struct {
		CommentID    string
		LikeCount    int64
		DislikeCount int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Select(
			"comment_id, "+
				"COALESCE(SUM(CASE WHEN type = ? THEN 1 ELSE 0 END), 0) AS like_count, "+
				"COALESCE(SUM(CASE WHEN type = ? THEN 1 ELSE 0 END), 0) AS dislike_count",
			models.LikeTypeLike, models.LikeTypeDislike,
		).
		Where("comment_id IN ?", ids).
		Group("comment_id").
		Scan(&reactions).Error
	if err != nil {
		return nil, fmt.Errorf("count comment reactions: %w", err)
	}
	for _, rc := range reactions {
		if s, ok := stats[rc.CommentID]; ok {
			s.LikeCount = rc.LikeCount
			s.DislikeCount = rc.DislikeCount
		}
	}

	var replies []struct {
		ID              string
		ParentCommentID string
	}
	err = r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("id, parent_comment_id").
		Where("parent_comment_id IN ?", ids).
		Order("created_at asc").
		Order("id asc").
		Scan(&replies).Error
	if err != nil {
		return nil, fmt.Errorf("list comment replies: %w", err)
	}
	for _, rp := range replies {
		if s, ok := stats[rp.ParentCommentID]; ok {
			s.ReplyIDs = append(s.ReplyIDs, rp.ID)
			s.ReplyCount++
		}
	}

	return stats, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id, content string) error {
	if !isUUID(id) {
		return models.ErrCommentNotFound
	}
	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return fmt.Errorf("update comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrCommentNotFound
	}
	return nil
}

// Delete removes one comment; its replies and likes follow through FK cascades.
func (r *commentRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return models.ErrCommentNotFound
	}
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrCommentNotFound
	}
	return nil
}
