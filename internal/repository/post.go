package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"usof/internal/models"
	"usof/internal/observability"

	"gorm.io/gorm"
)

// PostField is a column a post can be looked up by.
type PostField string

const (
	PostFieldID       PostField = "id"
	PostFieldAuthorID PostField = "authorId"
)

var postFieldColumns = map[PostField]string{
	PostFieldID:       "posts.id",
	PostFieldAuthorID: "posts.author_id",
}

// Column maps the field to its qualified column, rejecting unknown fields.
func (f PostField) Column() (string, error) {
	col, ok := postFieldColumns[f]
	if !ok {
		return "", models.NewValidationError(fmt.Sprintf("unsupported post field %q", string(f)))
	}
	return col, nil
}

// Sort keys accepted by ListPaginated.
const (
	SortByLikes    = "likes"
	SortByDislikes = "dislikes"
	SortByComments = "comments"
	SortByDate     = "date"
)

var postSortColumns = map[string]string{
	SortByLikes:    "likes_count",
	SortByDislikes: "dislikes_count",
	SortByComments: "comments_count",
	SortByDate:     "posts.created_at",
}

// PostQuery drives the paginated listing. Offset and Limit are already clamped.
type PostQuery struct {
	Offset   int
	Limit    int
	Search   string
	Category string
	SortBy   string
	Asc      bool
}

// PostUpdate carries the mutable columns; nil fields are left unchanged and
// a nil CategoryIDs keeps the current category set.
type PostUpdate struct {
	Title       *string
	Content     *string
	Status      *models.PostStatus
	CategoryIDs []string
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, categoryIDs []string) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	FindOne(ctx context.Context, field PostField, value string) (*models.Post, error)
	FindAll(ctx context.Context, field PostField, value string) ([]*models.Post, error)
	ListPaginated(ctx context.Context, q PostQuery) ([]*models.Post, int64, error)
	ListByAuthor(ctx context.Context, authorID string, status models.PostStatus) ([]*models.Post, error)
	Update(ctx context.Context, id string, upd PostUpdate) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

// postCategory is the many2many join row between posts and categories.
type postCategory struct {
	PostID     string
	CategoryID string
}

func (postCategory) TableName() string { return "post_categories" }

// postStats is the phase-one projection of the paginated listing.
type postStats struct {
	ID            string
	LikesCount    int64
	DislikesCount int64
	CommentsCount int64
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// postCountColumns computes the derived counts for each posts row.
var postCountColumns = strings.Join([]string{
	fmt.Sprintf("(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id AND likes.type = '%s') AS likes_count", models.LikeTypeLike),
	fmt.Sprintf("(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id AND likes.type = '%s') AS dislikes_count", models.LikeTypeDislike),
	"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count",
}, ", ")

func (r *postRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("posts.*, "+postCountColumns).
		Preload("Author").
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("categories.title asc") })
}

// Create inserts the post and links it to exactly the given categories in a
// single transaction. A missing category aborts the whole insert.
func (r *postRepository) Create(ctx context.Context, post *models.Post, categoryIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := dedupe(categoryIDs)
		if err := requireCategories(tx, ids); err != nil {
			return err
		}
		if err := tx.Omit("Author", "Categories").Create(post).Error; err != nil {
			if isForeignKeyViolation(err) {
				return models.ErrAuthorNotFound
			}
			return fmt.Errorf("create post: %w", err)
		}
		return linkCategories(tx, post.ID, ids)
	})
}

func requireCategories(tx *gorm.DB, ids []string) error {
	found, err := findCategories(tx, ids)
	if err != nil {
		return err
	}
	if len(found) != len(ids) {
		return models.ErrSomeCategoriesNotFound
	}
	return nil
}

func linkCategories(tx *gorm.DB, postID string, categoryIDs []string) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	rows := make([]postCategory, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		rows = append(rows, postCategory{PostID: postID, CategoryID: id})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("link categories: %w", err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return r.FindOne(ctx, PostFieldID, id)
}

func (r *postRepository) FindOne(ctx context.Context, field PostField, value string) (*models.Post, error) {
	col, err := field.Column()
	if err != nil {
		return nil, err
	}
	if !isUUID(value) {
		return nil, models.ErrPostNotFound
	}
	var post models.Post
	if err := r.withDetails(ctx).Where(col+" = ?", value).Order("posts.created_at desc").First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

func (r *postRepository) FindAll(ctx context.Context, field PostField, value string) ([]*models.Post, error) {
	db := r.withDetails(ctx)
	if field != "" {
		col, err := field.Column()
		if err != nil {
			return nil, err
		}
		if !isUUID(value) {
			return []*models.Post{}, nil
		}
		db = db.Where(col+" = ?", value)
	}
	var posts []*models.Post
	if err := db.Order("posts.created_at desc").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// filtered applies the ACTIVE, search and category predicates shared by the
// page query and the total count.
func (r *postRepository) filtered(ctx context.Context, q PostQuery) *gorm.DB {
	db := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("posts.status = ?", models.PostStatusActive)

	if q.Search != "" {
		pattern := likePattern(q.Search)
		db = db.Joins("JOIN users AS author ON author.id = posts.author_id").
			Where(searchPredicate(r.db.Dialector.Name()), pattern, pattern)
	}
	if q.Category != "" {
		db = db.Joins("JOIN post_categories AS pc ON pc.post_id = posts.id").
			Joins("JOIN categories AS cat ON cat.id = pc.category_id").
			Where("cat.title = ?", q.Category)
	}
	return db
}

// searchPredicate matches title or author name. Postgres folds case with
// ILIKE; sqlite relies on the Unicode lower() registered by the database
// package.
func searchPredicate(dialect string) string {
	if dialect == "postgres" {
		return `(posts.title ILIKE ? ESCAPE '\' OR author.full_name ILIKE ? ESCAPE '\')`
	}
	return `(LOWER(posts.title) LIKE ? ESCAPE '\' OR LOWER(author.full_name) LIKE ? ESCAPE '\')`
}

func orderClause(q PostQuery) string {
	dir := "DESC"
	if q.Asc {
		dir = "ASC"
	}
	col, ok := postSortColumns[q.SortBy]
	if !ok {
		return "posts.id " + dir
	}
	return fmt.Sprintf("%s %s, posts.id %s", col, dir, dir)
}

// ListPaginated filters, sorts and pages over a cheap id+counts projection,
// then hydrates full rows for just that page, keeping the page order.
func (r *postRepository) ListPaginated(ctx context.Context, q PostQuery) ([]*models.Post, int64, error) {
	defer observability.TrackQuery("list_paginated", "posts")()

	var total int64
	if err := r.filtered(ctx, q).Distinct("posts.id").Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}
	if total == 0 {
		return []*models.Post{}, 0, nil
	}

	var page []postStats
	err := r.filtered(ctx, q).
		Select("posts.id AS id, " + postCountColumns).
		Order(orderClause(q)).
		Offset(q.Offset).
		Limit(q.Limit).
		Scan(&page).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list post page: %w", err)
	}
	if len(page) == 0 {
		return []*models.Post{}, total, nil
	}

	ids := make([]string, 0, len(page))
	for _, s := range page {
		ids = append(ids, s.ID)
	}

	var hydrated []*models.Post
	err = r.db.WithContext(ctx).
		Preload("Author").
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("categories.title asc") }).
		Where("id IN ?", ids).
		Find(&hydrated).Error
	if err != nil {
		return nil, 0, fmt.Errorf("hydrate posts: %w", err)
	}

	byID := make(map[string]*models.Post, len(hydrated))
	for _, p := range hydrated {
		byID[p.ID] = p
	}

	posts := make([]*models.Post, 0, len(page))
	for _, s := range page {
		p, ok := byID[s.ID]
		if !ok {
			// deleted between the two phases
			continue
		}
		p.LikesCount = s.LikesCount
		p.DislikesCount = s.DislikesCount
		p.CommentsCount = s.CommentsCount
		posts = append(posts, p)
	}
	return posts, total, nil
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID string, status models.PostStatus) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.withDetails(ctx).
		Where("posts.author_id = ? AND posts.status = ?", authorID, status).
		Order("posts.created_at desc").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts by author: %w", err)
	}
	return posts, nil
}

// Update applies the changed columns and, when given, replaces the category
// set. Both happen in one transaction so a bad category leaves the post untouched.
func (r *postRepository) Update(ctx context.Context, id string, upd PostUpdate) error {
	if !isUUID(id) {
		return models.ErrPostNotFound
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Post{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return fmt.Errorf("lookup post: %w", err)
		}
		if exists == 0 {
			return models.ErrPostNotFound
		}

		changes := map[string]interface{}{}
		if upd.Title != nil {
			changes["title"] = *upd.Title
		}
		if upd.Content != nil {
			changes["content"] = *upd.Content
		}
		if upd.Status != nil {
			changes["status"] = *upd.Status
		}
		if len(changes) > 0 {
			if err := tx.Model(&models.Post{ID: id}).Updates(changes).Error; err != nil {
				return fmt.Errorf("update post: %w", err)
			}
		}

		if upd.CategoryIDs == nil {
			return nil
		}
		ids := dedupe(upd.CategoryIDs)
		if err := requireCategories(tx, ids); err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&postCategory{}).Error; err != nil {
			return fmt.Errorf("unlink categories: %w", err)
		}
		return linkCategories(tx, id, ids)
	})
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return models.ErrPostNotFound
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&postCategory{}).Error; err != nil {
			return fmt.Errorf("unlink categories: %w", err)
		}
		res := tx.Delete(&models.Post{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("delete post: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return models.ErrPostNotFound
		}
		return nil
	})
}

func (r *postRepository) Exists(ctx context.Context, id string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check post: %w", err)
	}
	return n > 0, nil
}
