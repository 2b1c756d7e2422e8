package repository

import (
	"context"
	"errors"
	"fmt"

	"usof/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ToggleAction reports what a toggle did to the stored reaction.
type ToggleAction string

const (
	ToggleCreated ToggleAction = "created"
	ToggleDeleted ToggleAction = "deleted"
	ToggleUpdated ToggleAction = "updated"
)

// LikeRepository defines the interface for reaction data operations
type LikeRepository interface {
	Create(ctx context.Context, like *models.Like) error
	GetByID(ctx context.Context, id string) (*models.Like, error)
	FindByAuthorAndTarget(ctx context.Context, authorID string, target models.ReactionTarget) (*models.Like, error)
	Toggle(ctx context.Context, authorID string, target models.ReactionTarget, likeType models.LikeType) (ToggleAction, *models.Like, error)
	Count(ctx context.Context, target models.ReactionTarget, likeType models.LikeType) (int64, error)
	Delete(ctx context.Context, id string) error
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Create(ctx context.Context, like *models.Like) error {
	return createLike(r.db.WithContext(ctx), like)
}

func createLike(db *gorm.DB, like *models.Like) error {
	if err := db.Omit("Author", "Post", "Comment").Create(like).Error; err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateReaction
		}
		return fmt.Errorf("create like: %w", err)
	}
	return nil
}

func (r *likeRepository) GetByID(ctx context.Context, id string) (*models.Like, error) {
	if !isUUID(id) {
		return nil, models.ErrLikeNotFound
	}
	var like models.Like
	if err := r.db.WithContext(ctx).First(&like, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrLikeNotFound
		}
		return nil, fmt.Errorf("get like: %w", err)
	}
	return &like, nil
}

func findByAuthorAndTarget(db *gorm.DB, authorID string, target models.ReactionTarget) (*models.Like, error) {
	var like models.Like
	err := db.Where("author_id = ? AND "+target.Column()+" = ?", authorID, target.ID).First(&like).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find like: %w", err)
	}
	return &like, nil
}

// FindByAuthorAndTarget returns nil without error when the author has not reacted.
func (r *likeRepository) FindByAuthorAndTarget(ctx context.Context, authorID string, target models.ReactionTarget) (*models.Like, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	return findByAuthorAndTarget(r.db.WithContext(ctx), authorID, target)
}

// Toggle creates, removes or flips the author's reaction inside one
// transaction. On postgres the existing row is locked; a concurrent first
// insert loses on the unique index and surfaces as ErrDuplicateReaction.
func (r *likeRepository) Toggle(ctx context.Context, authorID string, target models.ReactionTarget, likeType models.LikeType) (ToggleAction, *models.Like, error) {
	if err := target.Validate(); err != nil {
		return "", nil, err
	}

	var (
		action ToggleAction
		result *models.Like
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lookup := tx
		if tx.Dialector.Name() == "postgres" {
			lookup = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		existing, err := findByAuthorAndTarget(lookup, authorID, target)
		if err != nil {
			return err
		}

		switch {
		case existing == nil:
			like := &models.Like{AuthorID: authorID, Type: likeType}
			like.SetTarget(target)
			if err := createLike(tx, like); err != nil {
				return err
			}
			action, result = ToggleCreated, like
		case existing.Type == likeType:
			if err := tx.Delete(existing).Error; err != nil {
				return fmt.Errorf("delete like: %w", err)
			}
			action, result = ToggleDeleted, existing
		default:
			if err := tx.Model(existing).Update("type", likeType).Error; err != nil {
				return fmt.Errorf("update like: %w", err)
			}
			existing.Type = likeType
			action, result = ToggleUpdated, existing
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return action, result, nil
}

func (r *likeRepository) Count(ctx context.Context, target models.ReactionTarget, likeType models.LikeType) (int64, error) {
	if err := target.Validate(); err != nil {
		return 0, err
	}
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where(target.Column()+" = ? AND type = ?", target.ID, likeType).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}

func (r *likeRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return models.ErrLikeNotFound
	}
	res := r.db.WithContext(ctx).Delete(&models.Like{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete like: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrLikeNotFound
	}
	return nil
}
