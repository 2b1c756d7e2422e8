package repository

import (
	"context"
	"errors"
	"fmt"

	"usof/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id string) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if isUniqueViolation(err) {
			return models.ErrCategoryExists
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	if !isUUID(id) {
		return nil, models.ErrCategoryNotFound
	}
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	if err := r.db.WithContext(ctx).Order("title asc").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Category, error) {
	return findCategories(r.db.WithContext(ctx), ids)
}

func findCategories(db *gorm.DB, ids []string) ([]models.Category, error) {
	var categories []models.Category
	ids = uuidsOnly(ids)
	if len(ids) == 0 {
		return categories, nil
	}
	if err := db.Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	res := r.db.WithContext(ctx).Model(category).Update("title", category.Title)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return models.ErrCategoryExists
		}
		return fmt.Errorf("update category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrCategoryNotFound
	}
	return nil
}

// Delete removes the category and its post links; the posts themselves stay.
func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return models.ErrCategoryNotFound
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", id).Delete(&postCategory{}).Error; err != nil {
			return fmt.Errorf("unlink category: %w", err)
		}
		res := tx.Delete(&models.Category{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("delete category: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return models.ErrCategoryNotFound
		}
		return nil
	})
}
