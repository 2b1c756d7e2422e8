package service

import (
	"context"
	"strings"

	"usof/internal/models"
	"usof/internal/repository"
	"usof/internal/validation"
)

type CategoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

func (s *CategoryService) List(ctx context.Context) ([]*models.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	return s.categoryRepo.GetByID(ctx, id)
}

func (s *CategoryService) Create(ctx context.Context, title string) (*models.Category, error) {
	title = strings.TrimSpace(title)
	if err := validation.ValidateCategoryTitle(title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	category := &models.Category{Title: title}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, id, title string) (*models.Category, error) {
	title = strings.TrimSpace(title)
	if err := validation.ValidateCategoryTitle(title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	category.Title = title
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes the category and unlinks it from every post.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	return s.categoryRepo.Delete(ctx, id)
}
