package service

import (
	"context"
	"errors"
	"testing"

	"usof/internal/models"
	"usof/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	users map[string]*models.User
}

func newUserRepoStub(users ...*models.User) *userRepoStub {
	s := &userRepoStub{users: map[string]*models.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *userRepoStub) find(match func(*models.User) bool) (*models.User, error) {
	for _, u := range s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrUserNotFound
}
func (s *userRepoStub) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-" + user.Username
	}
	s.users[user.ID] = user
	return nil
}
func (s *userRepoStub) GetByID(_ context.Context, id string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.ID == id })
}
func (s *userRepoStub) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Username == username })
}
func (s *userRepoStub) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Email == email })
}
func (s *userRepoStub) List(_ context.Context, _, _ int) ([]*models.User, int64, error) {
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}
func (s *userRepoStub) Update(_ context.Context, user *models.User) error {
	s.users[user.ID] = user
	return nil
}
func (s *userRepoStub) Delete(_ context.Context, id string) error {
	if _, ok := s.users[id]; !ok {
		return models.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn        func(context.Context, *models.Comment) error
	findOneFn       func(context.Context, repository.CommentField, string) (*models.Comment, error)
	findAllFn       func(context.Context, repository.CommentFilter) ([]*models.Comment, error)
	parentOfFn      func(context.Context, string) (*string, error)
	statsFn         func(context.Context, []string) (map[string]*repository.CommentStats, error)
	updateContentFn func(context.Context, string, string) error
	deleteFn        func(context.Context, string) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	return s.findOneFn(ctx, repository.CommentFieldID, id)
}
func (s *commentRepoStub) FindOne(ctx context.Context, field repository.CommentField, value string) (*models.Comment, error) {
	return s.findOneFn(ctx, field, value)
}
func (s *commentRepoStub) FindAll(ctx context.Context, filter repository.CommentFilter) ([]*models.Comment, error) {
	return s.findAllFn(ctx, filter)
}
func (s *commentRepoStub) ParentOf(ctx context.Context, id string) (*string, error) {
	return s.parentOfFn(ctx, id)
}
func (s *commentRepoStub) Stats(ctx context.Context, ids []string) (map[string]*repository.CommentStats, error) {
	return s.statsFn(ctx, ids)
}
func (s *commentRepoStub) UpdateContent(ctx context.Context, id, content string) error {
	return s.updateContentFn(ctx, id, content)
}
func (s *commentRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, _ *models.Comment) error { return nil },
		findOneFn: func(_ context.Context, _ repository.CommentField, _ string) (*models.Comment, error) {
			return &models.Comment{}, nil
		},
		findAllFn:  func(_ context.Context, _ repository.CommentFilter) ([]*models.Comment, error) { return nil, nil },
		parentOfFn: func(_ context.Context, _ string) (*string, error) { return nil, nil },
		statsFn: func(_ context.Context, _ []string) (map[string]*repository.CommentStats, error) {
			return map[string]*repository.CommentStats{}, nil
		},
		updateContentFn: func(_ context.Context, _, _ string) error { return nil },
		deleteFn:        func(_ context.Context, _ string) error { return nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn        func(context.Context, *models.Post, []string) error
	findOneFn       func(context.Context, repository.PostField, string) (*models.Post, error)
	findAllFn       func(context.Context, repository.PostField, string) ([]*models.Post, error)
	listPaginatedFn func(context.Context, repository.PostQuery) ([]*models.Post, int64, error)
	listByAuthorFn  func(context.Context, string, models.PostStatus) ([]*models.Post, error)
	updateFn        func(context.Context, string, repository.PostUpdate) error
	deleteFn        func(context.Context, string) error
	existsFn        func(context.Context, string) (bool, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post, categoryIDs []string) error {
	return s.createFn(ctx, post, categoryIDs)
}
func (s *postRepoStub) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return s.findOneFn(ctx, repository.PostFieldID, id)
}
func (s *postRepoStub) FindOne(ctx context.Context, field repository.PostField, value string) (*models.Post, error) {
	return s.findOneFn(ctx, field, value)
}
func (s *postRepoStub) FindAll(ctx context.Context, field repository.PostField, value string) ([]*models.Post, error) {
	return s.findAllFn(ctx, field, value)
}
func (s *postRepoStub) ListPaginated(ctx context.Context, q repository.PostQuery) ([]*models.Post, int64, error) {
	return s.listPaginatedFn(ctx, q)
}
func (s *postRepoStub) ListByAuthor(ctx context.Context, authorID string, status models.PostStatus) ([]*models.Post, error) {
	return s.listByAuthorFn(ctx, authorID, status)
}
func (s *postRepoStub) Update(ctx context.Context, id string, upd repository.PostUpdate) error {
	return s.updateFn(ctx, id, upd)
}
func (s *postRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) Exists(ctx context.Context, id string) (bool, error) {
	return s.existsFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, _ *models.Post, _ []string) error { return nil },
		findOneFn: func(_ context.Context, _ repository.PostField, _ string) (*models.Post, error) {
			return &models.Post{}, nil
		},
		findAllFn: func(_ context.Context, _ repository.PostField, _ string) ([]*models.Post, error) { return nil, nil },
		listPaginatedFn: func(_ context.Context, _ repository.PostQuery) ([]*models.Post, int64, error) {
			return nil, 0, nil
		},
		listByAuthorFn: func(_ context.Context, _ string, _ models.PostStatus) ([]*models.Post, error) { return nil, nil },
		updateFn:       func(_ context.Context, _ string, _ repository.PostUpdate) error { return nil },
		deleteFn:       func(_ context.Context, _ string) error { return nil },
		existsFn:       func(_ context.Context, _ string) (bool, error) { return true, nil },
	}
}

// assertCode asserts that err is an AppError with the given code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeForbidden)
}

func adminIf(ids ...string) AdminChecker {
	return func(_ context.Context, userID string) (bool, error) {
		for _, id := range ids {
			if id == userID {
				return true, nil
			}
		}
		return false, nil
	}
}
